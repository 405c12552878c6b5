// Package bundle implements the bundle store (C3): the staging area that
// collects a session's uploaded files until they are sealed and shipped to
// the Portal as a single deployment.
package bundle

import (
	"context"
	"io"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

// Entry describes one sealed file. Open returns a fresh reader each call so
// a failed upload attempt can be retried without holding the whole bundle
// in memory.
type Entry struct {
	RelativePath string
	Size         int64
	Hash         string
	Open         func() (io.ReadCloser, error)
}

// Store is the C3 contract. Implementations own the concrete type behind
// domain.BundleRef and must reject a ref minted by a different store.
type Store interface {
	Create(ctx context.Context, sessionID string) (domain.BundleRef, error)
	Put(ctx context.Context, ref domain.BundleRef, relativePath string, r io.Reader) (int64, error)
	Seal(ref domain.BundleRef) error
	Iter(ref domain.BundleRef) ([]Entry, error)
	Destroy(ref domain.BundleRef) error
}
