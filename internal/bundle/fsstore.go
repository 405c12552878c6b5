package bundle

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

// FSStore is the on-disk Store: one directory per session, one temp-file-
// then-rename per upload.
type FSStore struct {
	rootDir         string
	maxFileBytes    int64
	maxSessionBytes int64
}

func NewFSStore(rootDir string, maxFileBytes, maxSessionBytes int64) *FSStore {
	return &FSStore{rootDir: rootDir, maxFileBytes: maxFileBytes, maxSessionBytes: maxSessionBytes}
}

type entryMeta struct {
	size int64
	hash string
}

// Handle is the concrete type behind domain.BundleRef for FSStore.
type Handle struct {
	sessionID string
	root      string

	mu         sync.Mutex
	sealed     bool
	totalBytes int64
	entries    map[string]entryMeta
	inflight   map[string]struct{}
}

func (h *Handle) SessionID() string { return h.sessionID }
func (h *Handle) Root() string      { return h.root }

func (s *FSStore) Create(ctx context.Context, sessionID string) (domain.BundleRef, error) {
	root := filepath.Join(s.rootDir, sessionID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, domain.Wrap(domain.KindStorageUnavailable, "failed to create bundle directory", err)
	}
	return &Handle{
		sessionID: sessionID,
		root:      root,
		entries:   map[string]entryMeta{},
		inflight:  map[string]struct{}{},
	}, nil
}

func (s *FSStore) asHandle(ref domain.BundleRef) (*Handle, error) {
	h, ok := ref.(*Handle)
	if !ok {
		return nil, domain.NewError(domain.KindStorageUnavailable, "bundle reference not recognized by the filesystem store")
	}
	return h, nil
}

func (s *FSStore) Put(ctx context.Context, ref domain.BundleRef, relativePath string, r io.Reader) (int64, error) {
	h, err := s.asHandle(ref)
	if err != nil {
		return 0, err
	}
	cleaned, err := sanitizeRelPath(relativePath)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.sealed {
		h.mu.Unlock()
		return 0, domain.NewError(domain.KindSealed, "bundle is sealed")
	}
	if _, busy := h.inflight[cleaned]; busy {
		h.mu.Unlock()
		return 0, domain.NewError(domain.KindConflict, "concurrent write to the same path")
	}
	h.inflight[cleaned] = struct{}{}
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.inflight, cleaned)
		h.mu.Unlock()
	}()

	full := filepath.Join(h.root, cleaned)
	if rel, relErr := filepath.Rel(h.root, full); relErr != nil || rel == ".." || strings.HasPrefix(rel, "../") {
		return 0, domain.NewError(domain.KindPathEscape, "path escapes bundle root")
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, domain.Wrap(domain.KindStorageUnavailable, "failed to create parent directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, domain.Wrap(domain.KindStorageUnavailable, "failed to create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once renamed into place

	hasher := sha256.New()
	written, copyErr := io.Copy(io.MultiWriter(tmp, hasher), io.LimitReader(r, s.maxFileBytes+1))
	closeErr := tmp.Close()
	if copyErr != nil {
		return 0, domain.Wrap(domain.KindStorageUnavailable, "upload interrupted", copyErr)
	}
	if closeErr != nil {
		return 0, domain.Wrap(domain.KindStorageUnavailable, "failed to finalize temp file", closeErr)
	}
	if written > s.maxFileBytes {
		return 0, domain.NewError(domain.KindPayloadTooLarge, "file exceeds the per-file size limit")
	}

	// The cap check, rename, and byte-count commit must run as one critical
	// section: releasing the lock between them lets two concurrent uploads
	// to distinct paths both pass the cap check against the same stale
	// totalBytes and then clobber each other's committed total.
	h.mu.Lock()
	defer h.mu.Unlock()

	projected := h.totalBytes - h.entries[cleaned].size + written
	if projected > s.maxSessionBytes {
		return 0, domain.NewError(domain.KindPayloadTooLarge, "bundle exceeds the per-session size limit")
	}
	if err := os.Rename(tmpPath, full); err != nil {
		return 0, domain.Wrap(domain.KindStorageUnavailable, "failed to finalize upload", err)
	}
	h.totalBytes = projected
	h.entries[cleaned] = entryMeta{size: written, hash: hex.EncodeToString(hasher.Sum(nil))}

	return written, nil
}

func (s *FSStore) Seal(ref domain.BundleRef) error {
	h, err := s.asHandle(ref)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.sealed = true
	h.mu.Unlock()
	return nil
}

func (s *FSStore) Iter(ref domain.BundleRef) ([]Entry, error) {
	h, err := s.asHandle(ref)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	paths := make([]string, 0, len(h.entries))
	for p := range h.entries {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := make([]Entry, 0, len(paths))
	for _, p := range paths {
		meta := h.entries[p]
		full := filepath.Join(h.root, p)
		out = append(out, Entry{
			RelativePath: p,
			Size:         meta.size,
			Hash:         meta.hash,
			Open:         func() (io.ReadCloser, error) { return os.Open(full) },
		})
	}
	return out, nil
}

func (s *FSStore) Destroy(ref domain.BundleRef) error {
	h, err := s.asHandle(ref)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(h.root); err != nil && !os.IsNotExist(err) {
		return domain.Wrap(domain.KindStorageUnavailable, "failed to destroy bundle", err)
	}
	return nil
}
