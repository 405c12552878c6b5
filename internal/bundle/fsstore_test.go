package bundle

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aras-services/nxrm2-portal-bridge/internal/domain"
)

func newTestStore(t *testing.T, maxFile, maxSession int64) (*FSStore, domain.BundleRef) {
	t.Helper()
	store := NewFSStore(t.TempDir(), maxFile, maxSession)
	ref, err := store.Create(context.Background(), "repo-1")
	require.NoError(t, err)
	return store, ref
}

func TestPut_WritesAndIter(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)

	n, err := store.Put(context.Background(), ref, "a/b.jar", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)

	entries, err := store.Iter(ref)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a/b.jar", entries[0].RelativePath)
	assert.EqualValues(t, 5, entries[0].Size)
	assert.NotEmpty(t, entries[0].Hash)

	rc, err := entries[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestPut_RejectsPathEscape(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)
	_, err := store.Put(context.Background(), ref, "../escape", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindPathEscape))
}

func TestPut_RejectsAfterSeal(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)
	require.NoError(t, store.Seal(ref))

	_, err := store.Put(context.Background(), ref, "a.jar", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindSealed))
}

func TestPut_EnforcesPerFileLimit(t *testing.T) {
	store, ref := newTestStore(t, 4, 1<<20)
	_, err := store.Put(context.Background(), ref, "big.jar", bytes.NewReader(make([]byte, 5)))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindPayloadTooLarge))
}

func TestPut_EnforcesPerSessionLimit(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 6)
	_, err := store.Put(context.Background(), ref, "a.jar", bytes.NewReader(make([]byte, 4)))
	require.NoError(t, err)

	_, err = store.Put(context.Background(), ref, "b.jar", bytes.NewReader(make([]byte, 4)))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindPayloadTooLarge))
}

func TestPut_ReplacingAnEntryDoesNotDoubleCountItsSize(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 8)
	_, err := store.Put(context.Background(), ref, "a.jar", bytes.NewReader(make([]byte, 4)))
	require.NoError(t, err)

	// Re-uploading the same path should only count the new size, not add
	// to the old one, since the session total tracks current file sizes.
	_, err = store.Put(context.Background(), ref, "a.jar", bytes.NewReader(make([]byte, 6)))
	require.NoError(t, err)
}

func TestPut_ConcurrentWritesToSamePathConflict(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)
	h := ref.(*Handle)

	// Simulate an in-flight write by marking the path busy directly,
	// exactly what Put does before it starts streaming.
	h.mu.Lock()
	h.inflight["a.jar"] = struct{}{}
	h.mu.Unlock()

	_, err := store.Put(context.Background(), ref, "a.jar", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, domain.IsKind(err, domain.KindConflict))
}

func TestPut_DistinctPathsDoNotConflict(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, p := range []string{"a.jar", "b.jar"} {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			_, err := store.Put(context.Background(), ref, p, strings.NewReader("x"))
			errs <- err
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

func TestDestroy_RemovesBundleAndToleratesMissing(t *testing.T) {
	store, ref := newTestStore(t, 1<<20, 1<<20)
	require.NoError(t, store.Destroy(ref))
	require.NoError(t, store.Destroy(ref), "destroying twice must not error")
}

func TestAsHandle_RejectsForeignRef(t *testing.T) {
	store := NewFSStore(t.TempDir(), 1<<20, 1<<20)
	_, err := store.Put(context.Background(), foreignRef{}, "a.jar", strings.NewReader("x"))
	require.Error(t, err)
}

type foreignRef struct{}

func (foreignRef) SessionID() string { return "x" }
func (foreignRef) Root() string      { return "/" }
