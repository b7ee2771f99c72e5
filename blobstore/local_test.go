package blobstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/rnalign/internal/fs"
)

func testStores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Get(ctx, "missing.json")
			require.ErrorIs(t, err, ErrNotFound)

			data := []byte(`{"name":"1ehz"}`)
			require.NoError(t, store.Put(ctx, "structures/1ehz.json", data))
			require.NoError(t, store.Put(ctx, "structures/1evv.json.zst", []byte{1, 2, 3}))
			require.NoError(t, store.Put(ctx, "results/run.json", []byte("{}")))

			got, err := store.Get(ctx, "structures/1ehz.json")
			require.NoError(t, err)
			assert.Equal(t, data, got)

			// Returned data is a copy.
			got[0] = 'x'
			again, err := store.Get(ctx, "structures/1ehz.json")
			require.NoError(t, err)
			assert.Equal(t, data, again)

			require.NoError(t, store.Put(ctx, "structures/1ehz.json", []byte("v2")))
			got, err = store.Get(ctx, "structures/1ehz.json")
			require.NoError(t, err)
			assert.Equal(t, "v2", string(got))

			names, err := store.List(ctx, "structures/")
			require.NoError(t, err)
			assert.Equal(t, []string{"structures/1ehz.json", "structures/1evv.json.zst"}, names)

			all, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Len(t, all, 3)

			require.NoError(t, store.Delete(ctx, "structures/1ehz.json"))
			require.NoError(t, store.Delete(ctx, "structures/1ehz.json"))
			_, err = store.Get(ctx, "structures/1ehz.json")
			require.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestLocalStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := NewLocalStore(dir)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a.json", []byte("a")))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "a.json", entries[0].Name())

	content, err := os.ReadFile(filepath.Join(dir, "a.json"))
	require.NoError(t, err)
	assert.Equal(t, "a", string(content))
}

func TestLocalStore_FailedWriteKeepsOldBlob(t *testing.T) {
	tests := map[string]fs.Fault{
		"write":  {FailAfterBytes: 2},
		"sync":   {FailAfterBytes: -1, FailOnSync: true},
		"close":  {FailAfterBytes: -1, FailOnClose: true},
		"rename": {FailAfterBytes: -1, FailOnRename: true},
	}
	for name, fault := range tests {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			ctx := context.Background()
			require.NoError(t, NewLocalStore(dir).Put(ctx, "result.json", []byte("old")))

			ffs := fs.NewFaultyFS(nil)
			ffs.AddRule("result.json", fault)
			store := NewLocalStoreFS(dir, ffs)

			err := store.Put(ctx, "result.json", []byte("new content"))
			require.ErrorIs(t, err, fs.ErrInjected)

			got, err := store.Get(ctx, "result.json")
			require.NoError(t, err)
			assert.Equal(t, "old", string(got))

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Len(t, entries, 1)
		})
	}
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "nope"))
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestLocalStore_Canceled(t *testing.T) {
	store := NewLocalStore(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Put(ctx, "a", nil), context.Canceled)
}

type countingStore struct {
	*MemoryStore
	inFlight, peak atomic.Int64
}

func (c *countingStore) Get(ctx context.Context, name string) ([]byte, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	return c.MemoryStore.Get(ctx, name)
}

func TestGetAllPutAll(t *testing.T) {
	ctx := context.Background()
	store := &countingStore{MemoryStore: NewMemoryStore()}

	blobs := []Blob{
		{Name: "a", Data: []byte("1")},
		{Name: "b", Data: []byte("2")},
		{Name: "c", Data: []byte("3")},
		{Name: "d", Data: []byte("4")},
	}
	require.NoError(t, PutAll(ctx, store, blobs, 2))

	got, err := GetAll(ctx, store, []string{"d", "a", "c"}, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]byte{[]byte("4"), []byte("1"), []byte("3")}, got)
	assert.LessOrEqual(t, store.peak.Load(), int64(2))

	_, err = GetAll(ctx, store, []string{"a", "zzz"}, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), "zzz")
}
