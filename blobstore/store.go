package blobstore

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores whole documents by name.
type BlobStore interface {
	// Get returns the content of a blob.
	Get(ctx context.Context, name string) ([]byte, error)

	// Put writes a blob atomically, replacing an existing one.
	Put(ctx context.Context, name string, data []byte) error

	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error

	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}

// GetAll fetches names concurrently with at most parallelism requests in
// flight. The result is parallel to names.
func GetAll(ctx context.Context, store BlobStore, names []string, parallelism int) ([][]byte, error) {
	if parallelism <= 0 {
		parallelism = len(names)
	}
	sem := semaphore.NewWeighted(int64(max(parallelism, 1)))
	out := make([][]byte, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			data, err := store.Get(gctx, name)
			if err != nil {
				return fmt.Errorf("get %s: %w", name, err)
			}
			out[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Blob is one named document for PutAll.
type Blob struct {
	Name string
	Data []byte
}

// PutAll writes blobs concurrently with at most parallelism requests in
// flight.
func PutAll(ctx context.Context, store BlobStore, blobs []Blob, parallelism int) error {
	if parallelism <= 0 {
		parallelism = len(blobs)
	}
	sem := semaphore.NewWeighted(int64(max(parallelism, 1)))

	g, gctx := errgroup.WithContext(ctx)
	for _, b := range blobs {
		if err := sem.Acquire(gctx, 1); err != nil {
			break
		}
		g.Go(func() error {
			defer sem.Release(1)
			if err := store.Put(gctx, b.Name, b.Data); err != nil {
				return fmt.Errorf("put %s: %w", b.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
