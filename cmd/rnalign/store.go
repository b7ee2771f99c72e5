package main

import (
	"context"
	"fmt"

	"github.com/hupe1980/rnalign/blobstore"
	"github.com/hupe1980/rnalign/blobstore/minio"
	"github.com/hupe1980/rnalign/blobstore/s3"
)

// openStore returns the blob store that documents are read from and results
// are written to. With an empty root the local store resolves names as plain
// file paths.
func openStore(ctx context.Context, c storeConfig) (blobstore.BlobStore, error) {
	switch c.Kind {
	case "local":
		return blobstore.NewLocalStore(c.Root), nil
	case "s3":
		opts := []s3.Option{s3.WithPrefix(c.Root)}
		if c.Region != "" {
			opts = append(opts, s3.WithRegion(c.Region))
		}
		if c.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(c.Endpoint))
		}
		return s3.New(ctx, c.Bucket, opts...)
	case "minio":
		return minio.New(c.Endpoint, c.AccessKey, c.SecretKey, c.Secure, c.Bucket, c.Root)
	default:
		return nil, fmt.Errorf("unknown store %q", c.Kind)
	}
}
