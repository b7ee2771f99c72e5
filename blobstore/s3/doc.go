// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("rna/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	data, err := store.Get(ctx, "structures/1ehz.json.zst")
//
// # Features
//
//   - CRC32C checksums on small uploads
//   - Multipart uploads for large documents
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3
