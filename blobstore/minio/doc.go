// Package minio provides a BlobStore implementation using the MinIO client.
//
// MinIO is a high-performance, S3-compatible object storage system. This package
// uses the official MinIO Go client library and also works with other
// S3-compatible storage systems like Ceph, SeaweedFS, and Garage.
//
// # Basic Usage
//
//	store, err := minioblob.New("localhost:9000", "minioadmin", "minioadmin", false,
//	    "structures", "rna/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, err := store.Get(ctx, "1ehz.json.zst")
//
// An existing client can be wrapped with NewStore:
//
//	client, _ := minio.New("s3.example.com:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
//	    Secure: true,
//	})
//	store := minioblob.NewStore(client, "structures", "")
package minio
