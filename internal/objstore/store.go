// Package objstore defines the unified interface for S3-compatible object
// storage backends.
//
// All providers (MinIO, the in-memory test store) implement the Store
// interface. Callers depend only on this package, never on a specific
// provider package.
//
// Usage:
//
//	cfg := objstore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package objstore

import (
	"context"
	"time"
)

// Store is the single interface all object storage providers must implement.
// It is scoped to exactly the operations the access layer needs: ranged
// reads, metadata, tagging, bucket provisioning, uploads, and presigning.
type Store interface {
	// Ping verifies the storage backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any held resources.
	Close() error

	// StatObject returns metadata for the object at key inside bucket
	// without downloading its content.
	StatObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// GetObjectRange reads bytes [start, stop] (inclusive on both ends)
	// of the object at key inside bucket.
	GetObjectRange(ctx context.Context, bucket, key string, start, stop int64) ([]byte, error)

	// GetObjectTags returns the object's tag set as a map.
	GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error)

	// SetObjectTags replaces the object's tag set.
	SetObjectTags(ctx context.Context, bucket, key string, tags map[string]string) error

	// BucketCreationDate returns when the named bucket was created.
	// A zero time means the bucket does not exist. Backends that report
	// a missing bucket as an error instead return that error; callers
	// treat both the same way.
	BucketCreationDate(ctx context.Context, bucket string) (time.Time, error)

	// MakeBucket creates the named bucket.
	MakeBucket(ctx context.Context, bucket string) error

	// GetBucketPolicy returns the bucket's access policy document (JSON).
	GetBucketPolicy(ctx context.Context, bucket string) (string, error)

	// SetBucketPolicy replaces the bucket's access policy document (JSON).
	SetBucketPolicy(ctx context.Context, bucket, policy string) error

	// UploadFile transfers the local file at path to key inside bucket.
	UploadFile(ctx context.Context, bucket, key, path string) error

	// NewMultipartUpload starts a multipart upload session and returns
	// the store-assigned upload ID.
	NewMultipartUpload(ctx context.Context, bucket, key string) (string, error)

	// AbortMultipartUpload discards a multipart upload session.
	AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error

	// PresignGet returns a time-limited download URL for the object.
	// A non-empty filename sets the response content disposition.
	PresignGet(ctx context.Context, bucket, key string, expires time.Duration, filename string) (string, error)

	// PresignPut returns a time-limited single-request upload URL.
	PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error)

	// PresignUploadPart returns a time-limited URL for uploading one part
	// (1-based partNumber) of the multipart session uploadID.
	PresignUploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, expires time.Duration) (string, error)

	// PresignCompleteMultipart returns a time-limited URL for the final
	// complete-multipart-upload call of session uploadID.
	PresignCompleteMultipart(ctx context.Context, bucket, key, uploadID string, expires time.Duration) (string, error)
}
