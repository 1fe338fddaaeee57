// Package minio provides a MinIO implementation of objstore.Store.
//
// Usage:
//
//	cfg := objstore.DefaultConfig("localhost:9000", "minioadmin", "minioadmin")
//	store, err := minio.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
package minio

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/minio/minio-go/v7/pkg/tags"

	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/objstore"
)

// Driver is a MinIO implementation of objstore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	client *miniogo.Client
	core   miniogo.Core
	region string
}

// New connects to the store using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *objstore.Config) (*Driver, error) {
	if !cfg.Available() {
		return nil, errs.New(errs.ErrKindUnavailable, "object store credentials not configured")
	}

	client, err := miniogo.New(cfg.Endpoint, &miniogo.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	d := &Driver{
		client: client,
		core:   miniogo.Core{Client: client},
		region: cfg.Region,
	}

	if err := d.Ping(ctx); err != nil {
		return nil, err
	}

	return d, nil
}

// --- objstore.Store implementation ---

// Ping verifies the store is reachable by listing buckets.
func (d *Driver) Ping(ctx context.Context) error {
	if _, err := d.client.ListBuckets(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// StatObject returns metadata for the object at key inside bucket.
func (d *Driver) StatObject(ctx context.Context, bucket, key string) (*objstore.ObjectInfo, error) {
	stat, err := d.client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat object")
	}

	return &objstore.ObjectInfo{
		Key:          stat.Key,
		Size:         stat.Size,
		ContentType:  stat.ContentType,
		ETag:         stat.ETag,
		LastModified: stat.LastModified,
	}, nil
}

// GetObjectRange reads bytes [start, stop] of the object at key.
func (d *Driver) GetObjectRange(ctx context.Context, bucket, key string, start, stop int64) ([]byte, error) {
	opts := miniogo.GetObjectOptions{}
	if err := opts.SetRange(start, stop); err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid byte range", err)
	}

	obj, err := d.client.GetObject(ctx, bucket, key, opts)
	if err != nil {
		return nil, mapError(err, "failed to get object range")
	}
	defer obj.Close()

	// The SDK defers the request until the first read, so backend errors
	// (NoSuchKey in particular) surface here rather than from GetObject.
	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, mapError(err, "failed to read object range")
	}
	return data, nil
}

// GetObjectTags returns the object's tag set.
func (d *Driver) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	t, err := d.client.GetObjectTagging(ctx, bucket, key, miniogo.GetObjectTaggingOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object tags")
	}
	return t.ToMap(), nil
}

// SetObjectTags replaces the object's tag set.
func (d *Driver) SetObjectTags(ctx context.Context, bucket, key string, tagMap map[string]string) error {
	t, err := tags.NewTags(tagMap, true)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "invalid tag set", err)
	}
	if err := d.client.PutObjectTagging(ctx, bucket, key, t, miniogo.PutObjectTaggingOptions{}); err != nil {
		return mapError(err, "failed to set object tags")
	}
	return nil
}

// BucketCreationDate returns the creation time of the named bucket, or the
// zero time when the bucket does not exist. MinIO reports a missing bucket
// by omission from ListBuckets; some S3-compatible backends (Swift) error
// instead, which callers treat the same as absent.
func (d *Driver) BucketCreationDate(ctx context.Context, bucket string) (time.Time, error) {
	buckets, err := d.client.ListBuckets(ctx)
	if err != nil {
		return time.Time{}, mapError(err, "failed to list buckets")
	}
	for _, b := range buckets {
		if b.Name == bucket {
			return b.CreationDate, nil
		}
	}
	return time.Time{}, nil
}

// MakeBucket creates the named bucket.
func (d *Driver) MakeBucket(ctx context.Context, bucket string) error {
	err := d.client.MakeBucket(ctx, bucket, miniogo.MakeBucketOptions{Region: d.region})
	if err != nil {
		return mapError(err, "failed to create bucket")
	}
	return nil
}

// GetBucketPolicy returns the bucket's access policy document.
func (d *Driver) GetBucketPolicy(ctx context.Context, bucket string) (string, error) {
	policy, err := d.client.GetBucketPolicy(ctx, bucket)
	if err != nil {
		return "", mapError(err, "failed to get bucket policy")
	}
	return policy, nil
}

// SetBucketPolicy replaces the bucket's access policy document.
func (d *Driver) SetBucketPolicy(ctx context.Context, bucket, policy string) error {
	if err := d.client.SetBucketPolicy(ctx, bucket, policy); err != nil {
		return mapError(err, "failed to set bucket policy")
	}
	return nil
}

// UploadFile transfers the local file at path to key inside bucket.
func (d *Driver) UploadFile(ctx context.Context, bucket, key, path string) error {
	if _, err := d.client.FPutObject(ctx, bucket, key, path, miniogo.PutObjectOptions{}); err != nil {
		return mapError(err, "failed to upload file")
	}
	return nil
}

// NewMultipartUpload starts a multipart session and returns its upload ID.
func (d *Driver) NewMultipartUpload(ctx context.Context, bucket, key string) (string, error) {
	uploadID, err := d.core.NewMultipartUpload(ctx, bucket, key, miniogo.PutObjectOptions{})
	if err != nil {
		return "", mapError(err, "failed to initiate multipart upload")
	}
	return uploadID, nil
}

// AbortMultipartUpload discards a multipart session.
func (d *Driver) AbortMultipartUpload(ctx context.Context, bucket, key, uploadID string) error {
	if err := d.core.AbortMultipartUpload(ctx, bucket, key, uploadID); err != nil {
		return mapError(err, "failed to abort multipart upload")
	}
	return nil
}

// PresignGet returns a time-limited download URL for the object.
func (d *Driver) PresignGet(ctx context.Context, bucket, key string, expires time.Duration, filename string) (string, error) {
	var reqParams url.Values
	if filename != "" {
		reqParams = url.Values{
			"response-content-disposition": {`attachment; filename="` + filename + `"`},
		}
	}
	u, err := d.client.PresignedGetObject(ctx, bucket, key, expires, reqParams)
	if err != nil {
		return "", mapError(err, "failed to presign GET")
	}
	return u.String(), nil
}

// PresignPut returns a time-limited single-request upload URL.
func (d *Driver) PresignPut(ctx context.Context, bucket, key string, expires time.Duration) (string, error) {
	u, err := d.client.PresignedPutObject(ctx, bucket, key, expires)
	if err != nil {
		return "", mapError(err, "failed to presign PUT")
	}
	return u.String(), nil
}

// PresignUploadPart returns a time-limited URL for one part of a multipart
// session. The upload ID and part number travel as signed query parameters.
func (d *Driver) PresignUploadPart(ctx context.Context, bucket, key, uploadID string, partNumber int, expires time.Duration) (string, error) {
	u, err := d.client.Presign(ctx, http.MethodPut, bucket, key, expires, url.Values{
		"uploadId":   {uploadID},
		"partNumber": {strconv.Itoa(partNumber)},
	})
	if err != nil {
		return "", mapError(err, "failed to presign upload part")
	}
	return u.String(), nil
}

// PresignCompleteMultipart returns a time-limited URL for the final
// complete-multipart-upload POST of a session.
func (d *Driver) PresignCompleteMultipart(ctx context.Context, bucket, key, uploadID string, expires time.Duration) (string, error) {
	u, err := d.client.Presign(ctx, http.MethodPost, bucket, key, expires, url.Values{
		"uploadId": {uploadID},
	})
	if err != nil {
		return "", mapError(err, "failed to presign multipart completion")
	}
	return u.String(), nil
}
