package depot

import (
	"context"
	"time"

	"github.com/aquastor/depot/internal/errs"
)

const (
	// DefaultReadExpiration is the nominal lifetime of presigned read URLs.
	DefaultReadExpiration = time.Hour

	// DefaultUploadExpiration is the lifetime of presigned upload URLs.
	DefaultUploadExpiration = 24 * time.Hour

	// uploadPartSize is the fixed multipart part size. 1 GiB keeps the
	// part count low for large objects while staying well under the
	// 5 GiB S3 part-size ceiling, and makes the part count in the
	// composite ETag a rough size-in-GiB estimate.
	uploadPartSize int64 = 1 << 30
)

// urlCacheKey memoizes signer calls. Keyed on exact arguments including
// the absolute expiry timestamp; quantization of that timestamp is what
// keeps the cache's effective size bounded.
type urlCacheKey struct {
	bucket    string
	key       string
	expiresAt int64
	filename  string
}

// PresignedGetURL returns a time-bounded read URL for bucket/key. A
// non-empty filename sets the response content disposition.
//
// The signed expiry deviates up to ~10% from the nominal expiration: the
// current time is snapped to the nearest multiple of expiration/5, so
// near-simultaneous callers asking for the same object land on the same
// absolute expiry and share one signer call. Repeated requests within a
// quantization window return the identical URL string.
func (d *Depot) PresignedGetURL(ctx context.Context, bucket, key string, expiration time.Duration, filename string) (string, error) {
	if expiration <= 0 {
		expiration = DefaultReadExpiration
	}

	now := d.now().Unix()
	wrap := int64(expiration.Seconds()) / 5
	if wrap < 1 {
		wrap = 1
	}
	rest := now % wrap
	t0 := now - rest
	if float64(rest) >= float64(wrap)/2 {
		t0 += wrap
	}
	expiresAt := t0 + int64(expiration.Seconds())

	ck := urlCacheKey{bucket: bucket, key: key, expiresAt: expiresAt, filename: filename}
	d.urlMu.Lock()
	if u, ok := d.urls[ck]; ok {
		d.urlMu.Unlock()
		return u, nil
	}
	d.urlMu.Unlock()

	u, err := d.store.PresignGet(ctx, bucket, key, time.Duration(expiresAt-now)*time.Second, filename)
	if err != nil {
		return "", err
	}

	d.urlMu.Lock()
	d.urls[ck] = u
	d.urlMu.Unlock()
	return u, nil
}

// ClearURLCache drops all memoized presigned URLs.
func (d *Depot) ClearURLCache() {
	d.urlMu.Lock()
	d.urls = make(map[urlCacheKey]string)
	d.urlMu.Unlock()
}

// PresignedUploadURLs returns the URLs a client needs to write bucket/key
// directly, without credentials, given the announced fileSize.
//
// Objects up to one part (1 GiB) get a single presigned PUT URL and an
// empty completion URL. Larger objects get one upload-part URL per 1 GiB
// part (1-based order matters) plus a completion URL; a multipart session
// is initiated against the store first so its upload ID is embedded in
// every URL.
//
// The client-side contract: split the file into ceil(fileSize/len(urls))
// byte chunks, PUT chunk i to urls[i] collecting each response ETag, then
// POST the CompleteMultipartUpload XML of (PartNumber, ETag) pairs to the
// completion URL. Any non-success response means restarting the whole
// session; this layer attempts no partial recovery.
func (d *Depot) PresignedUploadURLs(ctx context.Context, bucket, key string, fileSize int64, expiration time.Duration) ([]string, string, error) {
	if fileSize < 0 {
		return nil, "", errs.New(errs.ErrKindInvalidInput, "negative file size")
	}
	if expiration <= 0 {
		expiration = DefaultUploadExpiration
	}

	if err := d.RequireBucket(ctx, bucket); err != nil {
		return nil, "", err
	}

	numParts := fileSize / uploadPartSize
	if fileSize%uploadPartSize != 0 || fileSize == 0 {
		numParts++
	}

	if numParts == 1 {
		u, err := d.store.PresignPut(ctx, bucket, key, expiration)
		if err != nil {
			return nil, "", err
		}
		return []string{u}, "", nil
	}

	uploadID, err := d.store.NewMultipartUpload(ctx, bucket, key)
	if err != nil {
		return nil, "", err
	}

	urls := make([]string, 0, numParts)
	for part := 1; part <= int(numParts); part++ {
		u, err := d.store.PresignUploadPart(ctx, bucket, key, uploadID, part, expiration)
		if err != nil {
			return nil, "", err
		}
		urls = append(urls, u)
	}

	complete, err := d.store.PresignCompleteMultipart(ctx, bucket, key, uploadID, expiration)
	if err != nil {
		return nil, "", err
	}

	return urls, complete, nil
}

// ClientPartSize returns the chunk size a client should read per part URL:
// ceil(fileSize / numParts). Documented here because the byte transfer
// itself happens outside this layer, against the issued URLs.
func ClientPartSize(fileSize int64, numParts int) int64 {
	if numParts <= 0 {
		return 0
	}
	n := int64(numParts)
	if fileSize%n == 0 {
		return fileSize / n
	}
	return fileSize/n + 1
}
