package objstore

import "time"

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket
	// (e.g. "resource/abc/def/0123456789").
	Key string

	// Size is the byte size of the object.
	Size int64

	// ContentType is the MIME type reported by the backend.
	ContentType string

	// ETag is the object's entity tag as returned by the backend. For
	// multipart objects this is the part-count-suffixed composite ETag.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time
}
