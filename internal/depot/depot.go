// Package depot implements the client-side access layer around an
// S3-compatible object store: checksum-verified uploads, lazy bucket
// provisioning with a tag-based public-read policy, public/private object
// tagging, and cached presigned URLs.
//
// A Depot is a synchronous library object. It holds no state other than
// two process-lifetime memo caches (provisioned buckets, issued URLs) and
// is safe for concurrent use by multiple goroutines; no lock is held
// across a network call.
package depot

import (
	"sync"
	"time"

	"github.com/aquastor/depot/internal/logger"
	"github.com/aquastor/depot/internal/objstore"
)

// Depot drives an objstore.Store with the access policies of this layer.
type Depot struct {
	store objstore.Store
	cfg   *objstore.Config
	log   *logger.Logger
	now   func() time.Time

	bucketMu sync.Mutex
	buckets  map[string]struct{}

	urlMu sync.Mutex
	urls  map[urlCacheKey]string
}

// Option configures a Depot at construction time.
type Option func(*Depot)

// WithClock replaces the wall-clock source. Tests use this to pin the
// presigned-URL quantization windows.
func WithClock(now func() time.Time) Option {
	return func(d *Depot) { d.now = now }
}

// New returns a Depot operating against store. A nil log discards output.
func New(store objstore.Store, cfg *objstore.Config, log *logger.Logger, opts ...Option) *Depot {
	if log == nil {
		log = logger.Nop()
	}
	d := &Depot{
		store:   store,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		buckets: make(map[string]struct{}),
		urls:    make(map[urlCacheKey]string),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Available reports whether store credentials are configured. Hosts check
// this once instead of letting calls fail deep inside a request.
func (d *Depot) Available() bool {
	return d.cfg.Available()
}

// ObjectURL returns the deterministic public URL of an object,
// {endpoint}/{bucket}/{key}. Whether the URL is reachable without
// credentials depends on the object's public tag.
func (d *Depot) ObjectURL(bucket, key string) string {
	return d.cfg.EndpointURL() + "/" + bucket + "/" + key
}
