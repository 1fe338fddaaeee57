// Package artifact maps opaque resource identifiers onto (bucket, key)
// pairs and exposes the access layer's operations at resource granularity.
//
// Every resource owns up to three byte payloads ("artifacts"): the primary
// resource bytes, a condensed representation, and a preview image. All
// three live under deterministic keys derived from the resource ID; the
// bucket is owned by the resource's organization and resolved through one
// memoized catalog lookup.
package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquastor/depot/internal/catalog"
	"github.com/aquastor/depot/internal/depot"
	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/logger"
)

// Kind is one of the three byte-payload kinds associated with a resource.
type Kind string

const (
	KindResource  Kind = "resource"
	KindCondensed Kind = "condensed"
	KindPreview   Kind = "preview"
)

// Kinds lists all artifact kinds.
var Kinds = []Kind{KindResource, KindCondensed, KindPreview}

// ParseKind validates a kind string. An empty string means KindResource.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case "":
		return KindResource, nil
	case KindResource, KindCondensed, KindPreview:
		return Kind(s), nil
	}
	return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("unknown artifact kind %q", s))
}

// ObjectKey derives the object key for an artifact of a resource:
// {kind}/{id[0:3]}/{id[3:6]}/{id[6:]}. The three-level sharding keeps any
// single key prefix from accumulating too many direct children, and other
// systems depend on this exact layout; changing the split widths is a
// breaking change.
func ObjectKey(resourceID string, kind Kind) (string, error) {
	if len(resourceID) < 7 {
		return "", errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("resource ID %q too short", resourceID))
	}
	return string(kind) + "/" + resourceID[:3] + "/" + resourceID[3:6] + "/" + resourceID[6:], nil
}

// bucketCacheSize bounds the resource→bucket memo.
const bucketCacheSize = 100

// Resolver resolves resource IDs to storage locations and runs the access
// layer's operations against them. Safe for concurrent use.
type Resolver struct {
	depot    *depot.Depot
	catalog  catalog.Catalog
	template string
	log      *logger.Logger
	buckets  *lruCache
}

// NewResolver returns a Resolver deriving bucket names from
// bucketTemplate, which must contain the "{organization_id}" token.
func NewResolver(d *depot.Depot, cat catalog.Catalog, bucketTemplate string, log *logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		depot:    d,
		catalog:  cat,
		template: bucketTemplate,
		log:      log,
		buckets:  newLRUCache(bucketCacheSize),
	}
}

// BucketName returns the bucket a resource belongs to, derived from the
// owning organization. The catalog lookup runs once per resource ID and is
// cached; an organization never changes after resource creation.
func (r *Resolver) BucketName(ctx context.Context, resourceID string) (string, error) {
	if bucket, ok := r.buckets.Get(resourceID); ok {
		return bucket, nil
	}

	res, err := r.catalog.ResourceShow(ctx, resourceID)
	if err != nil {
		return "", err
	}
	pkg, err := r.catalog.PackageShow(ctx, res.PackageID)
	if err != nil {
		return "", err
	}

	bucket := strings.ReplaceAll(r.template, "{organization_id}", pkg.OrganizationID)
	r.buckets.Add(resourceID, bucket)
	return bucket, nil
}

// ClearBucketNameCache drops the resource→bucket memo.
func (r *Resolver) ClearBucketNameCache() {
	r.buckets.Clear()
}

// BucketAndKey resolves the storage location of one artifact of a resource.
func (r *Resolver) BucketAndKey(ctx context.Context, resourceID string, kind Kind) (string, string, error) {
	key, err := ObjectKey(resourceID, kind)
	if err != nil {
		return "", "", err
	}
	bucket, err := r.BucketName(ctx, resourceID)
	if err != nil {
		return "", "", err
	}
	return bucket, key, nil
}

// Exists reports whether an artifact is present in the store.
func (r *Resolver) Exists(ctx context.Context, resourceID string, kind Kind) (bool, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
	if err != nil {
		return false, err
	}
	return r.depot.ObjectExists(ctx, bucket, key), nil
}

// ComputeChecksum returns the SHA-256 digest of the resource's primary
// artifact, streamed from the store.
func (r *Resolver) ComputeChecksum(ctx context.Context, resourceID string) (string, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, KindResource)
	if err != nil {
		return "", err
	}
	return r.depot.ComputeChecksum(ctx, bucket, key, 0)
}

// PresignedURL issues a time-bounded read URL for an artifact.
func (r *Resolver) PresignedURL(ctx context.Context, resourceID string, kind Kind, expiration time.Duration, filename string) (string, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
	if err != nil {
		return "", err
	}
	return r.depot.PresignedGetURL(ctx, bucket, key, expiration, filename)
}

// PresignedUploadURLs issues write URLs for a direct client upload of an
// artifact of the announced size.
func (r *Resolver) PresignedUploadURLs(ctx context.Context, resourceID string, kind Kind, fileSize int64, expiration time.Duration) ([]string, string, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
	if err != nil {
		return nil, "", err
	}
	return r.depot.PresignedUploadURLs(ctx, bucket, key, fileSize, expiration)
}

// ArtifactURL returns the deterministic public URL of an artifact.
func (r *Resolver) ArtifactURL(ctx context.Context, resourceID string, kind Kind) (string, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
	if err != nil {
		return "", err
	}
	return r.depot.ObjectURL(bucket, key), nil
}

// MakeResourcePublic tags all artifacts of a resource public. Missing
// artifacts are tolerated: not every resource has a condensed or preview
// form.
func (r *Resolver) MakeResourcePublic(ctx context.Context, resourceID string) error {
	for _, kind := range Kinds {
		bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
		if err != nil {
			return err
		}
		if err := r.depot.MakeObjectPublic(ctx, bucket, key, true); err != nil {
			return err
		}
	}
	return nil
}

// Upload transfers a local file as one artifact of a resource and returns
// the object URL. sha256sum may be empty (computed from the file).
//
// private selects the object's visibility; pass nil to have the owning
// dataset's privacy flag looked up in the catalog.
func (r *Resolver) Upload(ctx context.Context, resourceID, path string, kind Kind, sha256sum string, private *bool, override bool) (string, error) {
	bucket, key, err := r.BucketAndKey(ctx, resourceID, kind)
	if err != nil {
		return "", err
	}

	isPrivate := true
	if private != nil {
		isPrivate = *private
	} else {
		res, err := r.catalog.ResourceShow(ctx, resourceID)
		if err != nil {
			return "", err
		}
		pkg, err := r.catalog.PackageShow(ctx, res.PackageID)
		if err != nil {
			return "", err
		}
		isPrivate = pkg.Private
	}

	return r.depot.Upload(ctx, bucket, key, path, sha256sum, isPrivate, override)
}
