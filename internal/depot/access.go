package depot

import (
	"context"

	"github.com/aquastor/depot/internal/errs"
)

const (
	publicTagKey   = "public"
	publicTagValue = "true"

	// tagRetryAttempts bounds the retries of the tag-update call.
	tagRetryAttempts = 5
)

// ObjectExists probes for the object with a metadata call. Any error,
// not-found or otherwise, classifies as absent; existence probes never
// propagate errors.
func (d *Depot) ObjectExists(ctx context.Context, bucket, key string) bool {
	_, err := d.store.StatObject(ctx, bucket, key)
	return err == nil
}

// MakeObjectPublic tags the object public=true so the bucket policy set by
// RequireBucket exposes it to anonymous readers. Already-public objects
// are left untouched. There is no inverse operation.
//
// When the object does not exist, missingOK selects between a silent no-op
// and a not-found error. Transient store failures during the tag update
// are retried a bounded number of times; permission failures are not.
func (d *Depot) MakeObjectPublic(ctx context.Context, bucket, key string, missingOK bool) error {
	current, err := d.store.GetObjectTags(ctx, bucket, key)
	if err != nil {
		if errs.IsNotFound(err) && missingOK {
			return nil
		}
		return err
	}
	if current[publicTagKey] == publicTagValue {
		return nil
	}

	updated := make(map[string]string, len(current)+1)
	for k, v := range current {
		updated[k] = v
	}
	updated[publicTagKey] = publicTagValue

	return retry(tagRetryAttempts, d.log, func() error {
		return d.store.SetObjectTags(ctx, bucket, key, updated)
	})
}
