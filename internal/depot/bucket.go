package depot

import (
	"context"
	"encoding/json"

	"github.com/aquastor/depot/internal/errs"
)

// bucketPolicy is the access policy applied to every provisioned bucket:
// anonymous GetObject, but only on objects carrying the tag public=true.
// Everything else stays reachable through credentials or presigned URLs.
type bucketPolicy struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

type policyStatement struct {
	Sid       string         `json:"Sid"`
	Effect    string         `json:"Effect"`
	Principal string         `json:"Principal"`
	Action    []string       `json:"Action"`
	Resource  []string       `json:"Resource"`
	Condition map[string]any `json:"Condition"`
}

// publicReadPolicy renders the tag-conditioned anonymous-read policy
// document for the named bucket.
func publicReadPolicy(bucket string) string {
	doc := bucketPolicy{
		Version: "2012-10-17",
		Statement: []policyStatement{{
			Sid:       "Allow anonymous access to objects with public:true tag",
			Effect:    "Allow",
			Principal: "*",
			Action:    []string{"s3:GetObject"},
			Resource:  []string{"arn:aws:s3:::" + bucket + "/*"},
			Condition: map[string]any{
				"StringEquals": map[string]any{
					"s3:ExistingObjectTag/public": []string{"true"},
				},
			},
		}},
	}
	out, _ := json.Marshal(doc)
	return string(out)
}

// RequireBucket idempotently ensures the named bucket exists and carries
// the public-read-if-tagged policy. The result is memoized for the process
// lifetime; ClearBucketCache forces re-provisioning.
//
// Absence is detected through the creation-date probe: a zero creation
// date means no bucket, and backends that error on the probe instead
// (Swift does) are treated the same way. A creation race with another
// writer is non-fatal; the policy is re-applied regardless, which heals
// buckets whose policy was never set.
func (d *Depot) RequireBucket(ctx context.Context, bucket string) error {
	d.bucketMu.Lock()
	if _, ok := d.buckets[bucket]; ok {
		d.bucketMu.Unlock()
		return nil
	}
	d.bucketMu.Unlock()

	created, err := d.store.BucketCreationDate(ctx, bucket)
	if err != nil {
		d.log.Debugf("creation date probe for bucket %s failed, assuming absent: %v", bucket, err)
	}
	if err != nil || created.IsZero() {
		if mkErr := d.store.MakeBucket(ctx, bucket); mkErr != nil {
			if !errs.IsAlreadyExists(mkErr) {
				return mkErr
			}
			d.log.Warnf("bucket %s already exists, proceeding anyway", bucket)
		}
		if err := d.store.SetBucketPolicy(ctx, bucket, publicReadPolicy(bucket)); err != nil {
			return err
		}
	}

	d.bucketMu.Lock()
	d.buckets[bucket] = struct{}{}
	d.bucketMu.Unlock()
	return nil
}

// ClearBucketCache drops the provisioning memo so the next RequireBucket
// call probes the store again.
func (d *Depot) ClearBucketCache() {
	d.bucketMu.Lock()
	d.buckets = make(map[string]struct{})
	d.bucketMu.Unlock()
}
