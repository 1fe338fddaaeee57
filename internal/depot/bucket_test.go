package depot

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastor/depot/internal/objstore/memory"
)

func TestRequireBucketProvisionsOnce(t *testing.T) {
	store := memory.New()
	d := newTestDepot(store)
	ctx := context.Background()

	require.NoError(t, d.RequireBucket(ctx, "depot-org"))
	assert.Equal(t, 1, store.PolicyWrites())

	created, err := store.BucketCreationDate(ctx, "depot-org")
	require.NoError(t, err)
	assert.False(t, created.IsZero())

	// Memoized: no further probes or policy writes.
	require.NoError(t, d.RequireBucket(ctx, "depot-org"))
	require.NoError(t, d.RequireBucket(ctx, "depot-org"))
	assert.Equal(t, 1, store.PolicyWrites())
}

func TestRequireBucketAfterCacheClear(t *testing.T) {
	store := memory.New()
	d := newTestDepot(store)
	ctx := context.Background()

	require.NoError(t, d.RequireBucket(ctx, "depot-org"))
	d.ClearBucketCache()

	// The bucket now exists, so re-provisioning probes it but leaves the
	// policy alone.
	require.NoError(t, d.RequireBucket(ctx, "depot-org"))
	assert.Equal(t, 1, store.PolicyWrites())
}

func TestRequireBucketExistingBucketKeepsPolicy(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.MakeBucket(ctx, "depot-org"))
	require.NoError(t, store.SetBucketPolicy(ctx, "depot-org", `{"custom":true}`))

	d := newTestDepot(store)
	require.NoError(t, d.RequireBucket(ctx, "depot-org"))

	policy, err := store.GetBucketPolicy(ctx, "depot-org")
	require.NoError(t, err)
	assert.Equal(t, `{"custom":true}`, policy)
}

func TestPublicReadPolicyDocument(t *testing.T) {
	raw := publicReadPolicy("depot-org")

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "2012-10-17", doc["Version"])

	statements := doc["Statement"].([]any)
	require.Len(t, statements, 1)
	stmt := statements[0].(map[string]any)

	assert.Equal(t, "Allow", stmt["Effect"])
	assert.Equal(t, "*", stmt["Principal"])
	assert.Equal(t, []any{"s3:GetObject"}, stmt["Action"])
	assert.Equal(t, []any{"arn:aws:s3:::depot-org/*"}, stmt["Resource"])

	cond := stmt["Condition"].(map[string]any)["StringEquals"].(map[string]any)
	assert.Equal(t, []any{"true"}, cond["s3:ExistingObjectTag/public"])
}
