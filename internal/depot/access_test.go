package depot

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/logger"
	"github.com/aquastor/depot/internal/objstore/memory"
)

func TestObjectExists(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "present", []byte("x"))
	d := newTestDepot(store)
	ctx := context.Background()

	assert.True(t, d.ObjectExists(ctx, "b", "present"))
	assert.False(t, d.ObjectExists(ctx, "b", "absent"))
	assert.False(t, d.ObjectExists(ctx, "no-such-bucket", "present"))
}

func TestMakeObjectPublic(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "k", []byte("x"))
	d := newTestDepot(store)
	ctx := context.Background()

	require.NoError(t, d.MakeObjectPublic(ctx, "b", "k", false))
	assert.Equal(t, "true", store.ObjectTags("b", "k")["public"])

	// Idempotent on an already-public object.
	require.NoError(t, d.MakeObjectPublic(ctx, "b", "k", false))
	assert.Equal(t, "true", store.ObjectTags("b", "k")["public"])
}

func TestMakeObjectPublicKeepsExistingTags(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "k", []byte("x"))
	ctx := context.Background()
	require.NoError(t, store.SetObjectTags(ctx, "b", "k", map[string]string{"origin": "import"}))

	d := newTestDepot(store)
	require.NoError(t, d.MakeObjectPublic(ctx, "b", "k", false))

	tags := store.ObjectTags("b", "k")
	assert.Equal(t, "true", tags["public"])
	assert.Equal(t, "import", tags["origin"])
}

func TestMakeObjectPublicMissing(t *testing.T) {
	d := newTestDepot(memory.New())
	ctx := context.Background()

	// missingOK tolerates the absent object as a no-op.
	require.NoError(t, d.MakeObjectPublic(ctx, "b", "absent", true))

	err := d.MakeObjectPublic(ctx, "b", "absent", false)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestMakeObjectPublicRetriesTransientFailures(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "k", []byte("x"))
	d := newTestDepot(store)
	ctx := context.Background()

	// Two transient failures, then success within the retry budget.
	store.FailSetObjectTags(2)
	require.NoError(t, d.MakeObjectPublic(ctx, "b", "k", false))
	assert.Equal(t, "true", store.ObjectTags("b", "k")["public"])
}

func TestMakeObjectPublicExhaustsRetries(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "k", []byte("x"))
	d := newTestDepot(store)
	ctx := context.Background()

	store.FailSetObjectTags(tagRetryAttempts)
	err := d.MakeObjectPublic(ctx, "b", "k", false)
	require.Error(t, err)
	assert.True(t, errs.IsConnectionFailed(err))
	assert.Empty(t, store.ObjectTags("b", "k")["public"])
}

func TestRetryDoesNotRetryPermissionFailures(t *testing.T) {
	calls := 0
	err := retry(5, logger.Nop(), func() error {
		calls++
		return errs.New(errs.ErrKindPermissionDenied, "signature mismatch")
	})
	require.Error(t, err)
	assert.True(t, errs.IsPermissionDenied(err))
	assert.Equal(t, 1, calls)
}
