package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastor/depot/internal/catalog"
	"github.com/aquastor/depot/internal/depot"
	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/logger"
	"github.com/aquastor/depot/internal/objstore"
	"github.com/aquastor/depot/internal/objstore/memory"
)

// fakeCatalog is an in-memory registry that counts lookups so tests can
// prove the bucket-name memoization.
type fakeCatalog struct {
	resources     map[string]*catalog.Resource
	packages      map[string]*catalog.Package
	resourceCalls int
}

func (f *fakeCatalog) Ping(ctx context.Context) error { return nil }
func (f *fakeCatalog) Close()                         {}

func (f *fakeCatalog) ResourceShow(ctx context.Context, id string) (*catalog.Resource, error) {
	f.resourceCalls++
	res, ok := f.resources[id]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such resource")
	}
	return res, nil
}

func (f *fakeCatalog) PackageShow(ctx context.Context, id string) (*catalog.Package, error) {
	pkg, ok := f.packages[id]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such package")
	}
	return pkg, nil
}

const testResourceID = "abcdef0123456789"

func newTestResolver(store *memory.Store, private bool) (*Resolver, *fakeCatalog) {
	cfg := objstore.DefaultConfig("store.local:9000", "testkey", "testsecret")
	d := depot.New(store, cfg, logger.Nop())
	cat := &fakeCatalog{
		resources: map[string]*catalog.Resource{
			testResourceID: {ID: testResourceID, PackageID: "pkg-1"},
		},
		packages: map[string]*catalog.Package{
			"pkg-1": {ID: "pkg-1", OrganizationID: "org-1", Private: private},
		},
	}
	return NewResolver(d, cat, cfg.BucketTemplate, logger.Nop()), cat
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		id   string
		kind Kind
		want string
	}{
		{"abcdef0123456789", KindPreview, "preview/abc/def/0123456789"},
		{"abcdef0123456789", KindResource, "resource/abc/def/0123456789"},
		{"abcdef0123456789", KindCondensed, "condensed/abc/def/0123456789"},
		{"abcdefg", KindResource, "resource/abc/def/g"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_%s", tt.kind, tt.id), func(t *testing.T) {
			got, err := ObjectKey(tt.id, tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestObjectKeyTooShort(t *testing.T) {
	_, err := ObjectKey("abcdef", KindResource)
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestParseKind(t *testing.T) {
	kind, err := ParseKind("")
	require.NoError(t, err)
	assert.Equal(t, KindResource, kind)

	kind, err = ParseKind("condensed")
	require.NoError(t, err)
	assert.Equal(t, KindCondensed, kind)

	_, err = ParseKind("thumbnail")
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
}

func TestBucketNameMemoized(t *testing.T) {
	r, cat := newTestResolver(memory.New(), false)
	ctx := context.Background()

	bucket, err := r.BucketName(ctx, testResourceID)
	require.NoError(t, err)
	assert.Equal(t, "depot-org-1", bucket)
	assert.Equal(t, 1, cat.resourceCalls)

	// Second resolution hits the cache.
	_, err = r.BucketName(ctx, testResourceID)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.resourceCalls)

	r.ClearBucketNameCache()
	_, err = r.BucketName(ctx, testResourceID)
	require.NoError(t, err)
	assert.Equal(t, 2, cat.resourceCalls)
}

func TestBucketNameUnknownResource(t *testing.T) {
	r, _ := newTestResolver(memory.New(), false)

	_, err := r.BucketName(context.Background(), "ffffff0000000000")
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestUploadAndExists(t *testing.T) {
	store := memory.New()
	r, _ := newTestResolver(store, true)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("artifact bytes"), 0o600))

	url, err := r.Upload(ctx, testResourceID, path, KindResource, "", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "http://store.local:9000/depot-org-1/resource/abc/def/0123456789", url)

	exists, err := r.Exists(ctx, testResourceID, KindResource)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = r.Exists(ctx, testResourceID, KindPreview)
	require.NoError(t, err)
	assert.False(t, exists)

	// The dataset is private, so the object stays untagged.
	assert.Empty(t, store.ObjectTags("depot-org-1", "resource/abc/def/0123456789")["public"])
}

func TestUploadPrivacyFromCatalog(t *testing.T) {
	store := memory.New()
	r, _ := newTestResolver(store, false) // public dataset
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("open artifact"), 0o600))

	_, err := r.Upload(ctx, testResourceID, path, KindResource, "", nil, false)
	require.NoError(t, err)
	assert.Equal(t, "true", store.ObjectTags("depot-org-1", "resource/abc/def/0123456789")["public"])
}

func TestUploadExplicitPrivacyWins(t *testing.T) {
	store := memory.New()
	r, cat := newTestResolver(store, false) // catalog says public
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, os.WriteFile(path, []byte("held back"), 0o600))

	private := true
	lookupsBefore := cat.resourceCalls
	_, err := r.Upload(ctx, testResourceID, path, KindResource, "", &private, false)
	require.NoError(t, err)

	// No extra privacy lookup beyond the bucket resolution.
	assert.Equal(t, lookupsBefore+1, cat.resourceCalls)
	assert.Empty(t, store.ObjectTags("depot-org-1", "resource/abc/def/0123456789")["public"])
}

func TestMakeResourcePublicToleratesMissingArtifacts(t *testing.T) {
	store := memory.New()
	r, _ := newTestResolver(store, true)
	ctx := context.Background()

	// Only the primary artifact exists; condensed and preview are absent.
	store.PutObject("depot-org-1", "resource/abc/def/0123456789", []byte("x"))

	require.NoError(t, r.MakeResourcePublic(ctx, testResourceID))
	assert.Equal(t, "true", store.ObjectTags("depot-org-1", "resource/abc/def/0123456789")["public"])
}

func TestComputeChecksumAndPresign(t *testing.T) {
	store := memory.New()
	r, _ := newTestResolver(store, true)
	ctx := context.Background()

	store.PutObject("depot-org-1", "resource/abc/def/0123456789", []byte("payload"))

	sum, err := r.ComputeChecksum(ctx, testResourceID)
	require.NoError(t, err)
	assert.Len(t, sum, 64)

	u, err := r.PresignedURL(ctx, testResourceID, KindResource, 0, "payload.bin")
	require.NoError(t, err)
	assert.Contains(t, u, "resource/abc/def/0123456789")

	direct, err := r.ArtifactURL(ctx, testResourceID, KindResource)
	require.NoError(t, err)
	assert.Equal(t, "http://store.local:9000/depot-org-1/resource/abc/def/0123456789", direct)
}
