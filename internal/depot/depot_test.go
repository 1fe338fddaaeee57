package depot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/aquastor/depot/internal/logger"
	"github.com/aquastor/depot/internal/objstore"
	"github.com/aquastor/depot/internal/objstore/memory"
)

func newTestDepot(store *memory.Store, opts ...Option) *Depot {
	cfg := objstore.DefaultConfig("store.local:9000", "testkey", "testsecret")
	return New(store, cfg, logger.Nop(), opts...)
}

// writeTempFile creates a file with the given content and returns its path.
func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "payload.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))
	return path
}

// fixedClock returns a clock pinned to the given unix second plus a setter
// to move it.
func fixedClock(unix int64) (func() time.Time, func(int64)) {
	current := unix
	return func() time.Time { return time.Unix(current, 0) },
		func(u int64) { current = u }
}

func TestObjectURL(t *testing.T) {
	d := newTestDepot(memory.New())
	require.Equal(t,
		"http://store.local:9000/depot-org/resource/abc/def/0123456789",
		d.ObjectURL("depot-org", "resource/abc/def/0123456789"))
}

func TestAvailable(t *testing.T) {
	d := newTestDepot(memory.New())
	require.True(t, d.Available())

	d = New(memory.New(), &objstore.Config{Endpoint: "store.local:9000"}, nil)
	require.False(t, d.Available())
}
