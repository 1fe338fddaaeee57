package depot

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquastor/depot/internal/errs"
	"github.com/aquastor/depot/internal/objstore/memory"
)

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{"small object", 12},
		{"exactly one window", checksumWindow},
		{"spans several windows", 2*checksumWindow + checksumWindow/2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]byte, tt.size)
			_, err := rand.New(rand.NewSource(42)).Read(data)
			require.NoError(t, err)

			store := memory.New()
			store.PutObject("b", "k", data)
			d := newTestDepot(store)

			want := sha256.Sum256(data)
			got, err := d.ComputeChecksum(context.Background(), "b", "k", int64(len(data)))
			require.NoError(t, err)
			assert.Equal(t, hex.EncodeToString(want[:]), got)
		})
	}
}

func TestComputeChecksumStatsWhenSizeUnknown(t *testing.T) {
	data := bytes.Repeat([]byte("depot"), 100)
	store := memory.New()
	store.PutObject("b", "k", data)
	d := newTestDepot(store)

	want := sha256.Sum256(data)
	got, err := d.ComputeChecksum(context.Background(), "b", "k", 0)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)
}

// A stored object shorter than the claimed size must never hash cleanly:
// a truncated download silently producing a consistent digest would
// defeat the verification step.
func TestComputeChecksumShortRead(t *testing.T) {
	store := memory.New()
	store.PutObject("b", "k", []byte("only ten b"))
	d := newTestDepot(store)

	_, err := d.ComputeChecksum(context.Background(), "b", "k", 2*checksumWindow)
	require.Error(t, err)
	assert.True(t, errs.IsIntegrity(err))
}

func TestComputeChecksumMissingObject(t *testing.T) {
	d := newTestDepot(memory.New())

	_, err := d.ComputeChecksum(context.Background(), "b", "missing", 0)
	require.Error(t, err)
	assert.True(t, errs.IsNotFound(err))
}

func TestFileChecksum(t *testing.T) {
	content := []byte("local file content")
	path := writeTempFile(t, content)

	want := sha256.Sum256(content)
	got, err := FileChecksum(path)
	require.NoError(t, err)
	assert.Equal(t, hex.EncodeToString(want[:]), got)

	_, err = FileChecksum(path + ".absent")
	assert.Error(t, err)
}
