package depot

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/aquastor/depot/internal/errs"
)

// checksumWindow is the ranged-read increment used when hashing a stored
// object. 1 MiB keeps memory bounded regardless of object size.
const checksumWindow = 1 << 20

// ComputeChecksum streams the object at bucket/key through SHA-256 in
// checksumWindow-sized ranged reads and returns the hex digest. The full
// object is never held in memory.
//
// maxSize is the number of bytes expected in the object; pass 0 (or any
// non-positive value) to look it up with a stat call first. A ranged read
// that comes back empty before maxSize bytes were consumed means the
// object is shorter than claimed; that is reported as an integrity error
// rather than silently hashing a truncated object.
func (d *Depot) ComputeChecksum(ctx context.Context, bucket, key string, maxSize int64) (string, error) {
	if maxSize <= 0 {
		info, err := d.store.StatObject(ctx, bucket, key)
		if err != nil {
			return "", err
		}
		maxSize = info.Size
	}

	hasher := sha256.New()
	var start int64
	stop := min(int64(checksumWindow), maxSize)
	// Ranges are inclusive on both ends: the next window starts at
	// stop+1 and the final window's stop is clamped to maxSize.
	for start < maxSize {
		data, err := d.store.GetObjectRange(ctx, bucket, key, start, stop)
		if err != nil {
			return "", err
		}
		if len(data) == 0 {
			return "", errs.New(errs.ErrKindIntegrity, fmt.Sprintf(
				"short read hashing %s/%s: empty range at byte %d of %d",
				bucket, key, start, maxSize))
		}
		hasher.Write(data)
		start = stop + 1
		stop = min(maxSize, stop+checksumWindow)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FileChecksum returns the hex SHA-256 digest of a local file, streamed.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "cannot open local file", err)
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "cannot read local file", err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
