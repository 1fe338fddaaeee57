package depot

import (
	"context"
	"fmt"
	"os"

	"github.com/aquastor/depot/internal/errs"
)

// Upload transfers the local file at path to bucket/key and verifies the
// stored bytes before declaring success. It returns the object's public
// URL ({endpoint}/{bucket}/{key}).
//
// The bucket is provisioned lazily on first write. With override false, an
// existing object short-circuits the transfer entirely (idempotent
// re-upload) and the URL is still returned.
//
// sha256sum is the expected hex digest of the file; pass "" to have it
// computed from the local file. After the transfer the stored object is
// re-hashed with ranged reads and compared: a mismatch is an integrity
// error. The mismatching object is left in place and must be treated as
// untrusted.
//
// With private false the object is tagged public=true so the bucket policy
// exposes it to anonymous readers.
func (d *Depot) Upload(ctx context.Context, bucket, key, path, sha256sum string, private, override bool) (string, error) {
	if sha256sum == "" {
		var err error
		sha256sum, err = FileChecksum(path)
		if err != nil {
			return "", err
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", errs.Wrap(errs.ErrKindInvalidInput, "cannot stat local file", err)
	}

	if err := d.RequireBucket(ctx, bucket); err != nil {
		return "", err
	}

	perform := true
	if !override {
		perform = !d.ObjectExists(ctx, bucket, key)
	}

	if perform {
		if err := d.store.UploadFile(ctx, bucket, key, path); err != nil {
			return "", err
		}

		stored, err := d.ComputeChecksum(ctx, bucket, key, info.Size())
		if err != nil {
			return "", err
		}
		if stored != sha256sum {
			return "", errs.New(errs.ErrKindIntegrity, fmt.Sprintf(
				"checksum mismatch for %s/%s: stored %s, expected %s",
				bucket, key, stored, sha256sum))
		}

		if !private {
			if err := d.MakeObjectPublic(ctx, bucket, key, false); err != nil {
				return "", err
			}
		}

		d.log.With().Str("bucket", bucket).Str("key", key).Int64("size", info.Size()).Logger().
			Info("uploaded object")
	}

	return d.ObjectURL(bucket, key), nil
}
