package archive

import (
	"context"

	"github.com/matzehuels/zap/pkg/errors"
)

// Outcome reports what Acquire had to do.
type Outcome struct {
	Downloaded bool // payload was fetched in this call
	Unpacked   bool // payload was extracted in this call
}

// Acquire makes the archive usable under a.Dir():
//
//  1. download unless the payload is already cached
//  2. verify the checksum; a mismatch is fatal and nothing is re-downloaded
//  3. unpack, unless this exact payload was already unpacked there
//
// A cached, valid payload skips step 1 entirely. Step 3 is skipped when the
// unpack marker in a.Dir() records this archive's digest, so a toolchain that
// is already extracted is not extracted again. A fresh download always
// unpacks and rewrites the marker.
func Acquire(ctx context.Context, a Archive, t Tools) (Outcome, error) {
	t = t.WithDefaults()
	dir := a.Dir()
	var out Outcome

	t.Logger.Debug("checking archive", "archive", a.name, "dir", dir)
	cached, err := a.IsCached(dir)
	if err != nil {
		return out, err
	}
	if !cached {
		if err := a.Download(ctx, t, dir); err != nil {
			return out, err
		}
		out.Downloaded = true
	} else {
		t.Logger.Debug("archive cached", "archive", a.name, "dir", dir)
	}

	t.Logger.Debug("verifying archive", "archive", a.name, "sha1", a.sha1)
	ok, err := a.Checksum(dir)
	if err != nil {
		return out, err
	}
	if !ok {
		return out, errors.New(errors.ErrCodeChecksumMismatch,
			"archive %s at %s does not match sha1 %s; remove it and retry", a.name, dir, a.sha1)
	}

	if !out.Downloaded && a.Unpacked(dir) {
		return out, nil
	}
	if err := a.Unpack(ctx, t, dir); err != nil {
		return out, err
	}
	out.Unpacked = true
	return out, a.markUnpacked(dir)
}
