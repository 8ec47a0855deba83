// Package archive describes downloadable toolchain payloads and the
// primitive operations that materialize them on disk.
//
// An [Archive] moves through the states
//
//	Absent → Downloaded → Verified → Unpacked
//
// using [Archive.IsCached], [Archive.Download], [Archive.Checksum] and
// [Archive.Unpack]. The primitives do not enforce call ordering; [Acquire]
// composes them into the only sanctioned flow:
//
//	if not cached → download → verify (fail hard on mismatch) → unpack
//
// Downloads and extraction are delegated to external tools (wget and tar by
// default) through a [process.Runner].
package archive

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/process"
)

const (
	// FileName is the fixed name of a downloaded payload inside its cache directory.
	FileName = "toolchain.tar.gz"

	// markerName records the digest of the last payload unpacked into a directory.
	markerName = ".unpacked"

	DefaultFetchTool   = "wget"
	DefaultExtractTool = "tar"
)

// Archive is an immutable description of a downloadable payload.
// The With* methods return modified copies.
type Archive struct {
	name      label.Label
	url       string
	sha1      string
	prefix    string
	cacheRoot string
}

// New creates an archive description for the toolchain with the given label.
func New(name label.Label) Archive {
	return Archive{name: name}
}

func (a Archive) Name() label.Label { return a.name }
func (a Archive) URL() string       { return a.url }
func (a Archive) SHA1() string      { return a.sha1 }
func (a Archive) Prefix() string    { return a.prefix }
func (a Archive) CacheRoot() string { return a.cacheRoot }

// FileName returns the fixed payload file name.
func (a Archive) FileName() string { return FileName }

func (a Archive) WithName(name label.Label) Archive {
	a.name = name
	return a
}

func (a Archive) WithURL(url string) Archive {
	a.url = url
	return a
}

func (a Archive) WithSHA1(sha1 string) Archive {
	a.sha1 = sha1
	return a
}

func (a Archive) WithPrefix(prefix string) Archive {
	a.prefix = prefix
	return a
}

func (a Archive) WithCacheRoot(root string) Archive {
	a.cacheRoot = root
	return a
}

// Dir is the cache directory for this archive:
// <cache_root>/<toolchain_package>/<toolchain_name>. Toolchains sharing a
// name in different packages get separate directories.
func (a Archive) Dir() string {
	return filepath.Join(a.cacheRoot, filepath.FromSlash(a.name.Package()), a.name.Name())
}

// Root is the directory the unpacked payload lives under, governed by Prefix.
func (a Archive) Root() string {
	return filepath.Join(a.Dir(), a.prefix)
}

// Validate checks that the archive can be acquired.
func (a Archive) Validate() error {
	if a.name.IsZero() {
		return errors.New(errors.ErrCodeInvalidConfig, "archive has no name")
	}
	if err := errors.ValidateURL(a.url); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "archive %s", a.name)
	}
	if err := errors.ValidateSHA1(a.sha1); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "archive %s", a.name)
	}
	return nil
}

// IsCached reports whether the payload file exists in dir. It does not look
// at the contents.
func (a Archive) IsCached(dir string) (bool, error) {
	path := filepath.Join(dir, a.FileName())
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(errors.ErrCodeIO, err, "stat %s", path)
}

// Checksum reads the payload in dir and reports whether its SHA-1 digest
// equals the declared one. The file must exist: a missing file is an I/O
// error, not a cache miss.
func (a Archive) Checksum(dir string) (bool, error) {
	path := filepath.Join(dir, a.FileName())

	f, err := os.Open(path)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "expected %s to be readable; was it changed since the build started?", path)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return false, errors.Wrap(errors.ErrCodeIO, err, "read %s", path)
	}
	return hex.EncodeToString(h.Sum(nil)) == a.sha1, nil
}

// Download creates dir if needed and fetches the payload into it with the
// external fetch tool: <fetch> <url> -O toolchain.tar.gz.
func (a Archive) Download(ctx context.Context, t Tools, dir string) error {
	t = t.WithDefaults()
	t.Logger.Info("downloading toolchain", "url", a.url, "dir", dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create toolchain root %s", dir)
	}

	_, err := t.Runner.Run(ctx, process.Command{
		Name:    t.Fetch,
		Args:    []string{a.url, "-O", a.FileName()},
		Dir:     dir,
		Timeout: t.Timeout,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeSubprocess, err, "download %s", a.name)
	}
	return nil
}

// Unpack extracts the payload found in dir into dir with the external
// extraction tool: <extract> xzf toolchain.tar.gz.
func (a Archive) Unpack(ctx context.Context, t Tools, dir string) error {
	t = t.WithDefaults()
	t.Logger.Debug("unpacking toolchain", "archive", a.name, "dir", dir)

	_, err := t.Runner.Run(ctx, process.Command{
		Name:    t.Extract,
		Args:    []string{"xzf", a.FileName()},
		Dir:     dir,
		Timeout: t.Timeout,
	})
	if err != nil {
		return errors.Wrap(errors.ErrCodeSubprocess, err, "unpack %s", a.name)
	}
	return nil
}

// Unpacked reports whether dir holds an extraction of exactly this payload.
func (a Archive) Unpacked(dir string) bool {
	data, err := os.ReadFile(filepath.Join(dir, markerName))
	return err == nil && string(data) == a.sha1
}

func (a Archive) markUnpacked(dir string) error {
	if err := os.WriteFile(filepath.Join(dir, markerName), []byte(a.sha1), 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "write unpack marker in %s", dir)
	}
	return nil
}

// Tools configures the external programs used by Download and Unpack.
type Tools struct {
	Runner  process.Runner
	Fetch   string        // fetch tool, default wget
	Extract string        // extraction tool, default tar
	Timeout time.Duration // per invocation; 0 leaves download and unpack unbounded
	Logger  *log.Logger
}

// WithDefaults returns a copy of Tools with zero values replaced by defaults.
func (t Tools) WithDefaults() Tools {
	if t.Runner == nil {
		t.Runner = process.NewLocal()
	}
	if t.Fetch == "" {
		t.Fetch = DefaultFetchTool
	}
	if t.Extract == "" {
		t.Extract = DefaultExtractTool
	}
	if t.Logger == nil {
		t.Logger = log.Default()
	}
	return t
}
