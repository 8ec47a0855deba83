package archive

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/process"
)

const payload = "not really a tarball"

func digest(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// fakeTools simulates wget writing content and tar extracting a file.
func fakeTools(content string) (Tools, *process.Recorder) {
	rec := &process.Recorder{
		Func: func(ctx context.Context, cmd process.Command) (*process.Result, error) {
			switch cmd.Name {
			case "wget":
				return &process.Result{}, os.WriteFile(filepath.Join(cmd.Dir, cmd.Args[2]), []byte(content), 0o644)
			case "tar":
				return &process.Result{}, os.MkdirAll(filepath.Join(cmd.Dir, "otp", "bin"), 0o755)
			}
			return &process.Result{}, nil
		},
	}
	return Tools{Runner: rec, Logger: log.New(os.Stderr)}, rec
}

func testArchive(t *testing.T, sha string) Archive {
	t.Helper()
	return New(label.MustParse("//toolchains:erlang")).
		WithURL("https://example.com/otp.tar.gz").
		WithSHA1(sha).
		WithPrefix("otp").
		WithCacheRoot(t.TempDir())
}

func TestBuilderReturnsCopies(t *testing.T) {
	a := New(label.MustParse("//toolchains:erlang"))
	b := a.WithURL("https://example.com/x.tar.gz")

	if a.URL() != "" {
		t.Error("WithURL must not mutate the receiver")
	}
	if b.URL() != "https://example.com/x.tar.gz" {
		t.Errorf("URL() = %q", b.URL())
	}
	if b.Name() != a.Name() {
		t.Error("unrelated fields must be preserved")
	}
}

func TestDirLayout(t *testing.T) {
	a := New(label.MustParse("//toolchains:erlang")).WithCacheRoot("/cache").WithPrefix("otp-26")

	if a.Dir() != filepath.Join("/cache", "toolchains", "erlang") {
		t.Errorf("Dir() = %q", a.Dir())
	}
	if a.Root() != filepath.Join("/cache", "toolchains", "erlang", "otp-26") {
		t.Errorf("Root() = %q", a.Root())
	}
	if a.FileName() != "toolchain.tar.gz" {
		t.Errorf("FileName() = %q", a.FileName())
	}
}

func TestDirKeyedByFullLabel(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{"//a:otp", filepath.Join("/cache", "a", "otp")},
		{"//b:otp", filepath.Join("/cache", "b", "otp")},
		{"//tools/erlang:otp", filepath.Join("/cache", "tools", "erlang", "otp")},
		{"//:otp", filepath.Join("/cache", "otp")},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			a := New(label.MustParse(tt.label)).WithCacheRoot("/cache")
			if got := a.Dir(); got != tt.want {
				t.Errorf("Dir() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCached(t *testing.T) {
	a := testArchive(t, digest(payload))
	dir := a.Dir()

	cached, err := a.IsCached(dir)
	if err != nil || cached {
		t.Fatalf("IsCached() = %v, %v; want false", cached, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	if cached, _ := a.IsCached(dir); !cached {
		t.Error("IsCached() = false after writing payload")
	}
}

func TestChecksum(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, FileName), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}

	good := testArchive(t, digest(payload))
	if ok, err := good.Checksum(dir); err != nil || !ok {
		t.Errorf("Checksum() = %v, %v; want true", ok, err)
	}

	bad := testArchive(t, digest("tampered"))
	if ok, err := bad.Checksum(dir); err != nil || ok {
		t.Errorf("Checksum() = %v, %v; want false", ok, err)
	}

	if _, err := good.Checksum(t.TempDir()); !errors.Is(err, errors.ErrCodeIO) {
		t.Errorf("missing payload should be an IO error, got %v", err)
	}
}

func TestDownload(t *testing.T) {
	a := testArchive(t, digest(payload))
	tools, rec := fakeTools(payload)
	dir := filepath.Join(a.Dir(), "nested")

	if err := a.Download(context.Background(), tools, dir); err != nil {
		t.Fatalf("Download: %v", err)
	}

	cmds := rec.Commands()
	if len(cmds) != 1 {
		t.Fatalf("expected one command, got %d", len(cmds))
	}
	want := "wget https://example.com/otp.tar.gz -O toolchain.tar.gz"
	if cmds[0].String() != want {
		t.Errorf("command = %q, want %q", cmds[0].String(), want)
	}
	if cmds[0].Dir != dir {
		t.Errorf("Dir = %q, want %q", cmds[0].Dir, dir)
	}
}

func TestDownloadFailure(t *testing.T) {
	a := testArchive(t, digest(payload))
	rec := &process.Recorder{
		Func: func(ctx context.Context, cmd process.Command) (*process.Result, error) {
			res := &process.Result{ExitCode: 8, Stderr: []byte("404 Not Found")}
			return res, process.Failed(cmd, res)
		},
	}

	err := a.Download(context.Background(), Tools{Runner: rec}, a.Dir())
	if !errors.Is(err, errors.ErrCodeSubprocess) {
		t.Fatalf("expected SUBPROCESS_ERROR, got %v", err)
	}
	se, ok := errors.AsSubprocess(err)
	if !ok || string(se.Stderr) != "404 Not Found" {
		t.Errorf("captured output not surfaced: %+v", se)
	}
}

func TestAcquireFresh(t *testing.T) {
	a := testArchive(t, digest(payload))
	tools, rec := fakeTools(payload)

	out, err := Acquire(context.Background(), a, tools)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if !out.Downloaded || !out.Unpacked {
		t.Errorf("Outcome = %+v", out)
	}
	if rec.Count("wget") != 1 || rec.Count("tar") != 1 {
		t.Errorf("unexpected commands: %v", rec.Commands())
	}
	if !a.Unpacked(a.Dir()) {
		t.Error("Unpacked() should be true after Acquire")
	}
	if _, err := os.Stat(filepath.Join(a.Root(), "bin")); err != nil {
		t.Errorf("unpacked contents missing: %v", err)
	}
}

func TestAcquireChecksumMismatchRefusesUnpack(t *testing.T) {
	a := testArchive(t, digest(payload))
	tools, rec := fakeTools("tampered payload")

	_, err := Acquire(context.Background(), a, tools)
	if !errors.Is(err, errors.ErrCodeChecksumMismatch) {
		t.Fatalf("expected CHECKSUM_MISMATCH, got %v", err)
	}
	if rec.Count("tar") != 0 {
		t.Error("must not unpack a payload that failed verification")
	}
	if rec.Count("wget") != 1 {
		t.Error("must not re-download after a mismatch")
	}
}

func TestAcquireCacheHitSkipsDownload(t *testing.T) {
	a := testArchive(t, digest(payload))
	if err := os.MkdirAll(a.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(a.Dir(), FileName), []byte(payload), 0o644); err != nil {
		t.Fatal(err)
	}
	tools, rec := fakeTools(payload)

	out, err := Acquire(context.Background(), a, tools)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if out.Downloaded || rec.Count("wget") != 0 {
		t.Error("cached archive must not be downloaded again")
	}
	if !out.Unpacked || rec.Count("tar") != 1 {
		t.Error("cached archive must proceed to unpack")
	}

	// Second acquisition finds the unpack marker and does nothing.
	out, err = Acquire(context.Background(), a, tools)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if out.Unpacked || rec.Count("tar") != 1 {
		t.Errorf("already unpacked payload was extracted again: %+v", out)
	}
}

func TestAcquireLogsThroughToolsLogger(t *testing.T) {
	a := testArchive(t, digest(payload))
	tools, _ := fakeTools(payload)
	var buf bytes.Buffer
	tools.Logger = log.New(&buf)
	tools.Logger.SetLevel(log.DebugLevel)

	if _, err := Acquire(context.Background(), a, tools); err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	for _, want := range []string{"checking archive", "verifying archive", "unpacking toolchain"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("log missing %q:\n%s", want, buf.String())
		}
	}
}

func TestValidate(t *testing.T) {
	if err := testArchive(t, digest(payload)).Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := testArchive(t, "abc").Validate(); !errors.Is(err, errors.ErrCodeInvalidConfig) {
		t.Errorf("expected INVALID_CONFIG, got %v", err)
	}
	if err := New("").Validate(); err == nil {
		t.Error("archive without name should be invalid")
	}
}
