// Package workspace discovers and loads a zap workspace: the workspace.toml
// configuration at its root and the BUILD.hcl rule scripts beneath it.
//
// A workspace looks like:
//
//	workspace.toml
//	toolchains/BUILD.hcl   toolchain "erlang" { ... archive { ... } }
//	lib/BUILD.hcl          library "util" { sources = glob("*.erl") }
//	app/BUILD.hcl          binary "hello" { deps = ["//lib:util"] }
//
// [Load] parses every BUILD.hcl concurrently, registers archives and then
// toolchains into a [toolchain.Manager], and returns the rule set that
// [build.NewContext] consumes.
package workspace

import (
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
)

const (
	// ConfigFile marks the workspace root.
	ConfigFile = "workspace.toml"
	// BuildFile is the rule script looked for in every package directory.
	BuildFile = "BUILD.hcl"

	DefaultOutputDir = "_build"
)

// Config is the decoded workspace.toml.
type Config struct {
	Name      string `toml:"name"`
	Toolchain string `toml:"toolchain"`
	OutputDir string `toml:"output_dir"`
	CacheDir  string `toml:"cache_dir"`
	Jobs      int    `toml:"jobs"`
	Tools     Tools  `toml:"tools"`
}

// Tools configures the external fetch and extraction programs.
type Tools struct {
	Fetch        string   `toml:"fetch"`
	Extract      string   `toml:"extract"`
	Timeout      Duration `toml:"timeout"`
	FetchWorkers int      `toml:"fetch_workers"`
}

// Duration is a time.Duration written as a Go duration string ("10m").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "invalid duration %q", text)
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// WithDefaults returns a copy of Config with zero values replaced by defaults.
func (c Config) WithDefaults() Config {
	if c.OutputDir == "" {
		c.OutputDir = DefaultOutputDir
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir()
	}
	if c.Jobs <= 0 {
		c.Jobs = runtime.GOMAXPROCS(0)
	}
	if c.Tools.Fetch == "" {
		c.Tools.Fetch = archive.DefaultFetchTool
	}
	if c.Tools.Extract == "" {
		c.Tools.Extract = archive.DefaultExtractTool
	}
	if c.Tools.FetchWorkers <= 0 {
		c.Tools.FetchWorkers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Validate checks the fields that cannot be defaulted.
func (c Config) Validate() error {
	if c.Toolchain != "" {
		if _, err := label.Parse(c.Toolchain); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "workspace toolchain")
		}
	}
	if filepath.IsAbs(c.OutputDir) {
		return nil
	}
	if err := errors.ValidatePath(c.OutputDir); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "output_dir")
	}
	return nil
}

// ReadConfig decodes path. Unknown keys are rejected so typos surface early.
func ReadConfig(path string) (Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, errors.Wrap(errors.ErrCodeNotFound, err, "read %s", path)
		}
		return Config{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, errors.New(errors.ErrCodeInvalidConfig, "%s: unknown key %q", path, undecoded[0].String())
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Find walks upward from dir to the first directory containing workspace.toml.
func Find(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "resolve %s", dir)
	}
	for d := abs; ; {
		if info, err := os.Stat(filepath.Join(d, ConfigFile)); err == nil && !info.IsDir() {
			return d, nil
		}
		parent := filepath.Dir(d)
		if parent == d {
			return "", errors.New(errors.ErrCodeNotFound, "no %s found in %s or any parent directory", ConfigFile, abs)
		}
		d = parent
	}
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "zap")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "zap")
	}
	return filepath.Join(os.TempDir(), "zap")
}
