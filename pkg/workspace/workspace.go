package workspace

import (
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/build"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/process"
	"github.com/matzehuels/zap/pkg/toolchain"
)

// Workspace is an opened workspace root and its configuration.
type Workspace struct {
	Root   string
	Config Config
}

// Open finds the workspace containing dir and reads its configuration.
func Open(dir string) (*Workspace, error) {
	root, err := Find(dir)
	if err != nil {
		return nil, err
	}
	cfg, err := ReadConfig(filepath.Join(root, ConfigFile))
	if err != nil {
		return nil, err
	}
	return &Workspace{Root: root, Config: cfg}, nil
}

// Name returns the configured name, or the root directory's base name.
func (w *Workspace) Name() string {
	if w.Config.Name != "" {
		return w.Config.Name
	}
	return filepath.Base(w.Root)
}

// OutputDir is the absolute build output root.
func (w *Workspace) OutputDir() string {
	if filepath.IsAbs(w.Config.OutputDir) {
		return w.Config.OutputDir
	}
	return filepath.Join(w.Root, w.Config.OutputDir)
}

// CacheDir is the absolute cache root shared by all workspaces of a user.
func (w *Workspace) CacheDir() string {
	return w.Config.CacheDir
}

// ToolchainDir holds downloaded and unpacked toolchain archives.
func (w *Workspace) ToolchainDir() string {
	return filepath.Join(w.CacheDir(), "toolchains")
}

// BuildCacheDir holds rule fingerprints.
func (w *Workspace) BuildCacheDir() string {
	return filepath.Join(w.CacheDir(), "build")
}

// DefaultToolchain parses the configured toolchain label. Zero if unset.
func (w *Workspace) DefaultToolchain() label.Label {
	if w.Config.Toolchain == "" {
		return ""
	}
	l, err := label.Parse(w.Config.Toolchain)
	if err != nil {
		// Validated by ReadConfig.
		return ""
	}
	return l
}

// ManagerOptions derives toolchain manager options from the configuration.
func (w *Workspace) ManagerOptions(runner process.Runner, logger *log.Logger) toolchain.Options {
	return toolchain.Options{
		WorkDir: w.Root,
		Tools: archive.Tools{
			Runner:  runner,
			Fetch:   w.Config.Tools.Fetch,
			Extract: w.Config.Tools.Extract,
			Timeout: time.Duration(w.Config.Tools.Timeout),
			Logger:  logger,
		},
		Workers: w.Config.Tools.FetchWorkers,
		Logger:  logger,
	}
}

// BuildOptions derives build context options from the configuration.
func (w *Workspace) BuildOptions(tcs build.Toolchains, logger *log.Logger) build.Options {
	return build.Options{
		Root:             w.Root,
		OutputDir:        w.OutputDir(),
		DefaultToolchain: w.DefaultToolchain(),
		Toolchains:       tcs,
		Logger:           logger,
	}
}
