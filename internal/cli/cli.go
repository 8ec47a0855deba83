// Package cli implements the zap command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/zap/pkg/build"
	"github.com/matzehuels/zap/pkg/cache"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/process"
	"github.com/matzehuels/zap/pkg/toolchain"
	"github.com/matzehuels/zap/pkg/workspace"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for display.
	appName = "zap"

	// envLogLevel overrides the log level when neither -v nor -q is given.
	envLogLevel = "ZAP_LOG"
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// Runner executes external tools. Nil runs them locally.
	Runner process.Runner
	// Stdout receives command output and the output of programs run by
	// `build --run`. Defaults to os.Stdout.
	Stdout io.Writer

	dir     string // workspace lookup start, --dir
	verbose bool
	quiet   bool
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level), Stdout: os.Stdout}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Quiet reports whether --quiet was given.
func (c *CLI) Quiet() bool { return c.quiet }

// =============================================================================
// Session - a loaded workspace
// =============================================================================

// session is everything a command needs once the workspace is loaded.
type session struct {
	ws     *workspace.Workspace
	loaded *workspace.Loaded
	mgr    *toolchain.Manager
	cwd    string
}

// workdir is where workspace lookup starts: --dir or the working directory.
func (c *CLI) workdir() (string, error) {
	start := c.dir
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "get working directory")
		}
		start = wd
	}
	cwd, err := filepath.Abs(start)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeIO, err, "resolve %s", start)
	}
	return cwd, nil
}

// workspace opens the workspace configuration without evaluating rule scripts.
func (c *CLI) workspace() (*workspace.Workspace, error) {
	cwd, err := c.workdir()
	if err != nil {
		return nil, err
	}
	return workspace.Open(cwd)
}

// open finds and loads the workspace, registering its toolchains.
func (c *CLI) open(ctx context.Context) (*session, error) {
	cwd, err := c.workdir()
	if err != nil {
		return nil, err
	}
	ws, err := workspace.Open(cwd)
	if err != nil {
		return nil, err
	}
	prog := newProgress(c.Logger)
	opts := ws.ManagerOptions(c.Runner, c.Logger)
	opts.Output = c.Stdout
	mgr := toolchain.NewManager(opts)
	loaded, err := ws.Load(ctx, mgr, c.Logger)
	if err != nil {
		return nil, err
	}
	prog.done("Loaded %d rules from %d files in %s", len(loaded.Rules), len(loaded.Files), ws.Root)
	return &session{ws: ws, loaded: loaded, mgr: mgr, cwd: cwd}, nil
}

// context creates a fresh build context. An empty outDir uses the configured one.
func (s *session) context(outDir string, logger *log.Logger) (*build.Context, error) {
	opts := s.ws.BuildOptions(s.mgr, logger)
	if outDir != "" {
		abs, err := filepath.Abs(outDir)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeIO, err, "resolve %s", outDir)
		}
		opts.OutputDir = abs
	}
	return build.NewContext(s.loaded.Rules, opts)
}

// pkg is the package of the working directory, used to resolve relative labels.
func (s *session) pkg() string {
	rel, err := filepath.Rel(s.ws.Root, s.cwd)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}

// targets resolves command-line labels. Relative forms are taken relative to
// the working directory's package. No arguments means every rule.
func (s *session) targets(args []string) ([]label.Label, error) {
	out := make([]label.Label, 0, len(args))
	for _, a := range args {
		l, err := label.Resolve(s.pkg(), a)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a build runner whose cache entries are scoped to the workspace.
func (c *CLI) newRunner(s *session, noCache bool, jobs int) (*build.Runner, error) {
	store, err := newCache(s.ws, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, cache.WorkspaceScope(s.ws.Root))
	r := build.NewRunner(store, keyer, c.Logger)
	r.Jobs = s.ws.Config.Jobs
	if jobs > 0 {
		r.Jobs = jobs
	}
	return r, nil
}

func newCache(ws *workspace.Workspace, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(ws.BuildCacheDir())
}

// =============================================================================
// Logging
// =============================================================================

// logLevel picks the level from -v/-q, then ZAP_LOG, then info.
func (c *CLI) logLevel() log.Level {
	switch {
	case c.verbose:
		return LogDebug
	case c.quiet:
		return LogWarn
	}
	if env := strings.TrimSpace(os.Getenv(envLogLevel)); env != "" {
		if lvl, err := log.ParseLevel(env); err == nil {
			return lvl
		}
	}
	return LogInfo
}

// =============================================================================
// Completion
// =============================================================================

// completeLabels offers every rule label of the workspace for shell completion.
func (c *CLI) completeLabels(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	ws, err := c.workspace()
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	loaded, err := ws.Load(cmd.Context(), nil, log.New(io.Discard))
	if err != nil {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, r := range loaded.Rules {
		if l := r.Name().String(); strings.HasPrefix(l, toComplete) {
			out = append(out, l)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}
