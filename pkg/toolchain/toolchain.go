package toolchain

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/process"
	"github.com/matzehuels/zap/pkg/rule"
)

// Toolchain is an invocable compiler and runtime backed by an archive.
type Toolchain struct {
	decl    rule.Toolchain
	archive archive.Archive
	workDir string
	tools   archive.Tools
	output  io.Writer // receives runtime output of Run
}

// New binds decl to a, storing the archive under cacheRoot.
func New(decl rule.Toolchain, a archive.Archive, cacheRoot string) *Toolchain {
	return &Toolchain{
		decl:    decl,
		archive: a.WithCacheRoot(cacheRoot),
		tools:   archive.Tools{}.WithDefaults(),
	}
}

// WithWorkDir returns a copy that runs its tools from dir.
func (t *Toolchain) WithWorkDir(dir string) *Toolchain {
	c := *t
	c.workDir = dir
	return &c
}

// WithOutput returns a copy whose Run streams program output to w.
func (t *Toolchain) WithOutput(w io.Writer) *Toolchain {
	c := *t
	c.output = w
	return &c
}

// WithTools returns a copy that uses tools for acquisition and invocation.
func (t *Toolchain) WithTools(tools archive.Tools) *Toolchain {
	c := *t
	c.tools = tools.WithDefaults()
	return &c
}

func (t *Toolchain) Name() label.Label        { return t.decl.Name() }
func (t *Toolchain) Rule() rule.Toolchain     { return t.decl }
func (t *Toolchain) Archive() archive.Archive { return t.archive }
func (t *Toolchain) ObjectExt() string        { return t.decl.ObjectExt() }

// Ready reports whether the backing archive has been unpacked.
func (t *Toolchain) Ready() bool {
	return t.archive.Unpacked(t.archive.Dir())
}

// CompilerPath is the absolute path of the compiler inside the unpacked archive.
func (t *Toolchain) CompilerPath() string {
	return filepath.Join(t.archive.Root(), t.decl.Compiler())
}

// RuntimePath is the absolute path of the runtime inside the unpacked archive.
func (t *Toolchain) RuntimePath() string {
	return filepath.Join(t.archive.Root(), t.decl.Runtime())
}

// Acquire downloads, verifies and unpacks the backing archive as needed.
func (t *Toolchain) Acquire(ctx context.Context) (archive.Outcome, error) {
	return archive.Acquire(ctx, t.archive, t.tools)
}

// Compile invokes the compiler once per output directory as
//
//	<compiler> <args...> -o <dir> [-I dir]... [-pa dir]... sources...
//
// The first len(sources) entries of objects are the declared objects of
// sources, in order. Sources are grouped by the directory of their object so
// every object lands where it was declared; the group holding dest runs
// first. Header and object paths contribute their directories, each once, in
// order. Output directories are created before the compiler runs.
func (t *Toolchain) Compile(ctx context.Context, sources, headers, objects []string, dest string) error {
	if err := t.check(); err != nil {
		return err
	}
	if t.decl.Compiler() == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "toolchain %s declares no compiler", t.Name())
	}

	var search []string
	for _, d := range dirs(headers) {
		search = append(search, t.decl.IncludeFlag(), d)
	}
	for _, d := range dirs(objects) {
		search = append(search, t.decl.PathFlag(), d)
	}

	for _, g := range groupByOutputDir(sources, objects, dest) {
		if err := os.MkdirAll(g.dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeIO, err, "create output directory %s", g.dir)
		}
		args := t.decl.Args()
		args = append(args, t.decl.OutputFlag(), g.dir)
		args = append(args, search...)
		args = append(args, g.sources...)
		if err := t.exec(ctx, t.CompilerPath(), args, false); err != nil {
			return err
		}
	}
	return nil
}

type sourceGroup struct {
	dir     string
	sources []string
}

// groupByOutputDir pairs sources with their objects and groups them by object
// directory, starting with the directory of dest. Without a full pairing every
// source goes to dir(dest).
func groupByOutputDir(sources, objects []string, dest string) []sourceGroup {
	groups := []sourceGroup{{dir: filepath.Dir(dest)}}
	if len(objects) < len(sources) {
		groups[0].sources = sources
		return groups
	}
	index := map[string]int{groups[0].dir: 0}
	for i, src := range sources {
		d := filepath.Dir(objects[i])
		n, ok := index[d]
		if !ok {
			n = len(groups)
			index[d] = n
			groups = append(groups, sourceGroup{dir: d})
		}
		groups[n].sources = append(groups[n].sources, src)
	}
	if len(groups[0].sources) == 0 {
		groups = groups[1:]
	}
	return groups
}

// Run executes entry with searchPath on the runtime's code path.
func (t *Toolchain) Run(ctx context.Context, searchPath []string, entry string, args []string) error {
	if err := t.check(); err != nil {
		return err
	}
	if t.decl.Runtime() == "" {
		return errors.New(errors.ErrCodeInvalidConfig, "toolchain %s declares no runtime", t.Name())
	}

	var argv []string
	for _, d := range searchPath {
		argv = append(argv, t.decl.PathFlag(), d)
	}
	argv = append(argv, "-noshell", "-run", entry)
	argv = append(argv, args...)
	argv = append(argv, "-s", "init", "stop")

	return t.exec(ctx, t.RuntimePath(), argv, true)
}

func (t *Toolchain) check() error {
	if !t.Ready() {
		return errors.New(errors.ErrCodeResolution,
			"toolchain %s is not acquired; run `zap toolchain fetch %s`", t.Name(), t.Name())
	}
	return nil
}

func (t *Toolchain) exec(ctx context.Context, name string, args []string, stream bool) error {
	cmd := process.Command{
		Name:    name,
		Args:    args,
		Dir:     t.workDir,
		Timeout: t.tools.Timeout,
	}
	if stream && t.output != nil {
		cmd.Stdout, cmd.Stderr = t.output, t.output
	}
	t.tools.Logger.Debug("invoke toolchain", "toolchain", t.Name(), "cmd", cmd.String())
	_, err := t.tools.Runner.Run(ctx, cmd)
	return err
}

// dirs returns the distinct parent directories of paths, in first-seen order.
func dirs(paths []string) []string {
	seen := make(map[string]struct{}, len(paths))
	var out []string
	for _, p := range paths {
		d := filepath.Dir(p)
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	return out
}

var _ rule.Compiler = (*Toolchain)(nil)
