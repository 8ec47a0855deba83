package build

import (
	"io"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/rule"
)

// Toolchains resolves toolchain labels for building rules.
// *toolchain.Manager implements it.
type Toolchains interface {
	Compiler(l label.Label) (rule.Compiler, error)
	ObjectExt(l label.Label) string
}

// Options configures a Context.
type Options struct {
	// Root is the workspace root; rule inputs are relative to it.
	Root string
	// OutputDir is where declared outputs are written.
	OutputDir string
	// DefaultToolchain is used by rules that do not name one.
	DefaultToolchain label.Label
	Toolchains       Toolchains
	Logger           *log.Logger
}

// Context is the per-invocation build state. It is safe for concurrent use;
// views returned by For share the same state.
type Context struct {
	*state
	current rule.Rule
}

type state struct {
	id         string
	root       string
	out        string
	defaultTC  label.Label
	toolchains Toolchains
	logger     *log.Logger

	rules map[label.Label]rule.Rule
	order []label.Label

	mu       sync.Mutex
	declared map[string]label.Label // relative path -> first declaring rule
	copies   map[string]*copyOnce
}

type copyOnce struct {
	once sync.Once
	err  error
}

// NewContext registers rules, in declaration order, and returns a fresh
// Context with a new build ID. Two rules with the same label are a
// DUPLICATE error.
func NewContext(rules []rule.Rule, opts Options) (*Context, error) {
	if opts.OutputDir == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "output directory not set")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	s := &state{
		id:         uuid.NewString(),
		root:       opts.Root,
		out:        opts.OutputDir,
		defaultTC:  opts.DefaultToolchain,
		toolchains: opts.Toolchains,
		logger:     opts.Logger,
		rules:      make(map[label.Label]rule.Rule, len(rules)),
		declared:   make(map[string]label.Label),
		copies:     make(map[string]*copyOnce),
	}
	for _, r := range rules {
		if _, exists := s.rules[r.Name()]; exists {
			return nil, errors.New(errors.ErrCodeDuplicate, "rule %s declared twice", r.Name())
		}
		s.rules[r.Name()] = r
		s.order = append(s.order, r.Name())
	}
	return &Context{state: s}, nil
}

// For returns a view of c bound to r.
func (c *Context) For(r rule.Rule) *Context {
	return &Context{state: c.state, current: r}
}

// ID is the unique identifier of this build invocation.
func (c *Context) ID() string { return c.id }

// Root is the workspace root.
func (c *Context) Root() string { return c.root }

// Current is the rule this view is bound to, or nil.
func (c *Context) Current() rule.Rule { return c.current }

// Rule looks up a registered rule.
func (c *Context) Rule(l label.Label) (rule.Rule, bool) {
	r, ok := c.rules[l]
	return r, ok
}

// Rules returns all registered rules in declaration order.
func (c *Context) Rules() []rule.Rule {
	out := make([]rule.Rule, len(c.order))
	for i, l := range c.order {
		out[i] = c.rules[l]
	}
	return out
}

// Labels returns all registered labels in declaration order.
func (c *Context) Labels() []label.Label { return slices.Clone(c.order) }

// ToolchainLabel is the toolchain r builds with: its own, or the default.
func (c *Context) ToolchainLabel(r rule.Rule) label.Label {
	if tc := r.ToolchainLabel(); !tc.IsZero() {
		return tc
	}
	return c.defaultTC
}

// OutputPath is the root of all declared outputs.
func (c *Context) OutputPath() string { return c.out }

// SourcePath resolves a workspace-relative input path.
func (c *Context) SourcePath(path string) string {
	return filepath.Join(c.root, path)
}

// DeclareOutput records path as prepared under the output root and returns
// its location there. Declaring a path again returns the same location; a
// second rule declaring a path already owned by another rule is logged and
// deduplicated.
func (c *Context) DeclareOutput(path string) string {
	var owner label.Label
	if c.current != nil {
		owner = c.current.Name()
	}

	c.mu.Lock()
	prev, seen := c.declared[path]
	if !seen {
		c.declared[path] = owner
	}
	c.mu.Unlock()

	if seen && prev != owner {
		c.logger.Warn("output declared by two rules", "path", path, "first", prev, "second", owner)
	}
	return filepath.Join(c.out, path)
}

// Declared returns every declared output path, relative to the output root, sorted.
func (c *Context) Declared() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.declared))
	for p := range c.declared {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Copy copies each input path verbatim to its declared output location.
// A path is copied at most once per Context. The first failure is returned.
func (c *Context) Copy(paths []string) error {
	for _, p := range paths {
		dst := c.DeclareOutput(p)

		c.mu.Lock()
		op, ok := c.copies[p]
		if !ok {
			op = &copyOnce{}
			c.copies[p] = op
		}
		c.mu.Unlock()

		op.once.Do(func() {
			op.err = copyFile(c.SourcePath(p), dst)
		})
		if op.err != nil {
			return op.err
		}
	}
	return nil
}

// TransitiveDependencies returns every rule reachable from r through its
// dependencies, each exactly once, in post-order: a rule always comes after
// everything it depends on. Siblings keep declaration order. r itself is not
// included. A label reachable from itself is a CYCLE error; an unknown
// label is a RESOLUTION error.
func (c *Context) TransitiveDependencies(r rule.Rule) ([]rule.Rule, error) {
	const (
		visiting = iota + 1
		done
	)
	marks := map[label.Label]int{r.Name(): visiting}
	path := []label.Label{r.Name()}
	var out []rule.Rule

	var visit func(from, l label.Label) error
	visit = func(from, l label.Label) error {
		switch marks[l] {
		case visiting:
			start := slices.Index(path, l)
			cycle := append(slices.Clone(path[start:]), l)
			return errors.Cycle(label.Strings(cycle))
		case done:
			return nil
		}

		dep, ok := c.rules[l]
		if !ok {
			return errors.New(errors.ErrCodeResolution, "%s depends on unknown rule %s", from, l)
		}

		marks[l] = visiting
		path = append(path, l)
		for _, d := range dep.Dependencies() {
			if err := visit(l, d); err != nil {
				return err
			}
		}
		path = path[:len(path)-1]
		marks[l] = done
		out = append(out, dep)
		return nil
	}

	for _, d := range r.Dependencies() {
		if err := visit(r.Name(), d); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Closure returns the targets and their transitive dependencies, each once,
// dependencies first. Empty targets selects every registered rule.
func (c *Context) Closure(targets []label.Label) ([]rule.Rule, error) {
	if len(targets) == 0 {
		targets = c.order
	}

	seen := make(map[label.Label]bool)
	var out []rule.Rule
	add := func(r rule.Rule) {
		if !seen[r.Name()] {
			seen[r.Name()] = true
			out = append(out, r)
		}
	}
	for _, t := range targets {
		r, ok := c.rules[t]
		if !ok {
			return nil, errors.New(errors.ErrCodeResolution, "unknown target %s", t)
		}
		deps, err := c.TransitiveDependencies(r)
		if err != nil {
			return nil, err
		}
		for _, d := range deps {
			add(d)
		}
		add(r)
	}
	return out, nil
}

// Toolchain returns the compiler bound to the rule this view builds.
func (c *Context) Toolchain() (rule.Compiler, error) {
	if c.current == nil {
		return nil, errors.New(errors.ErrCodeInternal, "no rule is building")
	}
	if c.toolchains == nil {
		return nil, errors.New(errors.ErrCodeResolution, "no toolchains registered")
	}
	tc := c.ToolchainLabel(c.current)
	compiler, err := c.toolchains.Compiler(tc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeResolution, err, "resolve toolchain for %s", c.current.Name())
	}
	return compiler, nil
}

// ObjectExt returns the object extension of toolchain l, defaulting to the
// workspace toolchain when l is zero.
func (c *Context) ObjectExt(l label.Label) string {
	if l.IsZero() {
		l = c.defaultTC
	}
	if c.toolchains == nil || l.IsZero() {
		return rule.DefaultObjectExt
	}
	return c.toolchains.ObjectExt(l)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "copy %s", src)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "copy %s", src)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "create %s", filepath.Dir(dst))
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "copy %s to %s", src, dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrap(errors.ErrCodeIO, err, "copy %s to %s", src, dst)
	}
	if err := out.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIO, err, "copy %s to %s", src, dst)
	}
	return nil
}

var _ rule.Context = (*Context)(nil)
