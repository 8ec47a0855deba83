package toolchain

import (
	"context"
	"io"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zap/pkg/archive"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/observability"
	"github.com/matzehuels/zap/pkg/rule"
)

// Options configures a Manager.
type Options struct {
	// WorkDir is the working directory for compiler and runtime invocations.
	WorkDir string
	// Tools runs fetch and extraction. Zero fields take archive defaults.
	Tools archive.Tools
	// Workers bounds concurrent acquisitions. Default: GOMAXPROCS.
	Workers int
	// Output receives the output of programs started by Run. Nil discards it.
	Output io.Writer
	Logger *log.Logger
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Tools.Logger == nil {
		o.Tools.Logger = o.Logger
	}
	o.Tools = o.Tools.WithDefaults()
	if o.Workers <= 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}
	return o
}

// Manager is the concurrent registry of archives and toolchains, keyed by label.
// All methods are safe for concurrent use.
type Manager struct {
	opts       Options
	archives   sync.Map // label.Label -> archive.Archive
	toolchains sync.Map // label.Label -> *Toolchain
}

// NewManager creates an empty registry.
func NewManager(opts Options) *Manager {
	return &Manager{opts: opts.WithDefaults()}
}

// RegisterArchive stores a, replacing any archive with the same label.
func (m *Manager) RegisterArchive(a archive.Archive) {
	m.archives.Store(a.Name(), a)
}

// RegisterToolchain binds decl to the archive registered under the same
// label, relocated to cacheRoot. If no such archive is registered the
// declaration is skipped and false is returned.
func (m *Manager) RegisterToolchain(decl rule.Toolchain, cacheRoot string) bool {
	v, ok := m.archives.Load(decl.Name())
	if !ok {
		m.opts.Logger.Debug("toolchain has no archive, skipping", "toolchain", decl.Name())
		return false
	}
	tc := New(decl, v.(archive.Archive), cacheRoot).
		WithWorkDir(m.opts.WorkDir).
		WithTools(m.opts.Tools).
		WithOutput(m.opts.Output)
	m.toolchains.Store(decl.Name(), tc)
	return true
}

// Get returns the toolchain registered under l. Absence is not an error.
func (m *Manager) Get(l label.Label) (*Toolchain, bool) {
	v, ok := m.toolchains.Load(l)
	if !ok {
		return nil, false
	}
	return v.(*Toolchain), true
}

// Compiler resolves l for a building rule. Unknown labels are RESOLUTION errors.
func (m *Manager) Compiler(l label.Label) (rule.Compiler, error) {
	if l.IsZero() {
		return nil, errors.New(errors.ErrCodeResolution, "no toolchain configured")
	}
	tc, ok := m.Get(l)
	if !ok {
		return nil, errors.New(errors.ErrCodeResolution, "unknown toolchain %s", l)
	}
	return tc, nil
}

// ObjectExt returns the object extension of toolchain l, or the default
// extension if l is not registered.
func (m *Manager) ObjectExt(l label.Label) string {
	if tc, ok := m.Get(l); ok {
		return tc.ObjectExt()
	}
	return rule.DefaultObjectExt
}

// Targets returns every registered label, archives and toolchains, sorted.
func (m *Manager) Targets() []label.Label {
	seen := make(map[label.Label]struct{})
	collect := func(k, _ any) bool {
		seen[k.(label.Label)] = struct{}{}
		return true
	}
	m.archives.Range(collect)
	m.toolchains.Range(collect)

	out := make([]label.Label, 0, len(seen))
	for l := range seen {
		out = append(out, l)
	}
	label.Sort(out)
	return out
}

// Archives returns a snapshot of the registered archives, sorted by label.
func (m *Manager) Archives() []archive.Archive {
	var out []archive.Archive
	m.archives.Range(func(_, v any) bool {
		out = append(out, v.(archive.Archive))
		return true
	})
	slices.SortFunc(out, func(a, b archive.Archive) int { return label.Compare(a.Name(), b.Name()) })
	return out
}

// Toolchains returns a snapshot of the registered toolchains, sorted by label.
func (m *Manager) Toolchains() []*Toolchain {
	var out []*Toolchain
	m.toolchains.Range(func(_, v any) bool {
		out = append(out, v.(*Toolchain))
		return true
	})
	slices.SortFunc(out, func(a, b *Toolchain) int { return label.Compare(a.Name(), b.Name()) })
	return out
}

// Acquire makes the named toolchains ready, or every registered toolchain if
// labels is empty. Acquisitions run on a pool of Options.Workers goroutines;
// the first failure cancels the rest and is returned.
func (m *Manager) Acquire(ctx context.Context, labels []label.Label) error {
	var targets []*Toolchain
	if len(labels) == 0 {
		targets = m.Toolchains()
	} else {
		uniq := slices.Clone(labels)
		label.Sort(uniq)
		for _, l := range slices.Compact(uniq) {
			tc, ok := m.Get(l)
			if !ok {
				return errors.New(errors.ErrCodeResolution, "unknown toolchain %s", l)
			}
			targets = append(targets, tc)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.opts.Workers)
	for _, tc := range targets {
		g.Go(func() error {
			return m.acquire(ctx, tc)
		})
	}
	return g.Wait()
}

func (m *Manager) acquire(ctx context.Context, tc *Toolchain) error {
	name := tc.Name().String()
	hooks := observability.Toolchain()
	hooks.OnAcquireStart(ctx, name)
	start := time.Now()

	out, err := tc.Acquire(ctx)
	hooks.OnAcquireComplete(ctx, name, out.Downloaded, time.Since(start), err)
	if err != nil {
		return err
	}

	switch {
	case out.Downloaded:
		m.opts.Logger.Info("fetched toolchain", "toolchain", name, "duration", time.Since(start).Round(time.Millisecond))
	case out.Unpacked:
		m.opts.Logger.Info("unpacked toolchain", "toolchain", name)
	default:
		m.opts.Logger.Debug("toolchain ready", "toolchain", name)
	}
	return nil
}
