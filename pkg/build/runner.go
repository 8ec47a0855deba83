package build

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/zap/pkg/artifact"
	"github.com/matzehuels/zap/pkg/cache"
	"github.com/matzehuels/zap/pkg/dag"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
	"github.com/matzehuels/zap/pkg/observability"
	"github.com/matzehuels/zap/pkg/rule"
)

// Status is the outcome of one rule in a build.
type Status string

const (
	StatusBuilt  Status = "built"
	StatusCached Status = "cached"
)

// RuleResult describes how one rule was handled.
type RuleResult struct {
	Label       label.Label
	Kind        rule.Kind
	Status      Status
	Fingerprint string
	Duration    time.Duration
}

// Result summarizes a build.
type Result struct {
	BuildID  string
	Order    []label.Label // completion order
	Rules    map[label.Label]RuleResult
	Duration time.Duration
}

// Count returns how many rules ended with status s.
func (r *Result) Count(s Status) int {
	n := 0
	for _, rr := range r.Rules {
		if rr.Status == s {
			n++
		}
	}
	return n
}

// record is what the cache stores per rule.
type record struct {
	Fingerprint string    `json:"fingerprint"`
	BuildID     string    `json:"build_id"`
	BuiltAt     time.Time `json:"built_at"`
}

// Runner schedules rule builds with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can use the same Runner with different Contexts.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	// Jobs bounds concurrent rule builds. Default: GOMAXPROCS.
	Jobs int
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		Jobs:   runtime.GOMAXPROCS(0),
	}
}

// Graph returns the validated dependency graph of targets and everything
// they depend on. Empty targets selects every rule.
func (r *Runner) Graph(bc *Context, targets []label.Label) (*dag.DAG, error) {
	rules, err := bc.Closure(targets)
	if err != nil {
		return nil, err
	}

	g := dag.New(dag.Metadata{"build_id": bc.ID()})
	for _, rr := range rules {
		meta := dag.Metadata{"kind": string(rr.Kind())}
		if tc := bc.ToolchainLabel(rr); !tc.IsZero() && rr.Kind() != rule.KindToolchain {
			meta["toolchain"] = tc.String()
		}
		if err := g.AddNode(dag.Node{ID: rr.Name().String(), Meta: meta}); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInternal, err, "add %s", rr.Name())
		}
	}
	for _, rr := range rules {
		for _, d := range rr.Dependencies() {
			if err := g.AddEdge(dag.Edge{From: rr.Name().String(), To: d.String()}); err != nil {
				return nil, errors.Wrap(errors.ErrCodeInternal, err, "link %s -> %s", rr.Name(), d)
			}
		}
	}

	if cycle := g.FindCycle(); cycle != nil {
		return nil, errors.Cycle(cycle)
	}
	if err := g.Validate(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "invalid graph")
	}
	return g, nil
}

// Build builds targets and their dependencies. A rule starts only after all
// of its dependencies succeeded; up to Jobs rules build at once. The first
// failure stops scheduling and is returned once running builds finish.
func (r *Runner) Build(ctx context.Context, bc *Context, targets []label.Label) (*Result, error) {
	start := time.Now()
	g, err := r.Graph(bc, targets)
	if err != nil {
		return nil, err
	}

	res := &Result{
		BuildID: bc.ID(),
		Rules:   make(map[label.Label]RuleResult, g.NodeCount()),
	}
	r.Logger.Debug("build started", "id", bc.ID(), "rules", g.NodeCount(), "jobs", r.jobs())

	var mu sync.Mutex
	fingerprints := make(map[string]string, g.NodeCount())
	pending := make(map[string]int, g.NodeCount())
	done := make(chan string, g.NodeCount())

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(r.jobs())

	launch := func(id string) {
		rr, _ := bc.Rule(label.Label(id))
		mu.Lock()
		deps := make([]string, 0, g.OutDegree(id))
		for _, child := range g.Children(id) {
			deps = append(deps, fingerprints[child])
		}
		mu.Unlock()

		eg.Go(func() error {
			out, err := r.buildRule(egCtx, bc, rr, deps)
			if err != nil {
				return err
			}
			mu.Lock()
			fingerprints[id] = out.Fingerprint
			res.Rules[out.Label] = out
			res.Order = append(res.Order, out.Label)
			mu.Unlock()
			done <- id
			return nil
		})
	}

	for _, n := range g.Nodes() {
		pending[n.ID] = g.OutDegree(n.ID)
	}
	for _, n := range g.Sinks() {
		launch(n.ID)
	}

schedule:
	for finished := 0; finished < g.NodeCount(); {
		select {
		case id := <-done:
			finished++
			for _, parent := range g.Parents(id) {
				pending[parent]--
				if pending[parent] == 0 {
					launch(parent)
				}
			}
		case <-egCtx.Done():
			break schedule
		}
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "build interrupted")
	}

	res.Duration = time.Since(start)
	r.Logger.Info("build finished",
		"built", res.Count(StatusBuilt),
		"cached", res.Count(StatusCached),
		"duration", res.Duration.Round(time.Millisecond))
	return res, nil
}

// Run invokes the Run hook of the rule named l. Binaries execute; other
// kinds do nothing. Run does not build.
func (r *Runner) Run(ctx context.Context, bc *Context, l label.Label) error {
	rr, ok := bc.Rule(l)
	if !ok {
		return errors.New(errors.ErrCodeResolution, "unknown target %s", l)
	}
	r.Logger.Debug("running rule", "rule", l)
	return rr.Run(ctx, bc.For(rr))
}

func (r *Runner) jobs() int {
	if r.Jobs <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return r.Jobs
}

// buildRule builds rr unless its fingerprint is cached and its outputs exist.
func (r *Runner) buildRule(ctx context.Context, bc *Context, rr rule.Rule, deps []string) (RuleResult, error) {
	if err := ctx.Err(); err != nil {
		return RuleResult{}, err
	}

	name := rr.Name()
	hooks := observability.Build()
	hooks.OnRuleStart(ctx, name.String(), string(rr.Kind()))
	start := time.Now()

	view := bc.For(rr)
	arts := rr.Outputs(view)
	fp, err := r.fingerprint(bc, rr, arts, deps)
	if err != nil {
		hooks.OnRuleComplete(ctx, name.String(), "", time.Since(start), err)
		return RuleResult{}, err
	}

	key := r.Keyer.RuleKey(name.String())
	prev := r.lookup(ctx, key)
	rr = rule.WithChanged(rr, prev != fp)

	out := RuleResult{Label: name, Kind: rr.Kind(), Fingerprint: fp}
	if !rr.HasChanged() && outputsExist(bc.OutputPath(), arts) {
		out.Status = StatusCached
		out.Duration = time.Since(start)
		observability.Cache().OnCacheHit(ctx, "rule")
		r.Logger.Debug("cached", "rule", name)
		hooks.OnRuleComplete(ctx, name.String(), string(out.Status), out.Duration, nil)
		return out, nil
	}
	observability.Cache().OnCacheMiss(ctx, "rule")

	if err := rr.Build(ctx, bc.For(rr)); err != nil {
		hooks.OnRuleComplete(ctx, name.String(), "", time.Since(start), err)
		code := errors.GetCode(err)
		if code == "" {
			code = errors.ErrCodeInternal
		}
		return RuleResult{}, errors.Wrap(code, err, "build %s", name)
	}

	out.Status = StatusBuilt
	out.Duration = time.Since(start)
	r.store(ctx, key, record{Fingerprint: fp, BuildID: bc.ID(), BuiltAt: time.Now()})
	r.Logger.Info("built", "rule", name, "duration", out.Duration.Round(time.Millisecond))
	hooks.OnRuleComplete(ctx, name.String(), string(out.Status), out.Duration, nil)
	return out, nil
}

// fingerprint covers the rule's artifacts, identity, toolchain and the
// fingerprints of its direct dependencies (which transitively cover the rest).
func (r *Runner) fingerprint(bc *Context, rr rule.Rule, arts []artifact.Artifact, deps []string) (string, error) {
	extra := []string{
		string(rr.Kind()),
		rr.Name().String(),
		bc.ToolchainLabel(rr).String(),
		bc.ObjectExt(rr.ToolchainLabel()),
	}
	extra = append(extra, deps...)

	if len(arts) == 0 {
		arts = []artifact.Artifact{{}}
	}
	parts := make([]string, 0, len(arts))
	for _, art := range arts {
		fp, err := art.Fingerprint(bc.Root(), extra...)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeIO, err, "fingerprint %s", rr.Name())
		}
		parts = append(parts, fp)
	}
	return cache.Hash([]byte(strings.Join(parts, "\n"))), nil
}

func (r *Runner) lookup(ctx context.Context, key string) string {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("cache read failed", "key", key, "err", err)
		return ""
	}
	if !hit {
		return ""
	}
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return ""
	}
	return rec.Fingerprint
}

func (r *Runner) store(ctx context.Context, key string, rec record) {
	data, err := json.Marshal(rec)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLRule); err != nil {
		r.Logger.Warn("cache write failed", "key", key, "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "rule", len(data))
}

func outputsExist(root string, arts []artifact.Artifact) bool {
	for _, art := range arts {
		for _, p := range art.Outputs {
			if _, err := os.Stat(filepath.Join(root, p)); err != nil {
				return false
			}
		}
	}
	return true
}
