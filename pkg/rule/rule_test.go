package rule

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zap/pkg/label"
)

type compileCall struct {
	sources, headers, objects []string
	dest                      string
}

type runCall struct {
	searchPath []string
	entry      string
	args       []string
}

type fakeCompiler struct {
	compiles []compileCall
	runs     []runCall
}

func (c *fakeCompiler) Compile(ctx context.Context, sources, headers, objects []string, dest string) error {
	c.compiles = append(c.compiles, compileCall{sources, headers, objects, dest})
	return nil
}

func (c *fakeCompiler) Run(ctx context.Context, searchPath []string, entry string, args []string) error {
	c.runs = append(c.runs, runCall{searchPath, entry, args})
	return nil
}

func (c *fakeCompiler) ObjectExt() string { return "beam" }

type fakeContext struct {
	out      string
	deps     map[label.Label][]Rule
	compiler *fakeCompiler
	declared []string
	copied   []string
}

func newFakeContext() *fakeContext {
	return &fakeContext{
		out:      "/out",
		deps:     map[label.Label][]Rule{},
		compiler: &fakeCompiler{},
	}
}

func (f *fakeContext) OutputPath() string            { return f.out }
func (f *fakeContext) SourcePath(p string) string    { return filepath.Join("/ws", p) }
func (f *fakeContext) ObjectExt(label.Label) string  { return "beam" }
func (f *fakeContext) Toolchain() (Compiler, error)  { return f.compiler, nil }
func (f *fakeContext) Copy(paths []string) error     { f.copied = append(f.copied, paths...); return nil }
func (f *fakeContext) DeclareOutput(p string) string {
	f.declared = append(f.declared, p)
	return filepath.Join(f.out, p)
}

func (f *fakeContext) TransitiveDependencies(r Rule) ([]Rule, error) {
	return f.deps[r.Name()], nil
}

func TestLibraryOutputs(t *testing.T) {
	lib := NewLibrary("//:a").
		WithSources([]string{"src/a.erl", "src/b.erl"}).
		WithHeaders([]string{"include/a.hrl"})

	arts := lib.Outputs(nil)
	if len(arts) != 1 {
		t.Fatalf("got %d artifacts, want 1", len(arts))
	}
	want := []string{"src/a.beam", "src/b.beam", "include/a.hrl"}
	if diff := cmp.Diff(want, arts[0].Outputs); diff != "" {
		t.Errorf("outputs mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"include/a.hrl", "src/a.erl", "src/b.erl"}, lib.Inputs()); diff != "" {
		t.Errorf("inputs mismatch (-want +got):\n%s", diff)
	}
	if err := arts[0].Validate("beam"); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestHeaderOnlyLibraryCopiesWithoutCompiling(t *testing.T) {
	bc := newFakeContext()
	lib := NewLibrary("//:h").WithHeaders([]string{"h.hrl"})

	if err := lib.Build(context.Background(), bc); err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if diff := cmp.Diff([]string{"h.hrl"}, bc.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
	if len(bc.compiler.compiles) != 0 {
		t.Errorf("compiler invoked %d times, want 0", len(bc.compiler.compiles))
	}
}

func TestLibraryBuildUsesTransitiveOutputs(t *testing.T) {
	bc := newFakeContext()
	base := NewLibrary("//:base").
		WithSources([]string{"base.erl"}).
		WithHeaders([]string{"base.hrl"})
	app := NewLibrary("//:app").
		WithSources([]string{"app.erl", "util.erl"}).
		WithHeaders([]string{"app.hrl"}).
		WithDependencies([]label.Label{"//:base"})
	bc.deps["//:app"] = []Rule{base}

	if err := app.Build(context.Background(), bc); err != nil {
		t.Fatalf("Build() = %v", err)
	}
	if len(bc.compiler.compiles) != 1 {
		t.Fatalf("compiler invoked %d times, want 1", len(bc.compiler.compiles))
	}
	got := bc.compiler.compiles[0]
	want := compileCall{
		sources: []string{"/ws/app.erl", "/ws/util.erl"},
		headers: []string{"/out/app.hrl", "/out/base.hrl"},
		objects: []string{"/out/app.beam", "/out/util.beam", "/out/base.beam"},
		dest:    "/out/app.beam",
	}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(compileCall{})); diff != "" {
		t.Errorf("compile mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"app.hrl"}, bc.copied); diff != "" {
		t.Errorf("copied mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryRun(t *testing.T) {
	bc := newFakeContext()
	dep := NewLibrary("//lib:l").WithSources([]string{"lib/l.erl"})
	bin := NewBinary("//:main").
		WithSources([]string{"main.erl"}).
		WithDependencies([]label.Label{"//lib:l"}).
		WithArgs([]string{"x"})
	bc.deps["//:main"] = []Rule{dep}

	if got := bin.Main(); got != "main" {
		t.Errorf("Main() = %q, want main", got)
	}
	if err := bin.Run(context.Background(), bc); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	want := runCall{searchPath: []string{"/out", "/out/lib"}, entry: "main", args: []string{"x"}}
	if diff := cmp.Diff([]runCall{want}, bc.compiler.runs, cmp.AllowUnexported(runCall{})); diff != "" {
		t.Errorf("run mismatch (-want +got):\n%s", diff)
	}
}

func TestBinaryWithoutSources(t *testing.T) {
	if err := NewBinary("//:b").Build(context.Background(), newFakeContext()); err == nil {
		t.Error("Build() succeeded for binary without sources")
	}
}

func TestWithChanged(t *testing.T) {
	rules := []Rule{NewLibrary("//:a"), NewBinary("//:b"), NewToolchain("//:t")}
	for _, r := range rules {
		changed := WithChanged(r, true)
		if !changed.HasChanged() {
			t.Errorf("%s: HasChanged() = false after WithChanged(true)", r.Kind())
		}
		if r.HasChanged() {
			t.Errorf("%s: original mutated", r.Kind())
		}
		if changed.Name() != r.Name() {
			t.Errorf("%s: name changed to %s", r.Kind(), changed.Name())
		}
	}
}

func TestBuildersCopySlices(t *testing.T) {
	srcs := []string{"a.erl"}
	lib := NewLibrary("//:a").WithSources(srcs)
	srcs[0] = "b.erl"
	if got := lib.Sources(); got[0] != "a.erl" {
		t.Errorf("Sources() = %v, aliasing caller slice", got)
	}
	other := lib.WithSources([]string{"c.erl"})
	if lib.Sources()[0] != "a.erl" || other.Sources()[0] != "c.erl" {
		t.Error("WithSources mutated the receiver")
	}
}

func TestToolchainDefaults(t *testing.T) {
	tc := NewToolchain("//tools:otp").WithCompiler("bin/erlc").WithFlags("", "-i", "")
	if tc.ObjectExt() != DefaultObjectExt {
		t.Errorf("ObjectExt() = %q", tc.ObjectExt())
	}
	if tc.OutputFlag() != "-o" || tc.IncludeFlag() != "-i" || tc.PathFlag() != "-pa" {
		t.Errorf("flags = %q %q %q", tc.OutputFlag(), tc.IncludeFlag(), tc.PathFlag())
	}
	if len(tc.Outputs(nil)) != 0 || len(tc.Inputs()) != 0 {
		t.Error("toolchain should have no inputs or outputs")
	}
}
