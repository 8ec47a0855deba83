package rule

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/matzehuels/zap/pkg/artifact"
	"github.com/matzehuels/zap/pkg/errors"
	"github.com/matzehuels/zap/pkg/label"
)

// Binary builds like a Library and can be executed afterwards through the
// toolchain runtime, starting at its entry module.
type Binary struct {
	name         label.Label
	sources      []string
	headers      []string
	dependencies []label.Label
	toolchain    label.Label
	main         string
	args         []string
	changed      bool
}

// NewBinary creates an empty binary.
func NewBinary(name label.Label) Binary {
	return Binary{name: name}
}

func (b Binary) WithName(name label.Label) Binary {
	b.name = name
	return b
}

func (b Binary) WithSources(sources []string) Binary {
	b.sources = slices.Clone(sources)
	return b
}

func (b Binary) WithHeaders(headers []string) Binary {
	b.headers = slices.Clone(headers)
	return b
}

func (b Binary) WithDependencies(deps []label.Label) Binary {
	b.dependencies = slices.Clone(deps)
	return b
}

func (b Binary) WithToolchain(tc label.Label) Binary {
	b.toolchain = tc
	return b
}

// WithMain sets the entry module. Empty means the stem of the first source.
func (b Binary) WithMain(main string) Binary {
	b.main = main
	return b
}

// WithArgs sets the arguments passed to the entry module on Run.
func (b Binary) WithArgs(args []string) Binary {
	b.args = slices.Clone(args)
	return b
}

func (b Binary) Name() label.Label           { return b.name }
func (b Binary) Kind() Kind                  { return KindBinary }
func (b Binary) Sources() []string           { return slices.Clone(b.sources) }
func (b Binary) Headers() []string           { return slices.Clone(b.headers) }
func (b Binary) Dependencies() []label.Label { return slices.Clone(b.dependencies) }
func (b Binary) ToolchainLabel() label.Label { return b.toolchain }
func (b Binary) Args() []string              { return slices.Clone(b.args) }
func (b Binary) HasChanged() bool            { return b.changed }

// Main returns the entry module name.
func (b Binary) Main() string {
	if b.main != "" || len(b.sources) == 0 {
		return b.main
	}
	return filepath.Base(artifact.Stem(b.sources[0]))
}

func (b Binary) Inputs() []string {
	return slices.Concat(b.headers, b.sources)
}

func (b Binary) Outputs(bc Context) []artifact.Artifact {
	return []artifact.Artifact{unitArtifact(b.headers, b.sources, objectExt(bc, b.toolchain))}
}

func (b Binary) Build(ctx context.Context, bc Context) error {
	if len(b.sources) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "binary %s has no sources", b.name)
	}
	return compileUnit(ctx, bc, b, b.sources, b.headers)
}

// Run executes the entry module with every object directory of the binary
// and its transitive dependencies on the search path.
func (b Binary) Run(ctx context.Context, bc Context) error {
	deps, err := bc.TransitiveDependencies(b)
	if err != nil {
		return err
	}

	var dirs []string
	for _, art := range b.Outputs(bc) {
		dirs = append(dirs, art.Derived()...)
	}
	for _, dep := range deps {
		for _, art := range dep.Outputs(bc) {
			dirs = append(dirs, art.Derived()...)
		}
	}
	for i, p := range dirs {
		dirs[i] = filepath.Dir(filepath.Join(bc.OutputPath(), p))
	}
	dirs = dedupe(dirs)

	tc, err := bc.Toolchain()
	if err != nil {
		return err
	}
	return tc.Run(ctx, dirs, b.Main(), b.args)
}

func (Binary) sealed() {}
