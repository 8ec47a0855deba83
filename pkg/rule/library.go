package rule

import (
	"context"
	"slices"

	"github.com/matzehuels/zap/pkg/artifact"
	"github.com/matzehuels/zap/pkg/label"
)

// Library compiles its sources into objects and exposes its headers to
// dependents. A library without sources is a pure header library.
type Library struct {
	name         label.Label
	sources      []string
	headers      []string
	dependencies []label.Label
	toolchain    label.Label
	changed      bool
}

// NewLibrary creates an empty library.
func NewLibrary(name label.Label) Library {
	return Library{name: name}
}

func (l Library) WithName(name label.Label) Library {
	l.name = name
	return l
}

func (l Library) WithSources(sources []string) Library {
	l.sources = slices.Clone(sources)
	return l
}

func (l Library) WithHeaders(headers []string) Library {
	l.headers = slices.Clone(headers)
	return l
}

func (l Library) WithDependencies(deps []label.Label) Library {
	l.dependencies = slices.Clone(deps)
	return l
}

func (l Library) WithToolchain(tc label.Label) Library {
	l.toolchain = tc
	return l
}

func (l Library) Name() label.Label           { return l.name }
func (l Library) Kind() Kind                  { return KindLibrary }
func (l Library) Sources() []string           { return slices.Clone(l.sources) }
func (l Library) Headers() []string           { return slices.Clone(l.headers) }
func (l Library) Dependencies() []label.Label { return slices.Clone(l.dependencies) }
func (l Library) ToolchainLabel() label.Label { return l.toolchain }
func (l Library) HasChanged() bool            { return l.changed }

// Inputs returns headers followed by sources.
func (l Library) Inputs() []string {
	return slices.Concat(l.headers, l.sources)
}

// Outputs returns a single artifact: every source with the toolchain's
// object extension, followed by the headers as pass-through files.
func (l Library) Outputs(bc Context) []artifact.Artifact {
	return []artifact.Artifact{unitArtifact(l.headers, l.sources, objectExt(bc, l.toolchain))}
}

// Build copies headers into the output tree and, if there are sources,
// compiles them against the headers and objects of all transitive dependencies.
func (l Library) Build(ctx context.Context, bc Context) error {
	return compileUnit(ctx, bc, l, l.sources, l.headers)
}

// Run is a no-op for libraries.
func (l Library) Run(ctx context.Context, bc Context) error { return nil }

func (Library) sealed() {}
