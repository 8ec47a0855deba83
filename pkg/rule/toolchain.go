package rule

import (
	"context"
	"slices"

	"github.com/matzehuels/zap/pkg/artifact"
	"github.com/matzehuels/zap/pkg/label"
)

// Default command-line flags of a toolchain compiler (erlc conventions).
const (
	DefaultOutputFlag  = "-o"
	DefaultIncludeFlag = "-I"
	DefaultPathFlag    = "-pa"
)

// Toolchain is the declared identity of a toolchain: which binaries inside
// its archive compile and run code, and how they are invoked. It has no
// inputs and builds nothing itself; acquisition is done by the toolchain
// manager before any rule builds.
type Toolchain struct {
	name        label.Label
	compiler    string
	runtime     string
	objectExt   string
	args        []string
	outputFlag  string
	includeFlag string
	pathFlag    string
	changed     bool
}

// NewToolchain creates a toolchain declaration with erlc-style flags.
func NewToolchain(name label.Label) Toolchain {
	return Toolchain{
		name:        name,
		objectExt:   DefaultObjectExt,
		outputFlag:  DefaultOutputFlag,
		includeFlag: DefaultIncludeFlag,
		pathFlag:    DefaultPathFlag,
	}
}

func (t Toolchain) WithName(name label.Label) Toolchain {
	t.name = name
	return t
}

// WithCompiler sets the compiler path, relative to the unpacked archive root.
func (t Toolchain) WithCompiler(path string) Toolchain {
	t.compiler = path
	return t
}

// WithRuntime sets the runtime path, relative to the unpacked archive root.
func (t Toolchain) WithRuntime(path string) Toolchain {
	t.runtime = path
	return t
}

func (t Toolchain) WithObjectExt(ext string) Toolchain {
	if ext != "" {
		t.objectExt = ext
	}
	return t
}

// WithArgs sets extra compiler arguments placed before all generated ones.
func (t Toolchain) WithArgs(args []string) Toolchain {
	t.args = slices.Clone(args)
	return t
}

// WithFlags overrides the output, include and search-path flags. Empty values keep the current flag.
func (t Toolchain) WithFlags(output, include, path string) Toolchain {
	if output != "" {
		t.outputFlag = output
	}
	if include != "" {
		t.includeFlag = include
	}
	if path != "" {
		t.pathFlag = path
	}
	return t
}

func (t Toolchain) Name() label.Label           { return t.name }
func (t Toolchain) Kind() Kind                  { return KindToolchain }
func (t Toolchain) Compiler() string            { return t.compiler }
func (t Toolchain) Runtime() string             { return t.runtime }
func (t Toolchain) ObjectExt() string           { return t.objectExt }
func (t Toolchain) Args() []string              { return slices.Clone(t.args) }
func (t Toolchain) OutputFlag() string          { return t.outputFlag }
func (t Toolchain) IncludeFlag() string         { return t.includeFlag }
func (t Toolchain) PathFlag() string            { return t.pathFlag }
func (t Toolchain) Dependencies() []label.Label { return nil }
func (t Toolchain) ToolchainLabel() label.Label { return "" }
func (t Toolchain) HasChanged() bool            { return t.changed }
func (t Toolchain) Inputs() []string            { return nil }

func (t Toolchain) Outputs(bc Context) []artifact.Artifact { return nil }

func (t Toolchain) Build(ctx context.Context, bc Context) error { return nil }

func (t Toolchain) Run(ctx context.Context, bc Context) error { return nil }

func (Toolchain) sealed() {}
