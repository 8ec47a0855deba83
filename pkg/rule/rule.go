// Package rule defines build rules: the declared units of work in a workspace.
//
// Rules form a closed set of variants ([Library], [Binary], [Toolchain]).
// New kinds are added to this package, never by implementing [Rule]
// elsewhere; the unexported sealed method enforces that. Variants are
// immutable values: every With* method returns a modified copy, so the same
// rule can be referenced from several graph positions without shared
// mutation.
//
// Rules do not know how the graph is traversed or where outputs live. They
// talk to a [Context], implemented by the build engine, which resolves
// dependencies, declares outputs and hands out the [Compiler] bound to the
// rule currently building.
package rule

import (
	"context"
	"fmt"

	"github.com/matzehuels/zap/pkg/artifact"
	"github.com/matzehuels/zap/pkg/label"
)

// DefaultObjectExt is the object extension used when a rule's toolchain cannot be resolved.
const DefaultObjectExt = "beam"

// Kind names a rule variant.
type Kind string

const (
	KindLibrary   Kind = "library"
	KindBinary    Kind = "binary"
	KindToolchain Kind = "toolchain"
)

// Rule is implemented by every rule variant.
type Rule interface {
	// Name is the rule's unique label.
	Name() label.Label
	// Kind identifies the variant.
	Kind() Kind
	// Dependencies are the labels this rule builds against, in declaration order.
	Dependencies() []label.Label
	// ToolchainLabel selects the toolchain; zero means the workspace default.
	ToolchainLabel() label.Label
	// Inputs are all input files, headers first, then sources.
	Inputs() []string
	// Outputs describes the files this rule produces. Computed fresh on every call.
	Outputs(bc Context) []artifact.Artifact
	// Build performs the rule's build step.
	Build(ctx context.Context, bc Context) error
	// Run is the post-build execution hook.
	Run(ctx context.Context, bc Context) error
	// HasChanged reports whether the rule's inputs changed since the last build.
	HasChanged() bool

	sealed()
}

// Compiler is the invocable side of a toolchain.
type Compiler interface {
	// Compile turns sources into objects. headers is the full header search
	// set and objects every object path visible to the compilation, starting
	// with the declared object of each source in source order. dest is the
	// primary output.
	Compile(ctx context.Context, sources, headers, objects []string, dest string) error
	// Run executes entry with the given object search path.
	Run(ctx context.Context, searchPath []string, entry string, args []string) error
	// ObjectExt is the extension of compiled objects, without the dot.
	ObjectExt() string
}

// Context is what a rule sees of the build engine while it builds.
type Context interface {
	// OutputPath is the root of all declared outputs.
	OutputPath() string
	// SourcePath resolves a workspace-relative input path.
	SourcePath(path string) string
	// DeclareOutput records path as an output and returns its location under OutputPath.
	// Declaring the same path again returns the same location.
	DeclareOutput(path string) string
	// Copy copies input files verbatim to their declared locations.
	Copy(paths []string) error
	// TransitiveDependencies returns every rule reachable from r, dependencies first.
	TransitiveDependencies(r Rule) ([]Rule, error)
	// Toolchain returns the compiler bound to the rule currently building.
	Toolchain() (Compiler, error)
	// ObjectExt returns the object extension of the given toolchain (zero = default).
	ObjectExt(toolchain label.Label) string
}

// WithChanged returns a copy of r with its changed flag set.
func WithChanged(r Rule, changed bool) Rule {
	switch v := r.(type) {
	case Library:
		v.changed = changed
		return v
	case Binary:
		v.changed = changed
		return v
	case Toolchain:
		v.changed = changed
		return v
	default:
		panic(fmt.Sprintf("rule: unknown variant %T", r))
	}
}

// Headers returns the header/resource files of r, or nil for variants without any.
func Headers(r Rule) []string {
	switch v := r.(type) {
	case Library:
		return v.Headers()
	case Binary:
		return v.Headers()
	case Toolchain:
		return nil
	default:
		panic(fmt.Sprintf("rule: unknown variant %T", r))
	}
}

// Sources returns the compiled source files of r, or nil for variants without any.
func Sources(r Rule) []string {
	switch v := r.(type) {
	case Library:
		return v.Sources()
	case Binary:
		return v.Sources()
	case Toolchain:
		return nil
	default:
		panic(fmt.Sprintf("rule: unknown variant %T", r))
	}
}

func objectExt(bc Context, tc label.Label) string {
	if bc == nil {
		return DefaultObjectExt
	}
	return bc.ObjectExt(tc)
}
