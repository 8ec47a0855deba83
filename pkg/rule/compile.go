package rule

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/matzehuels/zap/pkg/artifact"
)

// unitArtifact describes a compilation unit: objects for every source,
// then headers passed through unchanged.
func unitArtifact(headers, sources []string, ext string) artifact.Artifact {
	outputs := make([]string, 0, len(sources)+len(headers))
	for _, s := range sources {
		outputs = append(outputs, artifact.WithExt(s, ext))
	}
	outputs = append(outputs, headers...)
	return artifact.Artifact{
		Inputs:  slices.Concat(headers, sources),
		Outputs: outputs,
	}
}

// compileUnit is the shared build algorithm of Library and Binary.
//
// The primary output handed to the compiler is the first object declared by
// self, in source order.
func compileUnit(ctx context.Context, bc Context, self Rule, sources, headers []string) error {
	deps, err := bc.TransitiveDependencies(self)
	if err != nil {
		return err
	}

	var depHeaders, depObjects []string
	for _, dep := range deps {
		for _, art := range dep.Outputs(bc) {
			for _, p := range art.PassThrough() {
				depHeaders = append(depHeaders, filepath.Join(bc.OutputPath(), p))
			}
			for _, p := range art.Derived() {
				depObjects = append(depObjects, filepath.Join(bc.OutputPath(), p))
			}
		}
	}

	searchHeaders := make([]string, 0, len(headers)+len(depHeaders))
	for _, h := range headers {
		searchHeaders = append(searchHeaders, bc.DeclareOutput(h))
	}
	searchHeaders = dedupe(append(searchHeaders, sortedSet(depHeaders)...))

	if err := bc.Copy(headers); err != nil {
		return err
	}

	if len(sources) == 0 {
		return nil
	}

	ext := objectExt(bc, self.ToolchainLabel())
	objects := make([]string, 0, len(sources)+len(depObjects))
	for _, s := range sources {
		objects = append(objects, bc.DeclareOutput(artifact.WithExt(s, ext)))
	}
	dest := objects[0]
	objects = dedupe(append(objects, sortedSet(depObjects)...))

	tc, err := bc.Toolchain()
	if err != nil {
		return err
	}

	srcs := make([]string, len(sources))
	for i, s := range sources {
		srcs[i] = bc.SourcePath(s)
	}
	return tc.Compile(ctx, srcs, searchHeaders, objects, dest)
}

// dedupe removes repeated entries, keeping the first occurrence.
func dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

// sortedSet returns the distinct entries of items in sorted order.
func sortedSet(items []string) []string {
	out := slices.Clone(items)
	slices.Sort(out)
	return slices.Compact(out)
}
