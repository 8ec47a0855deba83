// Package pkg provides the core libraries of zap, a workspace build tool.
//
// # Overview
//
// A workspace is a directory tree with a workspace.toml at its root and
// BUILD.hcl rule scripts below it. Rules declare libraries, binaries and the
// toolchains that compile them. zap loads the rules, fetches the toolchains
// and builds the requested targets with their dependencies, skipping rules
// whose inputs have not changed.
//
// # Architecture
//
// The typical data flow through zap:
//
//	workspace.toml + BUILD.hcl
//	         ↓
//	    [workspace] package (config, rule scripts → rules, archives)
//	         ↓
//	    [toolchain] package (register, fetch and unpack archives)
//	         ↓
//	    [build] package (context, dependency order, incremental runner)
//	         ↓
//	    objects under the output directory
//
// # Main Packages
//
// ## Domain
//
// [label] - Rule names of the form //pkg:name, with relative resolution.
//
// [rule] - The closed set of rule variants: Library, Binary and Toolchain.
//
// [artifact] - Input/output descriptions of a rule and their fingerprints.
//
// [archive] - Toolchain payloads: download, checksum and unpack with
// external tools.
//
// ## Engine
//
// [build] - The build context shared by rules, and the runner that schedules
// them over the dependency graph with a bounded worker pool.
//
// [dag] - Directed acyclic graph with cycle detection, topological levels
// and transitive reduction.
//
// [cache] - Fingerprint storage: FileCache on disk, NullCache for --no-cache.
//
// [toolchain] - Registered toolchains and their concurrent acquisition.
//
// [process] - External process execution behind a Runner interface.
//
// ## Surfaces
//
// [workspace] - workspace.toml and the BUILD.hcl loader.
//
// [depgraph] - DOT, SVG and JSON renderings of the rule graph.
//
// [observability] - Hooks for build, toolchain and cache events.
//
// [errors] - Coded errors shared across packages.
//
// [buildinfo] - Version information set at link time.
//
// # Common Workflows
//
// Load a workspace and build everything:
//
//	mgr := toolchain.NewManager(toolchain.Options{})
//	ws, loaded, _ := workspace.Load(ctx, ".", mgr)
//	_ = mgr.Acquire(ctx, nil)
//
//	bc, _ := build.NewContext(loaded.Rules, ws.BuildOptions(mgr, nil))
//	res, _ := build.NewRunner(nil, nil, nil).Build(ctx, bc, nil)
//	fmt.Println(res.Count(build.StatusBuilt), "built")
//
// Render the dependency graph:
//
//	g, _ := build.NewRunner(nil, nil, nil).Graph(bc, nil)
//	svg, _ := depgraph.Render(ctx, g, depgraph.FormatSVG, depgraph.Options{Reduce: true})
//
// # Testing
//
// Run tests:
//
//	go test ./...                # All tests
//	go test ./pkg/build/...      # Specific package
//
// [label]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/label
// [rule]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/rule
// [artifact]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/artifact
// [archive]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/archive
// [build]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/build
// [dag]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/dag
// [cache]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/cache
// [toolchain]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/toolchain
// [process]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/process
// [workspace]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/workspace
// [depgraph]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/depgraph
// [observability]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/zap/pkg/buildinfo
package pkg
