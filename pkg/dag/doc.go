// Package dag provides the dependency graph the build scheduler runs on.
//
// # Overview
//
// Nodes are build rules identified by their label string; an edge points
// from a dependent to one of its dependencies. The graph keeps insertion
// order for nodes and edges, so that orderings derived from it are
// reproducible from one run to the next.
//
// # Basic Usage
//
//	g := dag.New(nil)
//	g.AddNode(dag.Node{ID: "//app:server"})
//	g.AddNode(dag.Node{ID: "//lib:util"})
//	g.AddEdge(dag.Edge{From: "//app:server", To: "//lib:util"})
//
//	if err := g.Validate(); err != nil { ... }
//	order, _ := g.TopologicalOrder() // [//lib:util //app:server]
//
// # Cycles
//
// [DAG.Validate] and [DAG.TopologicalOrder] refuse cyclic graphs with an
// error wrapping [ErrGraphHasCycle]. [DAG.FindCycle] returns the offending
// path for reporting.
//
// # Concurrency
//
// DAG instances are not safe for concurrent use. The build scheduler builds
// a graph once and only reads it afterwards.
package dag
