package dag

import (
	"fmt"
	"slices"
	"strings"
)

// Validate checks graph integrity: every edge connects existing nodes and
// the graph is acyclic. Returns ErrInvalidEdgeEndpoint or an error wrapping
// ErrGraphHasCycle that names the cycle.
func (d *DAG) Validate() error {
	for _, e := range d.edges {
		_, okS := d.nodes[e.From]
		_, okD := d.nodes[e.To]
		if !okS || !okD {
			return ErrInvalidEdgeEndpoint
		}
	}
	if cycle := d.FindCycle(); cycle != nil {
		return fmt.Errorf("%w: %s", ErrGraphHasCycle, strings.Join(cycle, " -> "))
	}
	return nil
}

// FindCycle returns the first cycle found, as a path that starts and ends
// at the same node, or nil if the graph is acyclic. Nodes are visited in
// insertion order, so the result is deterministic.
//
// Cycle detection runs in O(N+E) time using depth-first search with
// white/gray/black coloring.
func (d *DAG) FindCycle() []string {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, len(d.nodes))
	var stack []string
	var cycle []string

	var dfs func(id string) bool
	dfs = func(id string) bool {
		color[id] = gray
		stack = append(stack, id)
		for _, child := range d.outgoing[id] {
			switch color[child] {
			case white:
				if dfs(child) {
					return true
				}
			case gray:
				start := slices.Index(stack, child)
				cycle = append(slices.Clone(stack[start:]), child)
				return true
			}
		}
		stack = stack[:len(stack)-1]
		color[id] = black
		return false
	}

	for _, id := range d.order {
		if color[id] == white && dfs(id) {
			return cycle
		}
	}
	return nil
}

// TopologicalOrder returns every node ID such that each node comes after
// all of its dependencies. Among nodes that are ready at the same time,
// insertion order wins. Returns an error wrapping ErrGraphHasCycle if the
// graph is cyclic.
func (d *DAG) TopologicalOrder() ([]string, error) {
	pending := make(map[string]int, len(d.nodes))
	var ready []string
	for _, id := range d.order {
		pending[id] = len(d.outgoing[id])
		if pending[id] == 0 {
			ready = append(ready, id)
		}
	}

	order := make([]string, 0, len(d.nodes))
	for len(ready) > 0 {
		curr := ready[0]
		ready = ready[1:]
		order = append(order, curr)

		var unlocked bool
		for _, parent := range d.incoming[curr] {
			pending[parent]--
			if pending[parent] == 0 {
				ready = append(ready, parent)
				unlocked = true
			}
		}
		if unlocked {
			slices.SortFunc(ready, func(a, b string) int { return d.index[a] - d.index[b] })
		}
	}

	if len(order) != len(d.nodes) {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		return nil, ErrGraphHasCycle
	}
	return order, nil
}

// Levels assigns every node its build level: 0 for nodes without
// dependencies, otherwise one more than the highest level among its
// dependencies. Nodes on a cycle are left out.
func (d *DAG) Levels() map[string]int {
	pending := make(map[string]int, len(d.nodes))
	levels := make(map[string]int, len(d.nodes))
	queue := make([]string, 0, len(d.nodes))

	for _, id := range d.order {
		pending[id] = len(d.outgoing[id])
		if pending[id] == 0 {
			queue = append(queue, id)
			levels[id] = 0
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, parent := range d.incoming[curr] {
			if lvl := levels[curr] + 1; lvl > levels[parent] {
				levels[parent] = lvl
			}
			pending[parent]--
			if pending[parent] == 0 {
				queue = append(queue, parent)
			}
		}
	}

	for id, n := range pending {
		if n > 0 {
			delete(levels, id)
		}
	}
	return levels
}

// Reachable returns the given roots and everything they depend on,
// transitively, in insertion order. Unknown roots are ignored.
func (d *DAG) Reachable(roots ...string) []string {
	seen := make(map[string]bool, len(d.nodes))
	var visit func(id string)
	visit = func(id string) {
		if seen[id] {
			return
		}
		seen[id] = true
		for _, child := range d.outgoing[id] {
			visit(child)
		}
	}
	for _, r := range roots {
		if _, ok := d.nodes[r]; ok {
			visit(r)
		}
	}

	var out []string
	for _, id := range d.order {
		if seen[id] {
			out = append(out, id)
		}
	}
	return out
}

// Subgraph returns a new graph with only the given nodes and the edges
// between them. Node and edge metadata maps are shared with d.
func (d *DAG) Subgraph(ids []string) *DAG {
	keep := make(map[string]bool, len(ids))
	for _, id := range ids {
		keep[id] = true
	}

	sub := New(d.meta)
	for _, id := range d.order {
		if keep[id] {
			_ = sub.AddNode(*d.nodes[id])
		}
	}
	for _, e := range d.edges {
		if keep[e.From] && keep[e.To] {
			_ = sub.AddEdge(e)
		}
	}
	return sub
}

// TransitiveReduction removes every edge (u, v) for which u reaches v
// through another dependency. If A→B, B→C and A→C exist, A→C is removed.
//
// The reachability matrix makes this O(V²) in space; fine for rule graphs.
func (d *DAG) TransitiveReduction() {
	n := len(d.order)
	if n == 0 {
		return
	}

	adjacency := make([][]int, n)
	for _, e := range d.edges {
		adjacency[d.index[e.From]] = append(adjacency[d.index[e.From]], d.index[e.To])
	}

	reachable := make([][]bool, n)
	for i := range reachable {
		reachable[i] = make([]bool, n)
	}
	var dfs func(source, current int)
	dfs = func(source, current int) {
		if reachable[source][current] {
			return
		}
		reachable[source][current] = true
		for _, next := range adjacency[current] {
			dfs(source, next)
		}
	}
	for i := range n {
		dfs(i, i)
	}

	for _, e := range d.Edges() {
		src, dst := d.index[e.From], d.index[e.To]
		for _, mid := range adjacency[src] {
			if mid != dst && reachable[mid][dst] {
				d.RemoveEdge(e.From, e.To)
				break
			}
		}
	}
}
