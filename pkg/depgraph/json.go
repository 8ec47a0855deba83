package depgraph

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/matzehuels/zap/pkg/dag"
)

// Graph is the JSON form of a rule graph.
//
//	{
//	  "build_id": "…",
//	  "nodes": [{"id": "//lib:util", "kind": "library", "level": 0}],
//	  "edges": [{"from": "//app:hello", "to": "//lib:util"}]
//	}
type Graph struct {
	BuildID string `json:"build_id,omitempty"`
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
}

// Node is one rule.
type Node struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind,omitempty"`
	Toolchain string         `json:"toolchain,omitempty"`
	Level     int            `json:"level"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// Edge points from a dependent to its dependency.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

const (
	metaKind      = "kind"
	metaToolchain = "toolchain"
	metaBuildID   = "build_id"
)

// FromDAG converts g to its serialization format. Nodes are sorted by ID,
// edges by endpoints, so output is stable across runs.
func FromDAG(g *dag.DAG) Graph {
	levels := g.Levels()
	nodes := g.Nodes()
	slices.SortFunc(nodes, func(a, b *dag.Node) int { return strings.Compare(a.ID, b.ID) })

	out := Graph{
		Nodes: make([]Node, len(nodes)),
		Edges: make([]Edge, 0, g.EdgeCount()),
	}
	if id, ok := g.Meta()[metaBuildID].(string); ok {
		out.BuildID = id
	}

	for i, n := range nodes {
		node := Node{ID: n.ID, Level: levels[n.ID]}
		rest := make(map[string]any)
		for k, v := range n.Meta {
			switch k {
			case metaKind:
				node.Kind, _ = v.(string)
			case metaToolchain:
				node.Toolchain, _ = v.(string)
			default:
				rest[k] = v
			}
		}
		if len(rest) > 0 {
			node.Meta = rest
		}
		out.Nodes[i] = node
	}

	for _, e := range g.Edges() {
		out.Edges = append(out.Edges, Edge{From: e.From, To: e.To})
	}
	slices.SortFunc(out.Edges, func(a, b Edge) int {
		if c := strings.Compare(a.From, b.From); c != 0 {
			return c
		}
		return strings.Compare(a.To, b.To)
	})
	return out
}

// ToDAG rebuilds a graph. Levels are recomputed, not read back.
func ToDAG(gj Graph) (*dag.DAG, error) {
	var meta dag.Metadata
	if gj.BuildID != "" {
		meta = dag.Metadata{metaBuildID: gj.BuildID}
	}
	d := dag.New(meta)

	for _, nj := range gj.Nodes {
		m := dag.Metadata{}
		maps.Copy(m, nj.Meta)
		if nj.Kind != "" {
			m[metaKind] = nj.Kind
		}
		if nj.Toolchain != "" {
			m[metaToolchain] = nj.Toolchain
		}
		if err := d.AddNode(dag.Node{ID: nj.ID, Meta: m}); err != nil {
			return nil, fmt.Errorf("add node %s: %w", nj.ID, err)
		}
	}
	for _, ej := range gj.Edges {
		if err := d.AddEdge(dag.Edge{From: ej.From, To: ej.To}); err != nil {
			return nil, fmt.Errorf("add edge %s→%s: %w", ej.From, ej.To, err)
		}
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// MarshalJSON encodes g as indented JSON.
func MarshalJSON(g *dag.DAG) ([]byte, error) {
	data, err := json.MarshalIndent(FromDAG(g), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return append(data, '\n'), nil
}

// ReadJSON decodes a graph written by MarshalJSON.
func ReadJSON(r io.Reader) (*dag.DAG, error) {
	var gj Graph
	if err := json.NewDecoder(r).Decode(&gj); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return ToDAG(gj)
}
