package depgraph

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/zap/pkg/dag"
)

// ruleGraph builds:
//
//	//app:hello -> //lib:util -> //lib:base
//	//app:hello -> //lib:base
func ruleGraph(t *testing.T) *dag.DAG {
	t.Helper()
	g := dag.New(dag.Metadata{"build_id": "b-1"})
	nodes := []dag.Node{
		{ID: "//app:hello", Meta: dag.Metadata{"kind": "binary", "toolchain": "//toolchains:erlang"}},
		{ID: "//lib:util", Meta: dag.Metadata{"kind": "library", "toolchain": "//toolchains:erlang"}},
		{ID: "//lib:base", Meta: dag.Metadata{"kind": "library"}},
	}
	for _, n := range nodes {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	edges := [][2]string{
		{"//app:hello", "//lib:util"},
		{"//lib:util", "//lib:base"},
		{"//app:hello", "//lib:base"},
	}
	for _, e := range edges {
		if err := g.AddEdge(dag.Edge{From: e[0], To: e[1]}); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	g := ruleGraph(t)
	dot := ToDOT(g, Options{})

	for _, want := range []string{
		"digraph G {",
		`"//app:hello" [label="//app:hello", shape=box, penwidth=2];`,
		`"//lib:util" [label="//lib:util", shape=box];`,
		`"//app:hello" -> "//lib:util";`,
		`"//app:hello" -> "//lib:base";`,
	} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT missing %q:\n%s", want, dot)
		}
	}
}

func TestToDOTDetailed(t *testing.T) {
	dot := ToDOT(ruleGraph(t), Options{Detailed: true})
	want := `label="//app:hello\nlevel: 2\nkind: binary\ntoolchain: //toolchains:erlang"`
	if !strings.Contains(dot, want) {
		t.Errorf("DOT missing %q:\n%s", want, dot)
	}
}

func TestToDOTReduce(t *testing.T) {
	g := ruleGraph(t)
	dot := ToDOT(g, Options{Reduce: true})

	if strings.Contains(dot, `"//app:hello" -> "//lib:base";`) {
		t.Errorf("reduced DOT still has the implied edge:\n%s", dot)
	}
	if g.EdgeCount() != 3 {
		t.Errorf("input graph modified: %d edges, want 3", g.EdgeCount())
	}
}

func TestFromDAG(t *testing.T) {
	got := FromDAG(ruleGraph(t))
	want := Graph{
		BuildID: "b-1",
		Nodes: []Node{
			{ID: "//app:hello", Kind: "binary", Toolchain: "//toolchains:erlang", Level: 2},
			{ID: "//lib:base", Kind: "library", Level: 0},
			{ID: "//lib:util", Kind: "library", Toolchain: "//toolchains:erlang", Level: 1},
		},
		Edges: []Edge{
			{From: "//app:hello", To: "//lib:base"},
			{From: "//app:hello", To: "//lib:util"},
			{From: "//lib:util", To: "//lib:base"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromDAG() mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONRoundTrip(t *testing.T) {
	data, err := MarshalJSON(ruleGraph(t))
	if err != nil {
		t.Fatal(err)
	}
	back, err := ReadJSON(bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if back.NodeCount() != 3 || back.EdgeCount() != 3 {
		t.Fatalf("round trip: %d nodes, %d edges", back.NodeCount(), back.EdgeCount())
	}
	n, _ := back.Node("//lib:util")
	if n.Meta["kind"] != "library" {
		t.Errorf("kind = %v, want library", n.Meta["kind"])
	}
	if back.Meta()["build_id"] != "b-1" {
		t.Errorf("build_id = %v", back.Meta()["build_id"])
	}
}

func TestReadJSONRejectsCycle(t *testing.T) {
	in := `{"nodes":[{"id":"a"},{"id":"b"}],"edges":[{"from":"a","to":"b"},{"from":"b","to":"a"}]}`
	if _, err := ReadJSON(strings.NewReader(in)); err == nil {
		t.Fatal("expected cycle error")
	}
}

func TestRender(t *testing.T) {
	g := ruleGraph(t)
	ctx := context.Background()

	dot, err := Render(ctx, g, FormatDOT, Options{})
	if err != nil || !bytes.HasPrefix(dot, []byte("digraph G {")) {
		t.Fatalf("dot: %v %q", err, dot)
	}

	js, err := Render(ctx, g, FormatJSON, Options{Reduce: true})
	if err != nil {
		t.Fatal(err)
	}
	reduced, err := ReadJSON(bytes.NewReader(js))
	if err != nil {
		t.Fatal(err)
	}
	if reduced.EdgeCount() != 2 {
		t.Errorf("reduced JSON has %d edges, want 2:\n%s", reduced.EdgeCount(), js)
	}

	if _, err := Render(ctx, g, "png", Options{}); err == nil {
		t.Error("expected unsupported format error")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(ruleGraph(t), Options{}))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(svg, []byte("<svg")) {
		t.Errorf("not an SVG document: %.200s", svg)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="10pt" height="5pt" viewBox="0.00 0.00 100.25 40.00"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.25 40.00" width="100" height="40"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox() = %s, want %s", got, want)
	}
}
