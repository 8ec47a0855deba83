// Package depgraph renders the rule dependency graph for inspection.
//
// The graph itself comes from [build.Runner.Graph]: one node per rule with
// "kind" and "toolchain" metadata, and an edge from every rule to each of its
// dependencies. This package turns it into Graphviz DOT, SVG or JSON.
//
//	g, _ := runner.Graph(bc, targets)
//	dot := depgraph.ToDOT(g, depgraph.Options{})
//	svg, _ := depgraph.RenderSVG(dot)
package depgraph

import (
	"bytes"
	"context"
	"fmt"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/zap/pkg/dag"
)

// Options configures DOT output.
type Options struct {
	// Detailed adds the node's level and metadata to its label.
	Detailed bool
	// Reduce drops edges implied by longer paths before rendering.
	Reduce bool
}

// Format names accepted by Render.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatJSON = "json"
)

// Formats lists the supported output formats.
var Formats = []string{FormatDOT, FormatSVG, FormatJSON}

var kindAttrs = map[string][]string{
	"library":   {"shape=box"},
	"binary":    {"shape=box", "penwidth=2"},
	"toolchain": {"shape=component", "fillcolor=lightgrey"},
}

// ToDOT converts a rule graph to Graphviz DOT. Dependencies are drawn below
// their dependents. g is not modified; with Reduce a copy is reduced.
func ToDOT(g *dag.DAG, opts Options) string {
	if opts.Reduce {
		g = reduced(g)
	}
	levels := g.Levels()

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	buf.WriteString("  ranksep=0.5;\n")
	buf.WriteString("  nodesep=0.3;\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		label := fmtLabel(*n, levels[n.ID], opts.Detailed)
		attrs := fmtAttrs(*n, label)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func fmtLabel(n dag.Node, level int, detailed bool) string {
	if !detailed {
		return n.ID
	}

	parts := []string{fmt.Sprintf("level: %d", level)}
	for _, k := range slices.Sorted(maps.Keys(n.Meta)) {
		parts = append(parts, fmt.Sprintf("%s: %v", k, n.Meta[k]))
	}

	return n.ID + "\n" + strings.Join(parts, "\n")
}

func fmtAttrs(n dag.Node, label string) []string {
	attrs := []string{fmt.Sprintf("label=%q", label)}
	if kind, ok := n.Meta["kind"].(string); ok {
		attrs = append(attrs, kindAttrs[kind]...)
	}
	return attrs
}

func reduced(g *dag.DAG) *dag.DAG {
	c := g.Subgraph(g.NodeIDs())
	c.TransitiveReduction()
	return c
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from the origin.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}

// Render produces g in the named format.
func Render(ctx context.Context, g *dag.DAG, format string, opts Options) ([]byte, error) {
	switch format {
	case FormatDOT, "":
		return []byte(ToDOT(g, opts)), nil
	case FormatSVG:
		return RenderSVG(ctx, ToDOT(g, opts))
	case FormatJSON:
		if opts.Reduce {
			g = reduced(g)
		}
		return MarshalJSON(g)
	default:
		return nil, fmt.Errorf("unsupported format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}
