package dag

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-graphviz"
)

// DOTOptions configures DOT export.
type DOTOptions struct {
	// Detailed adds status and depth to node labels.
	Detailed bool
	// Title is emitted as the graph label when non-empty.
	Title string
}

// ToDOT converts the graph to Graphviz DOT format. Installed components are
// filled green, missing ones white, unknown ones grey.
func (g *Graph) ToDOT(opts DOTOptions) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, margin=\"0.2,0.1\"];\n")
	if opts.Title != "" {
		fmt.Fprintf(&buf, "  label=%q;\n  labelloc=t;\n", opts.Title)
	}
	buf.WriteString("\n")

	for e := range g.TopologicalOrder() {
		n, _ := g.Node(e.ID)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(dotAttrs(n, opts.Detailed), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.edges {
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.From, e.To)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func dotAttrs(n *Node, detailed bool) []string {
	label := string(n.ID)
	if n.Module.Title != "" && n.Module.Title != label {
		label += "\n" + n.Module.Title
	}
	if detailed {
		label += fmt.Sprintf("\nstatus: %s\ndepth: %d", n.Status, n.Depth)
	}
	attrs := []string{fmt.Sprintf("label=%q", label)}
	switch n.Status {
	case Installed:
		attrs = append(attrs, "fillcolor=palegreen")
	case Unknown:
		attrs = append(attrs, "fillcolor=lightgrey", "style=\"rounded,filled,dashed\"")
	}
	return attrs
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
	return buf.Bytes(), nil
}
