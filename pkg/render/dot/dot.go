package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/layout"
)

// Options configures DOT export.
type Options struct {
	// Detailed includes node status and identity in labels.
	// When false, only the SMILES string is shown.
	Detailed bool
}

// ToDOT converts a computed graph to Graphviz DOT format.
// Every node carries a pinned pos attribute taken from the layout engine,
// so the output should be rendered with the neato engine (see [RenderSVG]).
//
// Ghost nodes are drawn with dashed outlines and grey fill; dashed edges in
// the graph become dashed DOT edges.
func ToDOT(g *graph.Flat, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fillcolor=white, fontsize=14, fixedsize=true];\n")
	buf.WriteString("\n")

	for _, n := range g.Nodes {
		attrs := nodeAttrs(n, opts.Detailed)
		fmt.Fprintf(&buf, "  %q [%s];\n", n.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges {
		if e.Dashed {
			fmt.Fprintf(&buf, "  %q -> %q [style=dashed, color=grey50];\n", e.Source, e.Target)
			continue
		}
		fmt.Fprintf(&buf, "  %q -> %q;\n", e.Source, e.Target)
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeAttrs(n graph.Node, detailed bool) []string {
	label := n.Smiles
	if label == "" {
		label = n.ID
	}
	if detailed {
		parts := []string{label, "status: " + n.Status}
		if n.Identity != label {
			parts = append(parts, "identity: "+n.Identity)
		}
		label = strings.Join(parts, "\n")
	}

	// Graphviz pos is the node center in points with y pointing up.
	cx := n.X + layout.NodeWidth/2
	cy := -(n.Y + layout.NodeHeight/2)

	attrs := []string{
		fmt.Sprintf("label=%q", label),
		fmt.Sprintf("pos=\"%.2f,%.2f!\"", cx, cy),
		fmt.Sprintf("width=%.3f", layout.NodeWidth/72),
		fmt.Sprintf("height=%.3f", layout.NodeHeight/72),
	}
	attrs = append(attrs, statusAttrs(n)...)
	return attrs
}

func statusAttrs(n graph.Node) []string {
	switch n.Status {
	case graph.StatusInStock, graph.StatusMatch:
		return []string{"fillcolor=palegreen"}
	case graph.StatusExtension:
		return []string{"fillcolor=lightsalmon"}
	case graph.StatusGhost:
		return []string{"style=\"rounded,filled,dashed\"", "fillcolor=lightgrey", "fontcolor=grey30"}
	default:
		return nil
	}
}

// RenderSVG renders a DOT graph to SVG using the neato engine so pinned
// node positions are preserved.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()
	gv.SetLayout(graphviz.NEATO)

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
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.-]+)\s+([0-9.-]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root svg tag so the viewBox starts at the
// origin and explicit pixel dimensions are set. Browsers scale such SVGs
// predictably when embedded.
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
