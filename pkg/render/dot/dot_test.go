package dot

import (
	"strings"
	"testing"

	"github.com/retrobench/retroviz/pkg/graph"
)

func testGraph() *graph.Flat {
	return &graph.Flat{
		Nodes: []graph.Node{
			{ID: "g-root", Smiles: "CCO", X: 80, Y: 0, Status: graph.StatusDefault, Identity: "CCO"},
			{ID: "g-root/0-CC", Smiles: "CC", X: 0, Y: 140, Status: graph.StatusInStock, InStock: true, Identity: "CC"},
			{ID: "g-root/1-O", Smiles: "O", X: 160, Y: 140, Status: graph.StatusGhost, Identity: "O"},
		},
		Edges: []graph.Edge{
			{ID: "g-root->g-root/0-CC", Source: "g-root", Target: "g-root/0-CC"},
			{ID: "g-root->g-root/1-O", Source: "g-root", Target: "g-root/1-O", Dashed: true},
		},
	}
}

func TestToDOTContainsNodesAndEdges(t *testing.T) {
	out := ToDOT(testGraph(), Options{})

	for _, want := range []string{
		`"g-root"`,
		`"g-root/0-CC"`,
		`"g-root" -> "g-root/0-CC";`,
		`label="CCO"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
}

func TestToDOTPinnedPositions(t *testing.T) {
	out := ToDOT(testGraph(), Options{})

	// Center of the root: x = 80 + 60, y = -(0 + 40).
	if !strings.Contains(out, `pos="140.00,-40.00!"`) {
		t.Errorf("DOT output missing pinned root position:\n%s", out)
	}
}

func TestToDOTStatusStyling(t *testing.T) {
	out := ToDOT(testGraph(), Options{})

	if !strings.Contains(out, "fillcolor=palegreen") {
		t.Error("in-stock node not styled")
	}
	if !strings.Contains(out, "fillcolor=lightgrey") {
		t.Error("ghost node not styled")
	}
	if !strings.Contains(out, `[style=dashed, color=grey50];`) {
		t.Error("dashed edge not styled")
	}
}

func TestToDOTDetailedLabels(t *testing.T) {
	out := ToDOT(testGraph(), Options{Detailed: true})

	if !strings.Contains(out, `status: ghost`) {
		t.Errorf("detailed label missing status:\n%s", out)
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<?xml version="1.0"?>
<svg width="8pt" height="6pt" viewBox="0.00 -100.00 200.00 150.00" xmlns="http://www.w3.org/2000/svg">
<g></g>
</svg>`)

	out := string(normalizeViewBox(in))
	if !strings.Contains(out, `viewBox="0 0 200.00 150.00"`) {
		t.Errorf("viewBox not normalized: %s", out)
	}
	if !strings.Contains(out, `width="200" height="150"`) {
		t.Errorf("dimensions not set: %s", out)
	}
}

func TestNormalizeViewBoxNoMatch(t *testing.T) {
	in := []byte("<svg>")
	if got := normalizeViewBox(in); string(got) != "<svg>" {
		t.Errorf("unexpected rewrite: %s", got)
	}
}
