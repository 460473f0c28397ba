package diff

import (
	"reflect"
	"testing"

	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/route"
)

func leaf(smiles string) *route.Node {
	return &route.Node{Identity: smiles, Smiles: smiles}
}

func branch(smiles string, children ...*route.Node) *route.Node {
	return &route.Node{Identity: smiles, Smiles: smiles, Children: children}
}

// statusByIdentity indexes node statuses for assertions. Callers must only
// use it on graphs without duplicate identities.
func statusByIdentity(f graph.Flat) map[string]string {
	m := make(map[string]string, len(f.Nodes))
	for _, n := range f.Nodes {
		m[n.Identity] = n.Status
	}
	return m
}

func TestOverlayScenario(t *testing.T) {
	// Ground truth CCO -> [CC, O]; prediction replaces O with CO.
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))

	f := Overlay(gt, pred)

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(f.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4", len(f.Nodes))
	}

	statuses := statusByIdentity(f)
	want := map[string]string{
		"CCO": graph.StatusMatch,
		"CC":  graph.StatusMatch,
		"O":   graph.StatusGhost,
		"CO":  graph.StatusExtension,
	}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}

	var ghostID string
	for _, n := range f.Nodes {
		if n.Identity == "O" {
			ghostID = n.ID
		}
	}
	dashed := false
	for _, e := range f.Edges {
		if e.Target == ghostID {
			dashed = e.Dashed
		}
	}
	if !dashed {
		t.Error("edge into ghost node is not dashed")
	}
}

func TestOverlayIdenticalLeaves(t *testing.T) {
	tree := leaf("CCO")

	f := Overlay(tree, tree)

	if len(f.Nodes) != 1 {
		t.Fatalf("nodes = %d, want 1", len(f.Nodes))
	}
	if f.Nodes[0].Status != graph.StatusMatch {
		t.Errorf("status = %q, want %q", f.Nodes[0].Status, graph.StatusMatch)
	}
	if len(f.Edges) != 0 {
		t.Errorf("edges = %d, want 0", len(f.Edges))
	}
}

func TestOverlayLeafVersusSubtree(t *testing.T) {
	gt := branch("CCO", branch("CC", leaf("C")), leaf("O"))
	pred := leaf("CCO")

	f := Overlay(gt, pred)

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	statuses := statusByIdentity(f)
	if statuses["CCO"] != graph.StatusMatch {
		t.Errorf("CCO = %q, want match", statuses["CCO"])
	}
	for _, id := range []string{"CC", "C", "O"} {
		if statuses[id] != graph.StatusGhost {
			t.Errorf("%s = %q, want ghost", id, statuses[id])
		}
	}
}

func TestOverlayNilSides(t *testing.T) {
	tree := branch("a", leaf("b"))

	if f := Overlay(nil, nil); len(f.Nodes) != 0 {
		t.Errorf("nil/nil = %d nodes, want 0", len(f.Nodes))
	}

	f := Overlay(tree, nil)
	for _, n := range f.Nodes {
		if n.Status != graph.StatusGhost {
			t.Errorf("gt-only node %s = %q, want ghost", n.Identity, n.Status)
		}
	}

	f = Overlay(nil, tree)
	for _, n := range f.Nodes {
		if n.Status != graph.StatusExtension {
			t.Errorf("pred-only node %s = %q, want extension", n.Identity, n.Status)
		}
	}
}

func TestOverlayDoesNotMutateInputs(t *testing.T) {
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))
	gtBefore := gt.Clone()
	predBefore := pred.Clone()

	Overlay(gt, pred)

	if !reflect.DeepEqual(gt, gtBefore) {
		t.Error("Overlay mutated the ground-truth tree")
	}
	if !reflect.DeepEqual(pred, predBefore) {
		t.Error("Overlay mutated the prediction tree")
	}
}

func TestSideBySidePrediction(t *testing.T) {
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))
	gtSet := route.Identities(gt)
	predSet := route.Identities(pred)

	f := SideBySide(pred, gt, predSet, gtSet, false, "p-")

	if err := f.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(f.Nodes) != 4 {
		t.Fatalf("nodes = %d, want 4 (root, CC, CO, injected O ghost)", len(f.Nodes))
	}

	statuses := statusByIdentity(f)
	want := map[string]string{
		"CCO": graph.StatusMatch,
		"CC":  graph.StatusMatch,
		"CO":  graph.StatusExtension,
		"O":   graph.StatusGhost,
	}
	if !reflect.DeepEqual(statuses, want) {
		t.Errorf("statuses = %v, want %v", statuses, want)
	}
}

func TestSideBySidePrimary(t *testing.T) {
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))
	gtSet := route.Identities(gt)
	predSet := route.Identities(pred)

	f := SideBySide(gt, pred, gtSet, predSet, true, "g-")

	if len(f.Nodes) != 3 {
		t.Fatalf("nodes = %d, want 3", len(f.Nodes))
	}
	for _, n := range f.Nodes {
		if n.Status != graph.StatusMatch {
			t.Errorf("node %s = %q, want match", n.Identity, n.Status)
		}
	}
}

func TestSideBySideGhostAnchor(t *testing.T) {
	// Reference has a deeper branch: D is a child of B, and B exists in the
	// prediction at depth 1. The ghost for D must attach under the rendered B,
	// not under the root.
	gt := branch("A", branch("B", leaf("D")))
	pred := branch("A", branch("B", leaf("C")))

	f := SideBySide(pred, gt, route.Identities(pred), route.Identities(gt), false, "p-")

	var ghostID string
	for _, n := range f.Nodes {
		if n.Identity == "D" {
			if n.Status != graph.StatusGhost {
				t.Fatalf("D = %q, want ghost", n.Status)
			}
			ghostID = n.ID
		}
	}
	if ghostID == "" {
		t.Fatal("ghost D not injected")
	}

	var parentID string
	for _, e := range f.Edges {
		if e.Target == ghostID {
			parentID = e.Source
			if !e.Dashed {
				t.Error("ghost edge not dashed")
			}
		}
	}
	parent, ok := f.Node(parentID)
	if !ok {
		t.Fatalf("ghost parent %q missing", parentID)
	}
	if parent.Identity != "B" {
		t.Errorf("ghost anchored under %q, want B", parent.Identity)
	}
}

func TestSideBySideGhostChain(t *testing.T) {
	// A whole reference branch missing from the prediction: ghosts must chain
	// under each other rather than pile onto the root.
	gt := branch("A", branch("X", leaf("Y")))
	pred := branch("A", leaf("B"))

	f := SideBySide(pred, gt, route.Identities(pred), route.Identities(gt), false, "p-")

	statuses := statusByIdentity(f)
	if statuses["X"] != graph.StatusGhost || statuses["Y"] != graph.StatusGhost {
		t.Fatalf("statuses = %v, want X and Y ghost", statuses)
	}

	idOf := func(identity string) string {
		for _, n := range f.Nodes {
			if n.Identity == identity {
				return n.ID
			}
		}
		return ""
	}
	for _, e := range f.Edges {
		if e.Target == idOf("Y") && e.Source != idOf("X") {
			t.Errorf("ghost Y anchored under %q, want the X ghost", e.Source)
		}
	}
}

func TestSideBySideDoesNotMutateInputs(t *testing.T) {
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))
	gtSet := route.Identities(gt)
	predSet := route.Identities(pred)
	predBefore := pred.Clone()

	SideBySide(pred, gt, predSet, gtSet, false, "p-")

	if !reflect.DeepEqual(pred, predBefore) {
		t.Error("SideBySide mutated the rendered tree")
	}
	if gtSet.Len() != 3 || predSet.Len() != 3 {
		t.Errorf("identity sets mutated: %d/%d, want 3/3", gtSet.Len(), predSet.Len())
	}
}

func TestSideBySidePrefixDisjointFromPrimary(t *testing.T) {
	gt := branch("CCO", leaf("CC"), leaf("O"))
	pred := branch("CCO", leaf("CC"), leaf("CO"))
	gtSet := route.Identities(gt)
	predSet := route.Identities(pred)

	left := SideBySide(gt, pred, gtSet, predSet, true, "gt-")
	right := SideBySide(pred, gt, predSet, gtSet, false, "pred-")

	seen := make(map[string]struct{})
	for _, n := range left.Nodes {
		seen[n.ID] = struct{}{}
	}
	for _, n := range right.Nodes {
		if _, clash := seen[n.ID]; clash {
			t.Errorf("id %q appears on both sides", n.ID)
		}
	}
}
