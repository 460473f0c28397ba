package layout

import (
	"fmt"

	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/route"
)

// Layout-unit constants shared by every layout call. Changing them rescales
// all output proportionally without changing topology.
const (
	// NodeWidth is the horizontal extent reserved for a single node.
	NodeWidth = 120.0
	// NodeHeight is the vertical extent of a single node.
	NodeHeight = 80.0
	// HorizontalSpacing is the gap between adjacent sibling subtrees.
	HorizontalSpacing = 40.0
	// VerticalSpacing is the gap between consecutive depth levels.
	VerticalSpacing = 60.0
)

// node is an arena entry. Children are indices into the same arena rather
// than pointers, so a layout run owns all of its intermediate state.
type node struct {
	id       string
	identity string
	smiles   string
	width    float64
	x, y     float64
	children []int
}

// arena holds every layout node of a single run. Index 0 is the root.
type arena struct {
	nodes []node
}

// Tree lays out a route tree and returns the flattened graph.
//
// Node ids are derived from idPrefix plus the node's path in the tree (the
// sibling index and identity at every level), so ids stay unique and stable
// even when the same chemical identity appears at multiple positions.
// Different prefixes yield identical geometry under disjoint id namespaces,
// which lets callers overlay two independently laid-out trees.
//
// A nil root produces an empty graph. Statuses are left as
// [graph.StatusDefault]; use [BuildRoute] for stock annotation.
func Tree(root *route.Node, idPrefix string) graph.Flat {
	if root == nil {
		return graph.Flat{}
	}
	a := &arena{}
	rootIdx := a.build(root, idPrefix+"root")
	a.computeWidth(rootIdx)
	a.position(rootIdx, 0, 0)

	f := graph.Flat{
		Nodes: make([]graph.Node, 0, len(a.nodes)),
		Edges: make([]graph.Edge, 0, len(a.nodes)-1),
	}
	a.flatten(rootIdx, &f)
	return f
}

// BuildRoute lays out a route tree and annotates every node with its stock
// membership: Status becomes [graph.StatusInStock] or [graph.StatusDefault]
// and InStock mirrors the set lookup. Neither the tree nor the set is
// modified, and node positions match [Tree] exactly.
func BuildRoute(root *route.Node, inStock route.IdentitySet, idPrefix string) graph.Flat {
	f := Tree(root, idPrefix)
	f.AnnotateStock(inStock)
	return f
}

// ChildID returns the path-derived id of the i-th child of a parent id.
// The diff engine uses this to reproduce layout ids when injecting ghosts.
func ChildID(parentID string, index int, identity string) string {
	return fmt.Sprintf("%s/%d-%s", parentID, index, identity)
}

// build recursively appends the subtree rooted at src to the arena and
// returns its index. Pass 1 of 3.
func (a *arena) build(src *route.Node, id string) int {
	idx := len(a.nodes)
	a.nodes = append(a.nodes, node{
		id:       id,
		identity: src.Identity,
		smiles:   src.Smiles,
	})
	if len(src.Children) > 0 {
		children := make([]int, len(src.Children))
		for i, c := range src.Children {
			children[i] = a.build(c, ChildID(id, i, c.Identity))
		}
		a.nodes[idx].children = children
	}
	return idx
}

// computeWidth assigns subtree widths post-order. Pass 2 of 3: a leaf spans
// NodeWidth; an internal node spans its children plus spacing, never less
// than NodeWidth. Position assignment depends on every width being known.
func (a *arena) computeWidth(idx int) float64 {
	n := &a.nodes[idx]
	if len(n.children) == 0 {
		n.width = NodeWidth
		return n.width
	}
	total := 0.0
	for _, c := range n.children {
		total += a.computeWidth(c)
	}
	total += float64(len(n.children)-1) * HorizontalSpacing
	if total < NodeWidth {
		total = NodeWidth
	}
	n.width = total
	return total
}

// position assigns coordinates pre-order. Pass 3 of 3: a node is centered
// within its allocated width starting at x0, children are packed
// left-to-right from x0, and y advances one row per depth level.
func (a *arena) position(idx int, x0, y0 float64) {
	n := &a.nodes[idx]
	n.x = x0 + (n.width-NodeWidth)/2
	n.y = y0

	childX := x0
	childY := y0 + NodeHeight + VerticalSpacing
	for _, c := range n.children {
		a.position(c, childX, childY)
		childX += a.nodes[c].width + HorizontalSpacing
	}
}

// flatten collects nodes and parent→child edges pre-order, preserving the
// source tree's child ordering.
func (a *arena) flatten(idx int, f *graph.Flat) {
	n := a.nodes[idx]
	f.Nodes = append(f.Nodes, graph.Node{
		ID:       n.id,
		Smiles:   n.smiles,
		Identity: n.identity,
		X:        n.x,
		Y:        n.y,
		Status:   graph.StatusDefault,
	})
	for _, c := range n.children {
		f.Edges = append(f.Edges, graph.Edge{
			ID:     EdgeID(n.id, a.nodes[c].id),
			Source: n.id,
			Target: a.nodes[c].id,
		})
		a.flatten(c, f)
	}
}

// EdgeID returns the canonical id for an edge between two node ids.
func EdgeID(source, target string) string {
	return fmt.Sprintf("%s->%s", source, target)
}
