package diff

import (
	"github.com/retrobench/retroviz/pkg/graph"
	"github.com/retrobench/retroviz/pkg/layout"
	"github.com/retrobench/retroviz/pkg/route"
)

// OverlayPrefix is the id prefix used for the merged overlay graph.
const OverlayPrefix = "diff-"

// SideBySide lays out tree independently and classifies every node against
// the other route for a side-by-side comparison view.
//
// When isPrimary is true the call renders the reference side: every node is
// [graph.StatusMatch], since the reference defines the basis of comparison,
// and no ghosts are injected.
//
// When isPrimary is false the call renders the prediction side: a node whose
// identity occurs in otherSet is a match, any other node is an extension
// (a molecule the reference route does not contain), and every identity
// present in other but absent from tree is injected as a ghost node with a
// dashed incoming edge.
//
// Ghost anchoring is deterministic: a ghost attaches under the deepest
// already-present node whose identity equals the ghost's parent identity in
// the reference tree (ties break to the first such node in preorder), falling
// back to the rendered root when no parent match exists. Ghosts are appended
// after the real children of their anchor, in the reference tree's preorder.
// Because ghosts are injected before layout, the final geometry is overlap
// free.
//
// treeSet and otherSet must be the identity sets of tree and other (callers
// usually already hold them for stock lookups). Neither input tree nor either
// set is modified.
func SideBySide(tree, other *route.Node, treeSet, otherSet route.IdentitySet, isPrimary bool, idPrefix string) graph.Flat {
	if tree == nil {
		return graph.Flat{}
	}

	if isPrimary {
		f := layout.Tree(tree, idPrefix)
		for i := range f.Nodes {
			f.Nodes[i].Status = graph.StatusMatch
		}
		return f
	}

	m := newShadow(tree, false)
	injectGhosts(m, other, treeSet)

	f, statuses := layoutShadow(m, idPrefix)
	for i := range f.Nodes {
		switch {
		case statuses[i]:
			f.Nodes[i].Status = graph.StatusGhost
		case otherSet.Has(f.Nodes[i].Identity):
			f.Nodes[i].Status = graph.StatusMatch
		default:
			f.Nodes[i].Status = graph.StatusExtension
		}
	}
	dashGhostEdges(&f)
	return f
}

// Overlay merges a ground-truth route and a predicted route into a single
// graph in one coordinate space.
//
// The two trees are walked together, joining children by identity rather
// than position. Each merged node is classified by identity-set membership:
// present in both routes → match, only in the ground truth → ghost, only in
// the prediction → extension. Edges into ghost nodes are dashed.
//
// The walk is total over well-formed trees: either side may be nil or
// structurally larger at any node. Two identical single-leaf trees produce
// exactly one match node and no edges. In the degenerate case where the two
// roots have different identities, the ground-truth root anchors the canvas
// and the prediction root is merged beneath it as an unmatched branch.
func Overlay(groundTruth, prediction *route.Node) graph.Flat {
	if groundTruth == nil && prediction == nil {
		return graph.Flat{}
	}

	gtSet := route.Identities(groundTruth)
	predSet := route.Identities(prediction)

	var m *shadow
	switch {
	case groundTruth == nil:
		m = newShadow(prediction, false)
	case prediction == nil:
		m = newShadow(groundTruth, false)
	case groundTruth.Identity == prediction.Identity:
		m = mergeAligned(groundTruth, prediction)
	default:
		m = mergeAligned(groundTruth, nil)
		m.children = append(m.children, mergeAligned(nil, prediction))
	}

	f, _ := layoutShadow(m, OverlayPrefix)
	for i := range f.Nodes {
		inGT := gtSet.Has(f.Nodes[i].Identity)
		inPred := predSet.Has(f.Nodes[i].Identity)
		switch {
		case inGT && inPred:
			f.Nodes[i].Status = graph.StatusMatch
		case inGT:
			f.Nodes[i].Status = graph.StatusGhost
		default:
			f.Nodes[i].Status = graph.StatusExtension
		}
	}
	dashGhostEdges(&f)
	return f
}

// shadow is a mutable working tree used to stage ghost injection and merging
// before the (immutable-input) layout pass runs.
type shadow struct {
	identity string
	smiles   string
	ghost    bool
	children []*shadow
}

// newShadow copies a route tree into shadow form, marking every node with the
// given ghost flag.
func newShadow(n *route.Node, ghost bool) *shadow {
	s := &shadow{identity: n.Identity, smiles: n.Smiles, ghost: ghost}
	for _, c := range n.Children {
		s.children = append(s.children, newShadow(c, ghost))
	}
	return s
}

// injectGhosts walks the reference tree in preorder and appends a ghost under
// root for every reference identity missing from present. Each identity is
// injected at most once; comparisons are set based, so a reagent the
// reference uses twice yields a single ghost.
func injectGhosts(root *shadow, reference *route.Node, present route.IdentitySet) {
	if reference == nil {
		return
	}
	injected := make(route.IdentitySet)
	var walk func(n *route.Node, parentIdentity string)
	walk = func(n *route.Node, parentIdentity string) {
		if !present.Has(n.Identity) && !injected.Has(n.Identity) {
			anchor := deepestByIdentity(root, parentIdentity)
			if anchor == nil {
				anchor = root
			}
			anchor.children = append(anchor.children, &shadow{
				identity: n.Identity,
				smiles:   n.Smiles,
				ghost:    true,
			})
			injected.Add(n.Identity)
		}
		for _, c := range n.Children {
			walk(c, n.Identity)
		}
	}
	walk(reference, "")
}

// deepestByIdentity returns the deepest node with the given identity,
// breaking depth ties toward the earliest node in preorder. Returns nil when
// the identity is absent (or empty).
func deepestByIdentity(root *shadow, identity string) *shadow {
	if identity == "" {
		return nil
	}
	var best *shadow
	bestDepth := -1
	var walk func(s *shadow, depth int)
	walk = func(s *shadow, depth int) {
		if s.identity == identity && depth > bestDepth {
			best, bestDepth = s, depth
		}
		for _, c := range s.children {
			walk(c, depth+1)
		}
	}
	walk(root, 0)
	return best
}

// mergeAligned joins two subtrees whose roots are structurally aligned.
// Children are paired by identity: each ground-truth child consumes the first
// unpaired prediction child with the same identity. Paired children recurse,
// unpaired ground-truth children keep their subtrees, and leftover prediction
// children are appended afterwards in their original order. Either argument
// may be nil.
func mergeAligned(gt, pred *route.Node) *shadow {
	src := gt
	if src == nil {
		src = pred
	}
	m := &shadow{identity: src.Identity, smiles: src.Smiles}

	var gtKids, predKids []*route.Node
	if gt != nil {
		gtKids = gt.Children
	}
	if pred != nil {
		predKids = pred.Children
	}

	used := make([]bool, len(predKids))
	for _, gc := range gtKids {
		var partner *route.Node
		for i, pc := range predKids {
			if !used[i] && pc.Identity == gc.Identity {
				used[i] = true
				partner = pc
				break
			}
		}
		m.children = append(m.children, mergeAligned(gc, partner))
	}
	for i, pc := range predKids {
		if !used[i] {
			m.children = append(m.children, mergeAligned(nil, pc))
		}
	}
	return m
}

// layoutShadow converts a shadow tree back into a route tree, lays it out,
// and returns the graph together with a per-node ghost flag slice parallel to
// f.Nodes. The pairing relies on both the shadow walk and the layout flatten
// pass emitting nodes in preorder.
func layoutShadow(m *shadow, idPrefix string) (graph.Flat, []bool) {
	var ghosts []bool
	var toRoute func(s *shadow) *route.Node
	toRoute = func(s *shadow) *route.Node {
		ghosts = append(ghosts, s.ghost)
		n := &route.Node{Identity: s.identity, Smiles: s.smiles}
		for _, c := range s.children {
			n.Children = append(n.Children, toRoute(c))
		}
		return n
	}
	tree := toRoute(m)
	return layout.Tree(tree, idPrefix), ghosts
}

// dashGhostEdges marks every edge whose target is a ghost node as dashed.
func dashGhostEdges(f *graph.Flat) {
	ghostIDs := make(map[string]struct{})
	for _, n := range f.Nodes {
		if n.Status == graph.StatusGhost {
			ghostIDs[n.ID] = struct{}{}
		}
	}
	if len(ghostIDs) == 0 {
		return
	}
	for i := range f.Edges {
		if _, ok := ghostIDs[f.Edges[i].Target]; ok {
			f.Edges[i].Dashed = true
		}
	}
}
