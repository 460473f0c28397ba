package route

// Node is a single molecule in a synthesis route tree.
//
// Identity is the stable chemical identifier (InChIKey preferred, SMILES as a
// fallback) and is the only field compared for equality. Smiles is display
// text and may differ in notation between nodes with the same Identity.
//
// Children is ordered and the order is semantically meaningful. A nil and an
// empty Children slice are equivalent: both mean the node is a leaf.
//
// Trees are never mutated by the layout or diff algorithms - every derived
// structure is freshly allocated.
type Node struct {
	Identity string  `json:"identity"`
	Smiles   string  `json:"smiles"`
	Children []*Node `json:"children,omitempty"`
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.Children) == 0 }

// Count returns the number of nodes in the subtree rooted at n.
// Returns 0 for a nil node.
func (n *Node) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Depth returns the number of levels in the subtree rooted at n.
// A single node has depth 1. Returns 0 for a nil node.
func (n *Node) Depth() int {
	if n == nil {
		return 0
	}
	max := 0
	for _, c := range n.Children {
		if d := c.Depth(); d > max {
			max = d
		}
	}
	return max + 1
}

// Clone returns a deep copy of the subtree rooted at n.
// Returns nil for a nil node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	out := &Node{Identity: n.Identity, Smiles: n.Smiles}
	if len(n.Children) > 0 {
		out.Children = make([]*Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// IdentitySet is a set of chemical identity strings. It represents both the
// identities present in a route tree and stock-membership catalogs.
//
// The zero value is not usable - use NewIdentitySet or Identities.
type IdentitySet map[string]struct{}

// NewIdentitySet creates a set containing the given identities.
func NewIdentitySet(ids ...string) IdentitySet {
	s := make(IdentitySet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether the identity is in the set.
func (s IdentitySet) Has(identity string) bool {
	_, ok := s[identity]
	return ok
}

// Add inserts the identity into the set.
func (s IdentitySet) Add(identity string) { s[identity] = struct{}{} }

// Len returns the number of distinct identities in the set.
func (s IdentitySet) Len() int { return len(s) }

// Clone returns an independent copy of the set.
func (s IdentitySet) Clone() IdentitySet {
	out := make(IdentitySet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Identities collects every node identity in the tree into a new set.
// Duplicate identities (the same reagent used at multiple positions) collapse
// to a single entry. The input tree is not modified, and the returned set is
// freshly allocated on every call.
func Identities(root *Node) IdentitySet {
	set := make(IdentitySet)
	collectIdentities(root, set)
	return set
}

func collectIdentities(n *Node, set IdentitySet) {
	if n == nil {
		return
	}
	set[n.Identity] = struct{}{}
	for _, c := range n.Children {
		collectIdentities(c, set)
	}
}
