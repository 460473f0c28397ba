package store

import "time"

// Route kinds.
const (
	KindGroundTruth = "ground-truth"
	KindPrediction  = "prediction"
)

// Benchmark groups the target molecules of one published benchmark set.
type Benchmark struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Target is a molecule to be synthesized, belonging to a benchmark.
type Target struct {
	ID          string    `json:"id"`
	BenchmarkID string    `json:"benchmark_id"`
	Smiles      string    `json:"smiles"`
	InchiKey    string    `json:"inchikey,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Route is one stored synthesis route for a target, either the published
// ground truth or a model prediction.
type Route struct {
	ID        string    `json:"id"`
	TargetID  string    `json:"target_id"`
	Kind      string    `json:"kind"`
	Model     string    `json:"model,omitempty"`
	Rank      int       `json:"rank,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RouteNode is one molecule within a stored route tree. ParentID is empty
// for the root; Position orders siblings.
type RouteNode struct {
	ID       string `json:"id"`
	RouteID  string `json:"route_id"`
	ParentID string `json:"parent_id,omitempty"`
	Position int    `json:"position"`
	Smiles   string `json:"smiles"`
	InchiKey string `json:"inchikey,omitempty"`
	IsLeaf   bool   `json:"is_leaf"`
}

// Identity returns the node's chemical identity: the InChIKey when known,
// otherwise the SMILES string.
func (n *RouteNode) Identity() string {
	if n.InchiKey != "" {
		return n.InchiKey
	}
	return n.Smiles
}

// Stock is a named catalog of purchasable starting materials.
type Stock struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	ItemCount   int       `json:"item_count,omitempty"`
}

// ListOptions controls filtering and pagination for list operations.
type ListOptions struct {
	Query  string // substring match on name/smiles
	Limit  int    // 0 = DefaultListLimit
	Offset int
}

// DefaultListLimit caps list results when no explicit limit is given.
const DefaultListLimit = 50

// normalize applies the default limit.
func (o ListOptions) normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultListLimit
	}
	return o
}
