package graph

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// Node display statuses. Single-route graphs use StatusDefault and
// StatusInStock; diff graphs use StatusMatch, StatusExtension, and StatusGhost.
const (
	// StatusDefault marks a node with no special classification.
	StatusDefault = "default"
	// StatusInStock marks a molecule found in the active stock catalog.
	StatusInStock = "in-stock"
	// StatusMatch marks a molecule present in both compared routes.
	StatusMatch = "match"
	// StatusExtension marks a molecule only the prediction contains
	// (a hallucination relative to the reference route).
	StatusExtension = "extension"
	// StatusGhost marks a molecule only the reference route contains
	// (missing from the prediction).
	StatusGhost = "ghost"
)

// Validation errors returned by [Flat.Validate].
var (
	// ErrDuplicateNodeID is returned when two nodes share an id.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownEndpoint is returned when an edge references a node id
	// that does not exist in the graph.
	ErrUnknownEndpoint = errors.New("edge references unknown node")
)

// Node is a positioned molecule in a flat graph.
type Node struct {
	ID      string  `json:"id" bson:"id"`
	Smiles  string  `json:"smiles" bson:"smiles"`
	X       float64 `json:"x" bson:"x"`
	Y       float64 `json:"y" bson:"y"`
	Status  string  `json:"status" bson:"status"`
	InStock bool    `json:"in_stock,omitempty" bson:"in_stock,omitempty"`

	// Identity is the chemical identity the node was laid out under.
	// It is carried so consumers can resolve stock membership and diff
	// classification without re-walking the source tree.
	Identity string `json:"identity,omitempty" bson:"identity,omitempty"`
}

// Edge is a directed parent→child connection between two nodes.
// Dashed is a rendering hint set on edges leading into ghost nodes.
type Edge struct {
	ID     string `json:"id" bson:"id"`
	Source string `json:"source" bson:"source"`
	Target string `json:"target" bson:"target"`
	Dashed bool   `json:"dashed,omitempty" bson:"dashed,omitempty"`
}

// Flat is a fully positioned route graph ready for rendering.
// For a single laid-out tree with N nodes it contains exactly N-1 edges.
type Flat struct {
	Nodes []Node `json:"nodes" bson:"nodes"`
	Edges []Edge `json:"edges" bson:"edges"`
}

// NodeCount returns the number of nodes in the graph.
func (f *Flat) NodeCount() int { return len(f.Nodes) }

// EdgeCount returns the number of edges in the graph.
func (f *Flat) EdgeCount() int { return len(f.Edges) }

// Node returns the node with the given id and true, or a zero node and false.
func (f *Flat) Node(id string) (Node, bool) {
	for _, n := range f.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return Node{}, false
}

// Validate checks structural integrity: node ids must be unique and every
// edge must reference existing nodes. Returns nil for a valid graph.
func (f *Flat) Validate() error {
	ids := make(map[string]struct{}, len(f.Nodes))
	for _, n := range f.Nodes {
		if _, exists := ids[n.ID]; exists {
			return fmt.Errorf("%w: %s", ErrDuplicateNodeID, n.ID)
		}
		ids[n.ID] = struct{}{}
	}
	for _, e := range f.Edges {
		if _, ok := ids[e.Source]; !ok {
			return fmt.Errorf("%w: %s (edge %s)", ErrUnknownEndpoint, e.Source, e.ID)
		}
		if _, ok := ids[e.Target]; !ok {
			return fmt.Errorf("%w: %s (edge %s)", ErrUnknownEndpoint, e.Target, e.ID)
		}
	}
	return nil
}

// AnnotateStock sets Status and InStock on every node from the membership set.
// Nodes whose identity is in the set become StatusInStock, all others
// StatusDefault. Positions and edges are untouched, and the set is only read.
//
// The receiver is modified in place; callers that need the unannotated graph
// should keep their own copy.
func (f *Flat) AnnotateStock(inStock map[string]struct{}) {
	for i := range f.Nodes {
		_, ok := inStock[f.Nodes[i].Identity]
		f.Nodes[i].InStock = ok
		if ok {
			f.Nodes[i].Status = StatusInStock
		} else {
			f.Nodes[i].Status = StatusDefault
		}
	}
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a flat graph to pretty-printed JSON bytes.
func Marshal(f Flat) ([]byte, error) {
	return json.MarshalIndent(f, "", "  ")
}

// Unmarshal decodes JSON bytes into a flat graph and validates it.
func Unmarshal(data []byte) (Flat, error) {
	var f Flat
	if err := json.Unmarshal(data, &f); err != nil {
		return Flat{}, fmt.Errorf("decode graph: %w", err)
	}
	if err := f.Validate(); err != nil {
		return Flat{}, err
	}
	return f, nil
}

// Write writes a flat graph as JSON to an io.Writer.
func Write(f Flat, w io.Writer) error {
	data, err := Marshal(f)
	if err != nil {
		return fmt.Errorf("encode graph: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write graph: %w", err)
	}
	return nil
}

// WriteFile writes a flat graph to a JSON file.
// The file is created with 0644 permissions.
func WriteFile(f Flat, path string) error {
	data, err := Marshal(f)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadFile reads a JSON file and returns the decoded, validated graph.
func ReadFile(path string) (Flat, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Flat{}, fmt.Errorf("read %s: %w", path, err)
	}
	return Unmarshal(data)
}
