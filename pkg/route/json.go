package route

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrEmptyTree is returned when decoding a document that contains no root node.
var ErrEmptyTree = errors.New("route tree has no root node")

// MarshalTree converts a route tree to pretty-printed JSON bytes.
func MarshalTree(root *Node) ([]byte, error) {
	if root == nil {
		return nil, ErrEmptyTree
	}
	return json.MarshalIndent(root, "", "  ")
}

// UnmarshalTree decodes JSON bytes into a route tree.
func UnmarshalTree(data []byte) (*Node, error) {
	var root Node
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if root.Identity == "" && root.Smiles == "" {
		return nil, ErrEmptyTree
	}
	normalize(&root)
	return &root, nil
}

// ReadTree decodes a JSON route tree from an io.Reader.
// Use ReadTreeFile for files or pass bytes.NewReader for in-memory data.
func ReadTree(r io.Reader) (*Node, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read route: %w", err)
	}
	return UnmarshalTree(data)
}

// ReadTreeFile reads a JSON file and returns the decoded route tree.
func ReadTreeFile(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return UnmarshalTree(data)
}

// WriteTree writes a route tree as JSON to an io.Writer.
func WriteTree(root *Node, w io.Writer) error {
	data, err := MarshalTree(root)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write route: %w", err)
	}
	return nil
}

// WriteTreeFile writes a route tree to a JSON file.
// The file is created with 0644 permissions.
func WriteTreeFile(root *Node, path string) error {
	data, err := MarshalTree(root)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// normalize fills Identity from Smiles where documents omit it. SMILES is the
// documented fallback identity for molecules without an InChIKey.
func normalize(n *Node) {
	if n.Identity == "" {
		n.Identity = n.Smiles
	}
	for _, c := range n.Children {
		normalize(c)
	}
}
