// Package layout converts synthesis route trees into positioned node/edge
// graphs using a deterministic centered tree layout.
//
// The algorithm runs three passes in a fixed order: build an arena of layout
// nodes with path-derived ids, compute subtree widths bottom-up, then assign
// positions top-down with every node centered over its own subtree. Depth
// maps directly to the y coordinate, so all nodes at the same tree depth
// share a row. A final pass flattens the arena into a [graph.Flat].
//
// All entry points are pure: the input tree is never modified, repeated calls
// on the same input produce identical output, and calls are safe to run
// concurrently on independent inputs.
package layout
