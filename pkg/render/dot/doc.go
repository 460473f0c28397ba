// Package dot exports computed route graphs to Graphviz DOT and renders
// them to SVG.
//
// Node coordinates come from the layout engine, so DOT output pins every
// node with a pos attribute and rendering uses the neato engine, which
// honors pinned positions instead of recomputing a layout.
package dot
