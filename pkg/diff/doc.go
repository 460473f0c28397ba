// Package diff aligns two synthesis route trees and produces annotated
// visualization graphs.
//
// Alignment is by chemical identity only, never by tree position: a node
// counts as matched when its identity occurs anywhere in the other route.
// This is a deliberate simplification over tree-edit-distance matching and
// is what makes leaf-vs-subtree comparisons total.
//
// Two views are supported. SideBySide lays out one route in its own
// coordinate space and classifies each node against the other route,
// optionally injecting ghost placeholders for molecules the route is missing.
// Overlay merges both routes into a single coordinate space with ghost and
// extension nodes side by side under their shared ancestors.
package diff
