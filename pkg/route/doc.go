// Package route defines the synthesis route tree model shared by the layout,
// diff, and graph packages.
//
// A route is a strict tree of molecules: the root is the target compound and
// the children of each node are the reactants that produce it. Child order
// reflects the original reactant ordering and is preserved by every consumer.
//
// Nodes carry two strings: Identity (InChIKey when available, SMILES as a
// fallback) and Smiles (the display notation). Identity is the only field used
// for equality; two nodes with the same Identity denote the same chemical
// entity regardless of how their SMILES is written. The package treats both
// strings as opaque tokens and performs no chemical validation.
package route
