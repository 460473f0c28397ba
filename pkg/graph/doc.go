// Package graph defines the positioned node/edge graph produced by the layout
// and diff engines and consumed by rendering layers.
//
// Flat is the canonical interchange format: nodes carry coordinates, a display
// status, and a stock flag; edges reference node ids and may be marked dashed
// (used for edges into ghost nodes in diff views). The format serializes to
// JSON for API responses, file artifacts, and cache entries, and carries bson
// tags for document-store persistence.
package graph
