// Package cache provides pluggable caching for route trees, computed graphs,
// and rendered artifacts.
//
// Backends:
//   - FileCache: local files for CLI usage
//   - RedisCache: shared cache for server deployments
//   - MongoCache: TTL-indexed collection alongside document persistence
//   - NullCache: caching disabled
//
// Keys are derived by a Keyer so every consumer (CLI, API, pipeline) agrees
// on the namespace layout; ScopedKeyer adds per-tenant prefixes on top.
package cache

import (
	"context"
	"time"
)

// TTLs for the different cached value classes.
const (
	// TTLTree is how long assembled route trees stay cached.
	// Routes are immutable once loaded, so this is generous.
	TTLTree = 24 * time.Hour

	// TTLGraph is how long computed layout/diff graphs stay cached.
	TTLGraph = 24 * time.Hour

	// TTLArtifact is how long rendered artifacts (SVG, DOT) stay cached.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is the interface all caching backends implement.
// Get returns (data, hit, error); a miss is not an error.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// GraphKeyOpts are the parameters that distinguish computed graphs.
type GraphKeyOpts struct {
	StockID string // stock catalog used for annotation ("" = none)
	Prefix  string // id prefix the graph was laid out under
}

// DiffKeyOpts are the parameters that distinguish diff graphs.
type DiffKeyOpts struct {
	Mode      string // "overlay" or "side-by-side"
	IsPrimary bool   // side-by-side only: which side was rendered
}

// Keyer generates cache keys for the different value classes.
type Keyer interface {
	// TreeKey generates a key for an assembled route tree.
	TreeKey(routeID string) string

	// GraphKey generates a key for a single-route layout graph.
	GraphKey(treeHash string, opts GraphKeyOpts) string

	// DiffKey generates a key for a diff graph over two trees.
	DiffKey(gtHash, predHash string, opts DiffKeyOpts) string

	// ArtifactKey generates a key for a rendered artifact.
	ArtifactKey(graphHash, format string) string
}

// DefaultKeyer is the standard key generation strategy.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer { return &DefaultKeyer{} }

// TreeKey generates a key for an assembled route tree.
func (k *DefaultKeyer) TreeKey(routeID string) string {
	return hashKey("tree", routeID)
}

// GraphKey generates a key for a single-route layout graph.
func (k *DefaultKeyer) GraphKey(treeHash string, opts GraphKeyOpts) string {
	return hashKey("graph", treeHash, opts)
}

// DiffKey generates a key for a diff graph over two trees.
func (k *DefaultKeyer) DiffKey(gtHash, predHash string, opts DiffKeyOpts) string {
	return hashKey("diff", gtHash, predHash, opts)
}

// ArtifactKey generates a key for a rendered artifact.
func (k *DefaultKeyer) ArtifactKey(graphHash, format string) string {
	return hashKey("artifact", graphHash, format)
}
