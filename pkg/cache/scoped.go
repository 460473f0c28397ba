package cache

// ScopedKeyer wraps a Keyer with a prefix for namespace isolation.
// This keeps graphs computed for different benchmark sets (or different
// deployments sharing one Redis) from colliding.
//
// Example usage:
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "bench:uspto-190:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{
		inner:  inner,
		prefix: prefix,
	}
}

// TreeKey generates a prefixed key for an assembled route tree.
func (k *ScopedKeyer) TreeKey(routeID string) string {
	return k.prefix + k.inner.TreeKey(routeID)
}

// GraphKey generates a prefixed key for a single-route layout graph.
func (k *ScopedKeyer) GraphKey(treeHash string, opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(treeHash, opts)
}

// DiffKey generates a prefixed key for a diff graph.
func (k *ScopedKeyer) DiffKey(gtHash, predHash string, opts DiffKeyOpts) string {
	return k.prefix + k.inner.DiffKey(gtHash, predHash, opts)
}

// ArtifactKey generates a prefixed key for a rendered artifact.
func (k *ScopedKeyer) ArtifactKey(graphHash, format string) string {
	return k.prefix + k.inner.ArtifactKey(graphHash, format)
}
