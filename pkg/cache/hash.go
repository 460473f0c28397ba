package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashKey derives a namespaced cache key from its identifying parts:
// <namespace>:<sha256(parts)>. The namespace stays readable so backends can
// group entries by pipeline stage; the hashed tail keeps keys fixed-length
// regardless of how many options distinguish an entry.
func hashKey(namespace string, parts ...any) string {
	payload, _ := json.Marshal(parts)
	return namespace + ":" + Hash(payload)
}

// Hash returns the full hex SHA-256 digest of data. Build and render cache
// keys hash tree and graph content rather than row ids, so reloading
// identical benchmark data still hits.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
