package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"time"
)

// Cache stores opaque byte blobs under string keys with a TTL. Used for
// embedding vectors so repeated runs over the same corpus skip the
// embedding API entirely.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// Key builds a stable cache key from its parts. The parts are hashed, so
// arbitrary text (chunk contents, queries) is safe to include.
func Key(parts ...string) string {
	hash := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return "lorecheck:v1:" + hex.EncodeToString(hash[:])
}
