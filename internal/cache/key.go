package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// canonicalKey hashes a target identifier (a filesystem path, typically)
// into a fixed-length, filesystem-safe cache key. Grounded on the same
// sha256 pre-hashing idiom used elsewhere in this codebase for long,
// arbitrary input strings.
func canonicalKey(kind, key string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(key))

	return hex.EncodeToString(h.Sum(nil))
}
