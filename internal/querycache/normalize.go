package querycache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Normalize canonicalizes a search query for hashing: trim surrounding
// whitespace, lowercase, collapse internal whitespace runs to a single
// space. Idempotent.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// HashQuery returns the cache key for a query: the SHA-256 hex digest of
// its normalized form. Identical normalized queries always map to the
// same key.
func HashQuery(query string) string {
	h := sha256.Sum256([]byte(Normalize(query)))
	return hex.EncodeToString(h[:])
}
