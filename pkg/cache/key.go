package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// KeyPrefix namespaces every cache key in Redis.
const KeyPrefix = "synapse"

// Key identifies a cached response.
type Key struct {
	// Path is the request path, e.g. "/api/news/topic/3"
	Path string

	// Query holds the request parameters, typically page and per_page
	Query url.Values

	// Scope separates users; empty for anonymous requests
	Scope string
}

// String renders the Redis key. Query parameters are sorted by name so the
// same request always maps to the same key:
//
//	synapse:api/news/topic/3:page=1&per_page=10:user=9f86d081884c7d65
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)
	if p := strings.Trim(k.Path, "/"); p != "" {
		b.WriteString(":")
		b.WriteString(p)
	}
	if len(k.Query) > 0 {
		b.WriteString(":")
		b.WriteString(k.Query.Encode())
	}
	if k.Scope != "" {
		b.WriteString(":user=")
		b.WriteString(k.Scope)
	}
	return b.String()
}

// pathPattern matches every key under path, for any query and scope.
func pathPattern(path string) string {
	return KeyPrefix + ":" + strings.Trim(path, "/") + "*"
}

// exactPathPattern matches the keys of path with a query or scope, and not
// those of longer paths.
func exactPathPattern(path string) string {
	return Key{Path: path}.String() + ":*"
}

// ScopeFromToken derives a short, non-reversible scope from an access token.
func ScopeFromToken(token string) string {
	if token == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:8])
}
