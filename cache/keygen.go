package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Namespace prefixes keys so lookups for different purposes can share a store
type Namespace string

const (
	// Stream holds validated direct URLs
	Stream Namespace = "stream:"
	// Video holds manifest lookups by video id
	Video Namespace = "video:"
	// Resolve holds handle to video id lookups
	Resolve Namespace = "resolve:"
)

// maxKeyLen bounds the memory a single key can pin
const maxKeyLen = 512

// Key builds the store key for v
func (n Namespace) Key(v string) string {
	if len(v) > maxKeyLen {
		sum := sha256.Sum256([]byte(v))
		return string(n) + "sha256:" + hex.EncodeToString(sum[:])
	}
	return string(n) + v
}

// StreamKey is the key for a direct URL validation
func StreamKey(rawURL string) string { return Stream.Key(rawURL) }

// VideoKey is the key for a manifest lookup
func VideoKey(id string) string { return Video.Key(id) }

// ResolveKey is the key for a handle resolution
func ResolveKey(ref string) string { return Resolve.Key(ref) }
