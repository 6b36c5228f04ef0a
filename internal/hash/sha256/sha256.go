// Package sha256 produces the hex digests used for snapshot paths and
// result-cache keys.
package sha256

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest returns the lowercase hex SHA-256 of data.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// DigestString is Digest for strings.
func DigestString(s string) string {
	return Digest([]byte(s))
}

// Hasher satisfies the snapshotter's hashing dependency.
type Hasher struct{}

// New returns a Hasher.
func New() Hasher {
	return Hasher{}
}

// Hash never fails.
func (Hasher) Hash(data []byte) (string, error) {
	return Digest(data), nil
}
