package utils

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// GenerateToken returns a random token and its sha256 digest. The raw token is
// sent to the user; only the digest is persisted.
func GenerateToken() (raw, hashed string) {
	buf := make([]byte, 32)
	_, _ = rand.Read(buf)
	raw = hex.EncodeToString(buf)
	return raw, HashToken(raw)
}

// HashToken returns the sha256 hex digest of a raw token.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
