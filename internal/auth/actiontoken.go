package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// actionTokenBytes is the entropy of a raw side-channel token.
const actionTokenBytes = 32

// NewActionToken generates a cryptographically random raw token and the
// SHA-256 hash under which it is stored. The raw value is returned for
// out-of-band delivery and never persisted; the raw token is the sole
// authenticator, a one-time capability.
func NewActionToken() (raw string, tokenHash string, err error) {
	buf := make([]byte, actionTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("auth: generate token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashActionToken(raw), nil
}

// HashActionToken computes the stored form of a raw side-channel token.
func HashActionToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
