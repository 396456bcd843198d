// Package secrets provides token generation and one-time-password helpers
// for the admin access-control core. All functions are pure given their
// inputs; password hashing lives on the AdminUser model.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"io"

	"github.com/pkg/errors"
)

// tokenBytes is the raw entropy of a bearer token (256 bits).
const tokenBytes = 32

// GenerateToken creates a new random bearer token, URL-safe encoded.
// The caller persists only its hash; the raw value is handed out once.
func GenerateToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return "", errors.Wrap(err, "generate token")
	}

	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// HashToken returns the hex encoded SHA-256 hash of a raw bearer token.
// Deterministic and unsalted: tokens are high-entropy, so a fast hash is
// sufficient and allows direct lookup by hash.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
