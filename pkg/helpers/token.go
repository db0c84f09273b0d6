package helpers

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewResetToken generates a cryptographically random password-reset token.
// The hex string is what gets emailed; only its hash is ever stored.
func NewResetToken() (string, error) {
	b := make([]byte, 20)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// HashResetToken derives the stored form of a reset token. Deterministic, so
// redemption can look the user up by the hash of the presented plaintext.
func HashResetToken(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
