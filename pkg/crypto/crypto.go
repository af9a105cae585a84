package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashSecret returns a bcrypt hash of the supplied shared secret, suitable for storing in
// configuration instead of the plaintext value.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashedSecret reports whether configured looks like a bcrypt hash.
func IsHashedSecret(configured string) bool {
	_, err := bcrypt.Cost([]byte(configured))
	return err == nil
}

// SecretMatches compares a presented secret with the configured one. Configured values may be
// plaintext or a bcrypt hash. Plaintext values are compared as SHA-256 digests in constant time
// so the comparison does not leak the secret length.
func SecretMatches(configured, presented string) bool {
	if configured == "" || presented == "" {
		return false
	}
	if IsHashedSecret(configured) {
		return bcrypt.CompareHashAndPassword([]byte(configured), []byte(presented)) == nil
	}

	want := sha256.Sum256([]byte(configured))
	got := sha256.Sum256([]byte(presented))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

// GenerateToken returns a random URL-safe token of the requested byte length.
func GenerateToken(length int) (string, error) {
	buffer := make([]byte, length)
	if _, err := rand.Read(buffer); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buffer), nil
}

// MaskSecret hides all but the last four characters of a secret for log output.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", len(secret)-4) + secret[len(secret)-4:]
}
