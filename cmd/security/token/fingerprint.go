package token

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint returns a short SHA-256 prefix of raw, safe to log in place of
// the token itself.
func Fingerprint(raw string) string {
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:6])
}
