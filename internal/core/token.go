package core

import (
	"crypto/sha256"
	"encoding/base64"
)

// Fingerprint returns a digest of a token that is safe to write to logs.
func Fingerprint(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
