// Package hash provides deterministic content fingerprinting.
package hash

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprinter produces a stable digest over a set of normalized parts.
// Equal inputs always yield equal fingerprints, which is the property the
// deduplication window relies on.
type Fingerprinter interface {
	Sum(parts ...string) string
}

// HMACSHA256 is a Fingerprinter keyed with a per-deployment secret so
// fingerprints are not guessable from content alone.
type HMACSHA256 struct {
	secret []byte
}

// NewHMACSHA256 creates a fingerprinter with the given secret.
func NewHMACSHA256(secret string) *HMACSHA256 {
	return &HMACSHA256{secret: []byte(secret)}
}

// Sum normalizes each part (trimmed, lower-cased) and returns the
// hex-encoded HMAC-SHA256 over the parts joined with an unambiguous
// separator.
func (h *HMACSHA256) Sum(parts ...string) string {
	mac := hmac.New(sha256.New, h.secret)
	for i, part := range parts {
		if i > 0 {
			mac.Write([]byte{0x1f})
		}
		mac.Write([]byte(strings.ToLower(strings.TrimSpace(part))))
	}
	return hex.EncodeToString(mac.Sum(nil))
}
