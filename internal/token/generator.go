// Package token implements the token lifecycle and access-policy
// enforcement engine: issuing policy-carrying tokens, validating them
// against lifecycle rules, and accounting their usage.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
)

// stringLength is the length of a generated bearer token string.
const stringLength = 16

// NewTokenString generates a fresh opaque bearer string: 128 bits from a
// cryptographically random source, hex-encoded, uppercased and truncated.
// Uniqueness is enforced by the database's unique constraint; collisions are
// astronomically rare and handled by retrying the insert.
func NewTokenString() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return strings.ToUpper(hex.EncodeToString(b))[:stringLength], nil
}
