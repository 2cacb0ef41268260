// Package pii minimizes personally identifying fields before output.
// All functions are pure and unsalted so results are stable across runs
// and usable as deterministic join keys downstream.
package pii

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HashEmail computes a one-way SHA-256 digest of an email address.
// The address is trimmed and lower-cased first so equivalent inputs
// collapse to the same digest. Returns nil for an absent address.
// The digest is hex-encoded (64 characters).
func HashEmail(email string) *string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return nil
	}

	hash := sha256.Sum256([]byte(normalized))
	digest := hex.EncodeToString(hash[:])
	return &digest
}
