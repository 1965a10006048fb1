package matching

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Fingerprint derives the deterministic content fingerprint used for
// per-candidate de-duplication: sha256 over the normalised title and
// company. Two discoveries of the same role at the same company collide
// regardless of source platform, casing or stray whitespace.
func Fingerprint(title, company string) string {
	normalised := normalise(title) + "|" + normalise(company)
	sum := sha256.Sum256([]byte(normalised))
	return hex.EncodeToString(sum[:])
}

// normalise lowercases and collapses internal whitespace.
func normalise(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
