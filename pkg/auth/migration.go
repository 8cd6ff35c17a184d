package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"
)

// NeedsMigration reports whether a stored password hash uses the legacy
// unsalted SHA256 format. Legacy digests are 64 hex characters; bcrypt
// hashes start with $2a$ or $2b$.
func NeedsMigration(hash string) bool {
	return len(hash) == 64 && !strings.Contains(hash, "$")
}

// VerifyLegacy checks a password against a legacy SHA256 hex digest.
// Only used during login to upgrade accounts created before bcrypt.
func VerifyLegacy(hash, password string) bool {
	sum := sha256.Sum256([]byte(password))
	digest := hex.EncodeToString(sum[:])
	return subtle.ConstantTimeCompare([]byte(digest), []byte(strings.ToLower(hash))) == 1
}
