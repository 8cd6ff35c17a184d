// Package auth provides the server-side pieces of authentication for
// shareadmin.
//
// This package includes:
// - Manager: device-bound session management with a per-user quota
// - PasswordHasher: bcrypt hashing and verification
// - Legacy SHA256 hash detection and verification for account migration
//
// Usage:
//
//	sessions := auth.NewManager(store, 3)
//	token, err := sessions.Open(userID, deviceID, deviceInfo)
//
// A *QuotaError from Open carries the quota numbers the client shows to
// the user.
package auth
