package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"
)

func TestNeedsMigration(t *testing.T) {
	sum := sha256.Sum256([]byte("password"))
	legacy := hex.EncodeToString(sum[:])

	if !NeedsMigration(legacy) {
		t.Error("SHA256 hex digest should need migration")
	}
	if NeedsMigration("$2a$10$abcdefghijklmnopqrstuv") {
		t.Error("bcrypt hash should not need migration")
	}
	if NeedsMigration("short") {
		t.Error("short value should not be treated as a legacy digest")
	}
}

func TestVerifyLegacy(t *testing.T) {
	sum := sha256.Sum256([]byte("Secret1"))
	legacy := hex.EncodeToString(sum[:])

	if !VerifyLegacy(legacy, "Secret1") {
		t.Error("matching password rejected")
	}
	if VerifyLegacy(legacy, "Secret2") {
		t.Error("wrong password accepted")
	}
}

func TestHasherRoundTrip(t *testing.T) {
	ph := NewPasswordHasher()
	hash, err := ph.Hash("Abc123")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if NeedsMigration(hash) {
		t.Error("fresh bcrypt hash flagged for migration")
	}
	if !ph.Verify(hash, "Abc123") {
		t.Error("correct password rejected")
	}
	if ph.Verify(hash, "Abc124") {
		t.Error("wrong password accepted")
	}
}
