package client

import (
	"errors"

	"shareadmin/pkg/deviceid"
	apperrors "shareadmin/pkg/errors"
)

// tokenKey is the storage key the session token is persisted under, next
// to the device identifier in the cache directory.
const tokenKey = "session-token"

// TokenStore persists the session token between invocations. It shares
// the same key-value storage as the device identifier.
type TokenStore struct {
	storage deviceid.Storage
}

// NewTokenStore creates a token store on top of storage.
func NewTokenStore(storage deviceid.Storage) *TokenStore {
	return &TokenStore{storage: storage}
}

// Load returns the persisted token, or "" when none is stored.
func (t *TokenStore) Load() (string, error) {
	val, err := t.storage.Get(tokenKey)
	if errors.Is(err, apperrors.ErrSettingNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return val, nil
}

// Save persists the token.
func (t *TokenStore) Save(token string) error {
	return t.storage.Set(tokenKey, token)
}

// Clear removes the persisted token. Clearing an absent token is not an
// error.
func (t *TokenStore) Clear() error {
	return t.storage.Remove(tokenKey)
}
