package deviceid

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	apperrors "shareadmin/pkg/errors"
	"shareadmin/pkg/logger"
)

const (
	// deviceIDKey is the storage key the identifier is persisted under.
	deviceIDKey = "device-id"

	// minIDLength is the shortest identifier accepted as valid. Anything
	// shorter is treated as a damaged or legacy value and replaced.
	minIDLength = 16

	// legacyPrefix marks identifiers written by the old prefixed scheme.
	legacyPrefix = "device_"
)

// Storage is the durable key-value storage the identifier is persisted
// into. Get returns errors.ErrSettingNotFound when the key is absent.
type Storage interface {
	Get(key string) (string, error)
	Set(key, value string) error
	Remove(key string) error
}

// Store owns the lifecycle of the per-installation device identifier.
// GetOrCreate is total: it always returns a usable identifier, degrading
// to a time+random fallback when storage misbehaves.
type Store struct {
	storage Storage
	log     *logger.Logger

	mu         sync.Mutex
	cached     string
	persistent bool
}

// NewStore creates a device identifier store on top of storage.
func NewStore(storage Storage) *Store {
	return &Store{
		storage:    storage,
		log:        logger.Component("deviceid"),
		persistent: true,
	}
}

// GetOrCreate returns the current device identifier, creating and
// persisting one if none exists. Legacy or malformed persisted values are
// replaced. Storage faults never surface to the caller.
//
// Creation is serialized by the store's mutex so concurrent first-time
// calls converge on a single persisted identifier.
func (s *Store) GetOrCreate() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != "" {
		return s.cached
	}

	val, err := s.storage.Get(deviceIDKey)
	if err == nil && Valid(val) {
		s.persistent = true
		s.cached = val
		return val
	}
	if err != nil && !errors.Is(err, apperrors.ErrSettingNotFound) {
		return s.degrade("read device id", err)
	}

	// Absent, or a legacy value that must be replaced.
	id := uuid.NewString()
	if werr := s.storage.Set(deviceIDKey, id); werr != nil {
		return s.degrade("persist device id", werr)
	}
	if val != "" {
		s.log.Info("replaced legacy device id")
	}
	s.persistent = true
	s.cached = id
	return id
}

// Peek returns the persisted identifier without creating one. The second
// return value is false when nothing valid is persisted.
func (s *Store) Peek() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	val, err := s.storage.Get(deviceIDKey)
	if err != nil || !Valid(val) {
		return "", false
	}
	return val, true
}

// Clear removes the persisted identifier. The next GetOrCreate will mint
// a fresh one.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = ""
	return s.storage.Remove(deviceIDKey)
}

// ForceRegenerate discards the current identifier and creates a new one.
func (s *Store) ForceRegenerate() string {
	if err := s.Clear(); err != nil {
		s.log.Warn("clear device id", "error", err)
	}
	return s.GetOrCreate()
}

// Persistent reports whether the identifier returned by the last
// GetOrCreate call is durably stored. It is false only after a storage
// fault forced a non-persistent fallback identifier.
func (s *Store) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistent
}

// degrade generates a time+random fallback identifier for the current
// installation, best-effort persists it, and never fails. Callers hold s.mu.
func (s *Store) degrade(op string, err error) string {
	id := fallbackID()
	if werr := s.storage.Set(deviceIDKey, id); werr == nil {
		s.persistent = true
	} else {
		s.persistent = false
		s.log.Warn("device id storage unavailable, using fallback", "op", op, "error", err)
	}
	s.cached = id
	return id
}

// Valid reports whether id is usable as a device identifier. Legacy
// prefixed values, short values and anything resembling an encoded token
// are rejected and will be replaced on next access.
func Valid(id string) bool {
	if id == "" || utf8.RuneCountInString(id) < minIDLength {
		return false
	}
	if strings.HasPrefix(id, legacyPrefix) {
		return false
	}
	// Encoded tokens (JWT-like blobs) must never be reused as identifiers.
	if strings.HasPrefix(id, "eyJ") || strings.Count(id, ".") >= 2 {
		return false
	}
	return true
}

// fallbackID builds a time+random identifier for use when storage is
// unavailable. It is unique enough for a single installation's session.
func fallbackID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is effectively fatal elsewhere; nanotime
		// alone still satisfies per-call uniqueness.
		return fmt.Sprintf("fb-%d-00000000", time.Now().UnixNano())
	}
	return fmt.Sprintf("fb-%d-%s", time.Now().UnixNano(), hex.EncodeToString(buf))
}
