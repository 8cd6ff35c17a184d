package storage

import (
	"time"

	"shareadmin/pkg/protocol"
)

// SessionRecord is a persisted device-bound session. TokenHash holds the
// SHA256 digest of the bearer token; the plain token never touches disk.
type SessionRecord struct {
	ID         string
	UserID     string
	DeviceID   string
	DeviceName string
	Platform   string
	TokenHash  string
	CreatedAt  time.Time
	LastSeenAt time.Time
}

// Store defines the interface for persistent storage operations.
type Store interface {
	// User operations
	CreateUser(u *protocol.User, passwordHash string) error
	GetUser(id string) (*protocol.User, error)
	GetUserByEmail(email string) (*protocol.User, string, error)
	GetAllUsers() ([]*protocol.User, error)
	UpdateUser(id string, name, role *string) error
	UpdateUserPassword(id, passwordHash string) error
	DeleteUser(id string) error

	// Folder operations
	CreateFolder(f *protocol.Folder) error
	GetFolder(id string) (*protocol.Folder, error)
	GetAllFolders() ([]*protocol.Folder, error)
	UpdateFolder(id string, name *string, shared *bool) error
	DeleteFolder(id string) error

	// Session operations. SaveSession replaces any existing session for
	// the same (user, device) pair.
	SaveSession(s *SessionRecord) error
	GetSessionByTokenHash(hash string) (*SessionRecord, error)
	GetUserSessions(userID string) ([]*SessionRecord, error)
	CountUserSessions(userID, excludeDeviceID string) (int, error)
	TouchSession(id string) error
	DeleteSession(id string) error
	DeleteOtherSessions(userID, keepDeviceID string) ([]*SessionRecord, error)
	DeleteUserSessions(userID string) ([]*SessionRecord, error)

	// Settings (key-value) operations
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error

	// Lifecycle
	Close() error
}
