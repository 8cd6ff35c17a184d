package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"shareadmin/pkg/logger"
	"shareadmin/pkg/protocol"
	"shareadmin/pkg/storage"
)

// QuotaError is returned by Open when the per-user device quota is
// exhausted. Its fields are surfaced verbatim to the client.
type QuotaError struct {
	Max    int
	Active int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("session limit reached (%d of %d devices active)", e.Active, e.Max)
}

// Manager owns device-bound sessions: creation under the quota, token
// resolution, and termination. Sessions are persisted through the store;
// observers receive open/close events for the live stream.
type Manager struct {
	store      storage.Store
	maxPerUser int
	log        *logger.Logger

	mu          sync.Mutex
	subscribers map[int]chan protocol.SessionEvent
	nextSub     int
}

// NewManager creates a session manager enforcing maxPerUser concurrent
// device sessions per account.
func NewManager(store storage.Store, maxPerUser int) *Manager {
	return &Manager{
		store:       store,
		maxPerUser:  maxPerUser,
		log:         logger.Component("sessions"),
		subscribers: make(map[int]chan protocol.SessionEvent),
	}
}

// MaxPerUser returns the configured quota.
func (m *Manager) MaxPerUser() int { return m.maxPerUser }

// Open creates a session for userID bound to deviceID and returns the
// bearer token. A login from an already-known device replaces that
// device's session and never counts against the quota. When the quota is
// exhausted a *QuotaError is returned.
func (m *Manager) Open(userID, deviceID string, device protocol.DeviceInfo) (string, error) {
	active, err := m.store.CountUserSessions(userID, deviceID)
	if err != nil {
		return "", fmt.Errorf("count sessions: %w", err)
	}
	if active >= m.maxPerUser {
		return "", &QuotaError{Max: m.maxPerUser, Active: active}
	}

	token, err := generateToken()
	if err != nil {
		return "", err
	}

	now := time.Now().UTC()
	rec := &storage.SessionRecord{
		ID:         uuid.NewString(),
		UserID:     userID,
		DeviceID:   deviceID,
		DeviceName: device.Hostname,
		Platform:   device.Platform,
		TokenHash:  HashToken(token),
		CreatedAt:  now,
		LastSeenAt: now,
	}
	if err := m.store.SaveSession(rec); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}

	m.notify(protocol.SessionOpened, rec)
	m.log.Info("session opened", "user_id", userID, "device_id", deviceID)
	return token, nil
}

// Resolve returns the session a bearer token belongs to, refreshing its
// last-seen timestamp.
func (m *Manager) Resolve(token string) (*storage.SessionRecord, bool) {
	rec, err := m.store.GetSessionByTokenHash(HashToken(token))
	if err != nil {
		return nil, false
	}
	if err := m.store.TouchSession(rec.ID); err != nil {
		m.log.Warn("touch session", "error", err)
	}
	return rec, true
}

// Close terminates the session a token belongs to.
func (m *Manager) Close(token string) error {
	rec, err := m.store.GetSessionByTokenHash(HashToken(token))
	if err != nil {
		return err
	}
	if err := m.store.DeleteSession(rec.ID); err != nil {
		return err
	}
	m.notify(protocol.SessionClosed, rec)
	return nil
}

// CloseOthers terminates every session of userID except the one bound to
// keepDeviceID and returns how many were closed.
func (m *Manager) CloseOthers(userID, keepDeviceID string) (int, error) {
	victims, err := m.store.DeleteOtherSessions(userID, keepDeviceID)
	if err != nil {
		return 0, err
	}
	for _, rec := range victims {
		m.notify(protocol.SessionClosed, rec)
	}
	m.log.Info("closed other sessions", "user_id", userID, "count", len(victims))
	return len(victims), nil
}

// CloseAll terminates every session of userID. Used after a password
// change so the user must re-authenticate everywhere.
func (m *Manager) CloseAll(userID string) (int, error) {
	victims, err := m.store.DeleteUserSessions(userID)
	if err != nil {
		return 0, err
	}
	for _, rec := range victims {
		m.notify(protocol.SessionClosed, rec)
	}
	return len(victims), nil
}

// Sessions lists the user's active sessions, marking the one bound to
// currentDeviceID.
func (m *Manager) Sessions(userID, currentDeviceID string) ([]protocol.Session, error) {
	recs, err := m.store.GetUserSessions(userID)
	if err != nil {
		return nil, err
	}
	sessions := make([]protocol.Session, 0, len(recs))
	for _, rec := range recs {
		sessions = append(sessions, toWireSession(rec, currentDeviceID))
	}
	return sessions, nil
}

// Subscribe registers an observer for session events. The returned cancel
// function must be called to release the subscription.
func (m *Manager) Subscribe() (<-chan protocol.SessionEvent, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSub
	m.nextSub++
	ch := make(chan protocol.SessionEvent, 16)
	m.subscribers[id] = ch

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if sub, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify fans an event out to subscribers. Slow subscribers drop events
// rather than block session operations.
func (m *Manager) notify(eventType string, rec *storage.SessionRecord) {
	ev := protocol.SessionEvent{
		Type:    eventType,
		Session: toWireSession(rec, ""),
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}

func toWireSession(rec *storage.SessionRecord, currentDeviceID string) protocol.Session {
	return protocol.Session{
		ID:         rec.ID,
		UserID:     rec.UserID,
		DeviceID:   rec.DeviceID,
		DeviceName: rec.DeviceName,
		Platform:   rec.Platform,
		CreatedAt:  rec.CreatedAt,
		LastSeenAt: rec.LastSeenAt,
		Current:    currentDeviceID != "" && rec.DeviceID == currentDeviceID,
	}
}

// HashToken returns the hex SHA256 digest stored in place of the token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// generateToken generates a random bearer token
func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
