package auth

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"shareadmin/pkg/protocol"
	"shareadmin/pkg/storage"
)

func newTestManager(t *testing.T, maxPerUser int) *Manager {
	t.Helper()
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewManager(store, maxPerUser)
}

func TestOpenAndResolve(t *testing.T) {
	m := newTestManager(t, 3)
	token, err := m.Open("u-1", "dev-a", protocol.DeviceInfo{Hostname: "laptop"})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if token == "" {
		t.Fatal("empty token")
	}

	rec, ok := m.Resolve(token)
	if !ok {
		t.Fatal("token did not resolve")
	}
	if rec.UserID != "u-1" || rec.DeviceID != "dev-a" {
		t.Errorf("resolved wrong session: %+v", rec)
	}
	if _, ok := m.Resolve("bogus"); ok {
		t.Error("bogus token resolved")
	}
}

func TestOpenEnforcesQuota(t *testing.T) {
	m := newTestManager(t, 2)
	for _, dev := range []string{"dev-a", "dev-b"} {
		if _, err := m.Open("u-1", dev, protocol.DeviceInfo{}); err != nil {
			t.Fatalf("Open(%s): %v", dev, err)
		}
	}

	_, err := m.Open("u-1", "dev-c", protocol.DeviceInfo{})
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QuotaError, got %v", err)
	}
	if qe.Max != 2 || qe.Active != 2 {
		t.Errorf("quota numbers: max=%d active=%d", qe.Max, qe.Active)
	}

	// A different user is unaffected.
	if _, err := m.Open("u-2", "dev-c", protocol.DeviceInfo{}); err != nil {
		t.Errorf("other user blocked: %v", err)
	}
}

func TestReloginFromKnownDeviceReplacesSession(t *testing.T) {
	m := newTestManager(t, 1)
	first, err := m.Open("u-1", "dev-a", protocol.DeviceInfo{})
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}

	// Same device again: allowed even at the quota, old token dies.
	second, err := m.Open("u-1", "dev-a", protocol.DeviceInfo{})
	if err != nil {
		t.Fatalf("re-login: %v", err)
	}
	if _, ok := m.Resolve(first); ok {
		t.Error("replaced session still resolves")
	}
	if _, ok := m.Resolve(second); !ok {
		t.Error("new session does not resolve")
	}
}

func TestCloseOthers(t *testing.T) {
	m := newTestManager(t, 3)
	keep, _ := m.Open("u-1", "dev-keep", protocol.DeviceInfo{})
	other1, _ := m.Open("u-1", "dev-1", protocol.DeviceInfo{})
	other2, _ := m.Open("u-1", "dev-2", protocol.DeviceInfo{})

	closed, err := m.CloseOthers("u-1", "dev-keep")
	if err != nil {
		t.Fatalf("CloseOthers: %v", err)
	}
	if closed != 2 {
		t.Errorf("closed = %d, want 2", closed)
	}
	if _, ok := m.Resolve(keep); !ok {
		t.Error("kept session was closed")
	}
	for _, tok := range []string{other1, other2} {
		if _, ok := m.Resolve(tok); ok {
			t.Error("other session survived")
		}
	}
}

func TestCloseAll(t *testing.T) {
	m := newTestManager(t, 3)
	tok, _ := m.Open("u-1", "dev-a", protocol.DeviceInfo{})
	m.Open("u-1", "dev-b", protocol.DeviceInfo{})

	closed, err := m.CloseAll("u-1")
	if err != nil {
		t.Fatalf("CloseAll: %v", err)
	}
	if closed != 2 {
		t.Errorf("closed = %d, want 2", closed)
	}
	if _, ok := m.Resolve(tok); ok {
		t.Error("session survived CloseAll")
	}
}

func TestSessionsMarksCurrent(t *testing.T) {
	m := newTestManager(t, 3)
	m.Open("u-1", "dev-a", protocol.DeviceInfo{Hostname: "laptop"})
	m.Open("u-1", "dev-b", protocol.DeviceInfo{Hostname: "phone"})

	sessions, err := m.Sessions("u-1", "dev-b")
	if err != nil {
		t.Fatalf("Sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	for _, s := range sessions {
		if s.DeviceID == "dev-b" && !s.Current {
			t.Error("current device not marked")
		}
		if s.DeviceID == "dev-a" && s.Current {
			t.Error("non-current device marked current")
		}
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	m := newTestManager(t, 3)
	events, cancel := m.Subscribe()
	defer cancel()

	if _, err := m.Open("u-1", "dev-a", protocol.DeviceInfo{}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	select {
	case ev := <-events:
		if ev.Type != protocol.SessionOpened {
			t.Errorf("event type = %q, want %q", ev.Type, protocol.SessionOpened)
		}
		if ev.Session.DeviceID != "dev-a" {
			t.Errorf("event device = %q", ev.Session.DeviceID)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}
