package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"shareadmin/pkg/auth"
	"shareadmin/pkg/protocol"
	"shareadmin/pkg/storage"
)

func newTestAPI(t *testing.T, maxSessions int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	sessions := auth.NewManager(store, maxSessions)
	handler := NewHandler(sessions, store)
	if err := handler.EnsureAdmin("admin@local", "Admin123"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}

	srv := httptest.NewServer(NewRouter(handler, sessions))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url, token, deviceID string, body, out any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if deviceID != "" {
		req.Header.Set(protocol.HeaderDeviceID, deviceID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return resp
}

func login(t *testing.T, srv *httptest.Server, email, pw, deviceID string) (*protocol.LoginResponse, *protocol.ErrorResponse, int) {
	t.Helper()
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(protocol.LoginRequest{Email: email, Password: pw})
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/api/login", &buf)
	req.Header.Set("Content-Type", "application/json")
	if deviceID != "" {
		req.Header.Set(protocol.HeaderDeviceID, deviceID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("login request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		var ok protocol.LoginResponse
		_ = json.NewDecoder(resp.Body).Decode(&ok)
		return &ok, nil, resp.StatusCode
	}
	var fail protocol.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&fail)
	return nil, &fail, resp.StatusCode
}

func TestLoginRequiresDeviceID(t *testing.T) {
	srv := newTestAPI(t, 3)
	_, _, status := login(t, srv, "admin@local", "Admin123", "")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	srv := newTestAPI(t, 3)
	_, fail, status := login(t, srv, "admin@local", "Nope123", "dev-a")
	if status != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", status)
	}
	if fail.Code != protocol.CodeInvalidCredentials {
		t.Errorf("code = %q", fail.Code)
	}
}

func TestLoginSessionQuota(t *testing.T) {
	srv := newTestAPI(t, 2)
	for _, dev := range []string{"dev-a", "dev-b"} {
		if _, _, status := login(t, srv, "admin@local", "Admin123", dev); status != http.StatusOK {
			t.Fatalf("login from %s: status %d", dev, status)
		}
	}

	_, fail, status := login(t, srv, "admin@local", "Admin123", "dev-c")
	if status != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", status)
	}
	if fail.Code != protocol.CodeSessionLimit {
		t.Fatalf("code = %q, want %q", fail.Code, protocol.CodeSessionLimit)
	}
	if fail.MaxSessions != 2 || fail.ActiveSessions != 2 {
		t.Errorf("quota payload: max=%d active=%d", fail.MaxSessions, fail.ActiveSessions)
	}

	// Re-login from a known device is always allowed.
	if _, _, status := login(t, srv, "admin@local", "Admin123", "dev-a"); status != http.StatusOK {
		t.Errorf("re-login from known device: status %d", status)
	}
}

func TestCloseOtherSessionsRecoversQuota(t *testing.T) {
	srv := newTestAPI(t, 2)
	ok, _, _ := login(t, srv, "admin@local", "Admin123", "dev-a")
	login(t, srv, "admin@local", "Admin123", "dev-b")

	var out protocol.CloseOtherSessionsResponse
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/close-other-sessions", ok.Token, "dev-a",
		protocol.CloseOtherSessionsRequest{DeviceID: "dev-a"}, &out)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("close-other-sessions: status %d", resp.StatusCode)
	}
	if out.Closed != 1 {
		t.Errorf("closed = %d, want 1", out.Closed)
	}

	if _, _, status := login(t, srv, "admin@local", "Admin123", "dev-c"); status != http.StatusOK {
		t.Errorf("login after recovery: status %d", status)
	}
}

func TestActiveSessionsMarksCurrent(t *testing.T) {
	srv := newTestAPI(t, 3)
	ok, _, _ := login(t, srv, "admin@local", "Admin123", "dev-a")
	login(t, srv, "admin@local", "Admin123", "dev-b")

	var sessions []protocol.Session
	resp := doJSON(t, http.MethodGet, srv.URL+"/api/active-sessions", ok.Token, "dev-a", nil, &sessions)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("active-sessions: status %d", resp.StatusCode)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	for _, s := range sessions {
		if s.DeviceID == "dev-a" && !s.Current {
			t.Error("presenting device not marked current")
		}
	}
}

func TestChangePasswordRevokesSessions(t *testing.T) {
	srv := newTestAPI(t, 3)
	ok, _, _ := login(t, srv, "admin@local", "Admin123", "dev-a")

	// Wrong current password is rejected.
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/change-password", ok.Token, "dev-a",
		protocol.ChangePasswordRequest{CurrentPassword: "Wrong1", NewPassword: "Fresh42"}, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("wrong current password: status %d", resp.StatusCode)
	}

	// Weak replacement is rejected server-side too.
	resp = doJSON(t, http.MethodPost, srv.URL+"/api/change-password", ok.Token, "dev-a",
		protocol.ChangePasswordRequest{CurrentPassword: "Admin123", NewPassword: "weak"}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("weak password: status %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, srv.URL+"/api/change-password", ok.Token, "dev-a",
		protocol.ChangePasswordRequest{CurrentPassword: "Admin123", NewPassword: "Fresh42"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("change-password: status %d", resp.StatusCode)
	}

	// The old token is dead.
	resp = doJSON(t, http.MethodGet, srv.URL+"/api/active-sessions", ok.Token, "dev-a", nil, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("old token after rotation: status %d, want 401", resp.StatusCode)
	}

	// Old credentials fail, new ones work.
	if _, _, status := login(t, srv, "admin@local", "Admin123", "dev-a"); status != http.StatusUnauthorized {
		t.Errorf("old password still accepted: status %d", status)
	}
	if _, _, status := login(t, srv, "admin@local", "Fresh42", "dev-a"); status != http.StatusOK {
		t.Errorf("new password rejected: status %d", status)
	}
}

func TestUserAdministrationRequiresAdminRole(t *testing.T) {
	srv := newTestAPI(t, 3)
	admin, _, _ := login(t, srv, "admin@local", "Admin123", "dev-a")

	var created protocol.User
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/users", admin.Token, "dev-a",
		protocol.CreateUserRequest{Email: "user@b.c", Name: "Plain User", Password: "User123"}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create user: status %d", resp.StatusCode)
	}
	if created.Role != "user" {
		t.Errorf("default role = %q, want user", created.Role)
	}

	plain, _, status := login(t, srv, "user@b.c", "User123", "dev-u")
	if status != http.StatusOK {
		t.Fatalf("created user cannot log in: status %d", status)
	}

	resp = doJSON(t, http.MethodGet, srv.URL+"/api/users", plain.Token, "dev-u", nil, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("non-admin listing users: status %d, want 403", resp.StatusCode)
	}
}

func TestFolderCRUD(t *testing.T) {
	srv := newTestAPI(t, 3)
	admin, _, _ := login(t, srv, "admin@local", "Admin123", "dev-a")

	var folder protocol.Folder
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/folders", admin.Token, "dev-a",
		protocol.CreateFolderRequest{Name: "Reports", Shared: true}, &folder)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create folder: status %d", resp.StatusCode)
	}
	if folder.OwnerID != admin.UserID {
		t.Errorf("owner defaulted to %q, want %q", folder.OwnerID, admin.UserID)
	}

	newName := "Quarterly Reports"
	var updated protocol.Folder
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/folders/"+folder.ID, admin.Token, "dev-a",
		protocol.UpdateFolderRequest{Name: &newName}, &updated)
	if resp.StatusCode != http.StatusOK || updated.Name != newName {
		t.Fatalf("update folder: status %d, name %q", resp.StatusCode, updated.Name)
	}

	var folders []protocol.Folder
	doJSON(t, http.MethodGet, srv.URL+"/api/folders", admin.Token, "dev-a", nil, &folders)
	if len(folders) != 1 {
		t.Fatalf("got %d folders, want 1", len(folders))
	}

	resp = doJSON(t, http.MethodDelete, srv.URL+"/api/folders/"+folder.ID, admin.Token, "dev-a", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("delete folder: status %d", resp.StatusCode)
	}
}
