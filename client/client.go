package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"shareadmin/pkg/deviceid"
	apperrors "shareadmin/pkg/errors"
	"shareadmin/pkg/logger"
	"shareadmin/pkg/password"
	"shareadmin/pkg/protocol"
	"shareadmin/pkg/session"
)

// Client is the admin client for a shareadmin server. It owns the device
// identifier, the persisted session token, and the negotiator used for
// authentication. A Client is safe for concurrent use.
type Client struct {
	baseURL string
	neg     *session.Negotiator
	devices *deviceid.Store
	tokens  *TokenStore
	http    *http.Client
	log     *logger.Logger

	mu    sync.Mutex
	token string
}

// New creates a client for the server at serverURL, persisting its device
// identifier and session token in cacheDir. A previously saved token is
// loaded so sessions survive restarts.
func New(serverURL, cacheDir string) *Client {
	storage := deviceid.NewFileStorage(cacheDir)
	devices := deviceid.NewStore(storage)

	neg := session.NewNegotiator(serverURL, devices)
	neg.SetDeviceInfo(deviceid.Info())

	c := &Client{
		baseURL: serverURL,
		neg:     neg,
		devices: devices,
		tokens:  NewTokenStore(storage),
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     logger.Component("client"),
	}

	token, err := c.tokens.Load()
	if err != nil {
		c.log.Warn("load saved token", "error", err)
	}
	c.token = token
	return c
}

// SetHTTPClient replaces the HTTP client used for authenticated calls and
// for the negotiator.
func (c *Client) SetHTTPClient(hc *http.Client) {
	c.http = hc
	c.neg.SetHTTPClient(hc)
}

// DeviceID returns this installation's device identifier, creating it on
// first use.
func (c *Client) DeviceID() string {
	return c.devices.GetOrCreate()
}

// DevicePersistent reports whether the device identifier survived the last
// storage round trip. False means the cache directory is unwritable and
// the identifier will change on restart.
func (c *Client) DevicePersistent() bool {
	return c.devices.Persistent()
}

// ResetDevice discards the device identifier and returns a fresh one. The
// server will treat the next login as a new device.
func (c *Client) ResetDevice() string {
	return c.devices.ForceRegenerate()
}

// LoggedIn reports whether a session token is held.
func (c *Client) LoggedIn() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

// Login authenticates against the server. On success the token is saved
// to the cache directory; a failed save is logged but does not fail the
// login. Rejections and quota exhaustion are reported through the result,
// not the error.
func (c *Client) Login(ctx context.Context, email, pw string) (*session.LoginResult, error) {
	res, err := c.neg.Login(ctx, session.Credentials{Email: email, Password: pw})
	if err != nil {
		return nil, err
	}
	if res.Outcome != session.OutcomeAuthenticated {
		return res, nil
	}

	c.mu.Lock()
	c.token = res.Token
	c.mu.Unlock()

	if err := c.tokens.Save(res.Token); err != nil {
		c.log.Warn("persist session token", "error", err)
	}
	return res, nil
}

// Logout terminates the session server-side and always clears the local
// token. A server failure does not keep the client logged in.
func (c *Client) Logout(ctx context.Context) error {
	token := c.currentToken()
	if token == "" {
		return nil
	}

	err := c.doJSON(ctx, http.MethodPost, "/api/logout", nil, nil)
	if cerr := c.clearLocal(); cerr != nil {
		c.log.Warn("clear local token", "error", cerr)
	}
	if err != nil {
		c.log.Warn("server logout failed", "error", err)
	}
	return nil
}

// ChangePassword validates and submits a password rotation. On success
// the local session is dropped; the server has already revoked every
// token issued under the old password, so the user must log in again.
func (c *Client) ChangePassword(ctx context.Context, current, next, confirm string) error {
	flow := password.NewFlow(transportFunc(func(ctx context.Context, current, next string) error {
		return c.doJSON(ctx, http.MethodPost, "/api/change-password", protocol.ChangePasswordRequest{
			CurrentPassword: current,
			NewPassword:     next,
		}, nil)
	}), c.clearLocal)
	return flow.Change(ctx, current, next, confirm)
}

// ActiveSessions lists the user's sessions as the server sees them. The
// entry for this installation has Current set.
func (c *Client) ActiveSessions(ctx context.Context) ([]protocol.Session, error) {
	token := c.currentToken()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	return c.neg.ActiveSessions(ctx, token)
}

// CloseOtherSessions terminates every session except this installation's
// and returns the number closed.
func (c *Client) CloseOtherSessions(ctx context.Context) (int, error) {
	token := c.currentToken()
	if token == "" {
		return 0, ErrNotLoggedIn
	}
	return c.neg.CloseOtherSessions(ctx, token)
}

// WatchSessions streams live session events until ctx is canceled or the
// connection drops.
func (c *Client) WatchSessions(ctx context.Context) (<-chan protocol.SessionEvent, error) {
	token := c.currentToken()
	if token == "" {
		return nil, ErrNotLoggedIn
	}
	return c.neg.Watch(ctx, token)
}

// Users lists all accounts. Requires the admin role.
func (c *Client) Users(ctx context.Context) ([]protocol.User, error) {
	var users []protocol.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/users", nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser creates an account. Requires the admin role.
func (c *Client) CreateUser(ctx context.Context, req protocol.CreateUserRequest) (*protocol.User, error) {
	var user protocol.User
	if err := c.doJSON(ctx, http.MethodPost, "/api/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser applies a partial update to an account. Requires the admin
// role.
func (c *Client) UpdateUser(ctx context.Context, id string, req protocol.UpdateUserRequest) (*protocol.User, error) {
	var user protocol.User
	if err := c.doJSON(ctx, http.MethodPut, "/api/users/"+id, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// DeleteUser removes an account. Requires the admin role.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/users/"+id, nil, nil)
}

// Folders lists the shared folders.
func (c *Client) Folders(ctx context.Context) ([]protocol.Folder, error) {
	var folders []protocol.Folder
	if err := c.doJSON(ctx, http.MethodGet, "/api/folders", nil, &folders); err != nil {
		return nil, err
	}
	return folders, nil
}

// CreateFolder creates a shared folder.
func (c *Client) CreateFolder(ctx context.Context, req protocol.CreateFolderRequest) (*protocol.Folder, error) {
	var folder protocol.Folder
	if err := c.doJSON(ctx, http.MethodPost, "/api/folders", req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// UpdateFolder applies a partial update to a folder.
func (c *Client) UpdateFolder(ctx context.Context, id string, req protocol.UpdateFolderRequest) (*protocol.Folder, error) {
	var folder protocol.Folder
	if err := c.doJSON(ctx, http.MethodPut, "/api/folders/"+id, req, &folder); err != nil {
		return nil, err
	}
	return &folder, nil
}

// DeleteFolder removes a folder.
func (c *Client) DeleteFolder(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/folders/"+id, nil, nil)
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

// clearLocal drops the in-memory and persisted token without contacting
// the server.
func (c *Client) clearLocal() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
	return c.tokens.Clear()
}

// doJSON performs an authenticated request against the server, encoding
// in and decoding the response into out when non-nil. A 401 clears the
// stored token and surfaces as ErrNotAuthenticated.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	token := c.currentToken()
	if token == "" {
		return ErrNotLoggedIn
	}

	var body bytes.Buffer
	if in != nil {
		if err := json.NewEncoder(&body).Encode(in); err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(protocol.HeaderDeviceID, c.devices.GetOrCreate())

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		// The token is dead server-side; holding on to it helps nobody.
		if cerr := c.clearLocal(); cerr != nil {
			c.log.Warn("clear rejected token", "error", cerr)
		}
		return apperrors.ErrNotAuthenticated
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var fail protocol.ErrorResponse
		_ = json.NewDecoder(resp.Body).Decode(&fail)
		if fail.Message != "" {
			return fmt.Errorf("server: %s", fail.Message)
		}
		return fmt.Errorf("server returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// transportFunc adapts a function to the password.Transport interface.
type transportFunc func(ctx context.Context, current, next string) error

func (f transportFunc) ChangePassword(ctx context.Context, current, next string) error {
	return f(ctx, current, next)
}
