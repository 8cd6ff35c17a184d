package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"shareadmin/pkg/logger"
	"shareadmin/pkg/protocol"
)

// fallbackMessage is used when the server provides no message of its own.
const fallbackMessage = "request failed"

// Outcome classifies the terminal state of a login attempt.
type Outcome int

const (
	// OutcomeAuthenticated means the server accepted the credentials.
	OutcomeAuthenticated Outcome = iota
	// OutcomeInvalidCredentials means email or password was rejected.
	OutcomeInvalidCredentials
	// OutcomeSessionLimit means the per-user device quota is exhausted.
	OutcomeSessionLimit
	// OutcomeTransportFailure covers network errors and unclassified
	// server failures.
	OutcomeTransportFailure
)

// Credentials are the user-supplied login inputs.
type Credentials struct {
	Email    string
	Password string
}

// LoginResult is the terminal outcome of one login attempt.
type LoginResult struct {
	Outcome Outcome

	// Set when Outcome is OutcomeAuthenticated.
	Token  string
	UserID string
	Role   string
	Email  string
	Name   string

	// Message carries the server-provided text for rejected and failed
	// attempts, verbatim. MaxSessions and ActiveSessions are set only
	// when Outcome is OutcomeSessionLimit.
	Message        string
	MaxSessions    int
	ActiveSessions int
}

// DeviceIDSource provides the identifier attached to every handshake.
type DeviceIDSource interface {
	GetOrCreate() string
}

// Negotiator performs the authentication handshake and session-management
// calls against the server. It holds no session state of its own; callers
// own the token.
type Negotiator struct {
	baseURL string
	http    *http.Client
	devices DeviceIDSource
	info    protocol.DeviceInfo
	log     *logger.Logger
}

// NewNegotiator creates a negotiator for the server at baseURL.
func NewNegotiator(baseURL string, devices DeviceIDSource) *Negotiator {
	return &Negotiator{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		devices: devices,
		log:     logger.Component("session"),
	}
}

// SetDeviceInfo attaches host metadata to subsequent login requests.
func (n *Negotiator) SetDeviceInfo(info protocol.DeviceInfo) {
	n.info = info
}

// SetHTTPClient replaces the underlying HTTP client.
func (n *Negotiator) SetHTTPClient(c *http.Client) {
	n.http = c
}

// Login performs the handshake. The device identifier is resolved before
// the request is issued and attached as a header. The returned error is
// non-nil only when the request could not be constructed; every network
// or server condition is classified into the result.
//
// No retries are performed; recovering from OutcomeSessionLimit (e.g. via
// CloseOtherSessions and a fresh Login) is the caller's decision.
func (n *Negotiator) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	deviceID := n.devices.GetOrCreate()

	body, err := json.Marshal(protocol.LoginRequest{
		Email:    creds.Email,
		Password: creds.Password,
		Device:   n.info,
	})
	if err != nil {
		return nil, fmt.Errorf("encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/login", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(protocol.HeaderDeviceID, deviceID)

	resp, err := n.http.Do(req)
	if err != nil {
		n.log.Warn("login transport failure", "error", err)
		return &LoginResult{Outcome: OutcomeTransportFailure, Message: fallbackMessage}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var ok protocol.LoginResponse
		if err := json.NewDecoder(resp.Body).Decode(&ok); err != nil {
			return &LoginResult{Outcome: OutcomeTransportFailure, Message: fallbackMessage}, nil
		}
		return &LoginResult{
			Outcome: OutcomeAuthenticated,
			Token:   ok.Token,
			UserID:  ok.UserID,
			Role:    ok.Role,
			Email:   ok.Email,
			Name:    ok.Name,
		}, nil
	}

	return classifyFailure(resp.StatusCode, resp.Body), nil
}

// classifyFailure maps a non-2xx login response to a result variant. The
// session-limit condition is recognized by its error code, never by
// probing optional fields.
func classifyFailure(status int, body io.Reader) *LoginResult {
	var fail protocol.ErrorResponse
	_ = json.NewDecoder(body).Decode(&fail)

	message := fail.Message
	if message == "" {
		message = fallbackMessage
	}

	if fail.Code == protocol.CodeSessionLimit {
		return &LoginResult{
			Outcome:        OutcomeSessionLimit,
			Message:        message,
			MaxSessions:    fail.MaxSessions,
			ActiveSessions: fail.ActiveSessions,
		}
	}
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		return &LoginResult{Outcome: OutcomeInvalidCredentials, Message: message}
	}
	return &LoginResult{Outcome: OutcomeTransportFailure, Message: message}
}

// CloseOtherSessions asks the server to terminate every session of the
// authenticated user except the one bound to this installation's device
// identifier. It returns the number of sessions closed.
func (n *Negotiator) CloseOtherSessions(ctx context.Context, token string) (int, error) {
	deviceID := n.devices.GetOrCreate()

	body, err := json.Marshal(protocol.CloseOtherSessionsRequest{DeviceID: deviceID})
	if err != nil {
		return 0, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL+"/api/close-other-sessions", bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(protocol.HeaderDeviceID, deviceID)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := n.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, serverError(resp)
	}
	var out protocol.CloseOtherSessionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	return out.Closed, nil
}

// ActiveSessions lists the server's view of the user's sessions.
func (n *Negotiator) ActiveSessions(ctx context.Context, token string) ([]protocol.Session, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/api/active-sessions", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(protocol.HeaderDeviceID, n.devices.GetOrCreate())

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, serverError(resp)
	}
	var sessions []protocol.Session
	if err := json.NewDecoder(resp.Body).Decode(&sessions); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return sessions, nil
}

// serverError extracts the best available message from a failure response.
func serverError(resp *http.Response) error {
	var fail protocol.ErrorResponse
	_ = json.NewDecoder(resp.Body).Decode(&fail)
	if fail.Message != "" {
		return fmt.Errorf("server: %s", fail.Message)
	}
	return fmt.Errorf("server returned status %d", resp.StatusCode)
}
