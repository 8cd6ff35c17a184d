package protocol

import "time"

// HeaderDeviceID carries the per-installation device identifier on
// authentication requests. It travels out-of-band, never in the body.
const HeaderDeviceID = "X-Device-Id"

// Error codes set in the "error" field of ErrorResponse.
const (
	CodeSessionLimit       = "SESSION_LIMIT_REACHED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// DeviceInfo describes the installation presenting a device identifier.
type DeviceInfo struct {
	Hostname string `json:"hostname,omitempty"`
	Platform string `json:"platform,omitempty"`
	OS       string `json:"os,omitempty"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Device   DeviceInfo `json:"device,omitempty"`
}

// LoginResponse is returned on successful authentication.
type LoginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Role   string `json:"role"`
	Email  string `json:"email"`
	Name   string `json:"name,omitempty"`
}

// ErrorResponse is the failure payload shared by all endpoints. Code
// discriminates structured conditions; the quota fields are set only when
// Code is CodeSessionLimit.
type ErrorResponse struct {
	Code           string `json:"error,omitempty"`
	Message        string `json:"message"`
	MaxSessions    int    `json:"maxSessions,omitempty"`
	ActiveSessions int    `json:"activeSessions,omitempty"`
}

// ChangePasswordRequest is the body of POST /api/change-password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// CloseOtherSessionsRequest is the body of POST /api/close-other-sessions.
// DeviceID names the session to keep.
type CloseOtherSessionsRequest struct {
	DeviceID string `json:"deviceId"`
}

// CloseOtherSessionsResponse reports how many sessions were terminated.
type CloseOtherSessionsResponse struct {
	Closed int `json:"closed"`
}

// Session describes one active session of a user.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	DeviceID   string    `json:"deviceId"`
	DeviceName string    `json:"deviceName,omitempty"`
	Platform   string    `json:"platform,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	Current    bool      `json:"current,omitempty"`
}

// Session event types delivered on the /api/ws/sessions stream.
const (
	SessionOpened = "opened"
	SessionClosed = "closed"
)

// SessionEvent is one message on the live session stream.
type SessionEvent struct {
	Type    string  `json:"type"`
	Session Session `json:"session"`
}

// User is an administered account.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateUserRequest is the body of POST /api/users.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateUserRequest is the body of PUT /api/users/:id. Nil fields are
// left unchanged.
type UpdateUserRequest struct {
	Name *string `json:"name,omitempty"`
	Role *string `json:"role,omitempty"`
}

// Folder is a shared document folder.
type Folder struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	OwnerID   string    `json:"ownerId"`
	Shared    bool      `json:"shared"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateFolderRequest is the body of POST /api/folders.
type CreateFolderRequest struct {
	Name    string `json:"name"`
	OwnerID string `json:"ownerId"`
	Shared  bool   `json:"shared"`
}

// UpdateFolderRequest is the body of PUT /api/folders/:id. Nil fields are
// left unchanged.
type UpdateFolderRequest struct {
	Name   *string `json:"name,omitempty"`
	Shared *bool   `json:"shared,omitempty"`
}
