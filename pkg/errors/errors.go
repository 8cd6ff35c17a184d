package errors

import "errors"

// Authentication errors
var (
	// ErrInvalidCredentials is returned when email or password is wrong
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotAuthenticated is returned when a request carries no valid session token
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")
)

// Storage errors
var (
	// ErrSettingNotFound is returned when a settings key is absent
	ErrSettingNotFound = errors.New("setting not found")

	// ErrUserNotFound is returned when a user is not found
	ErrUserNotFound = errors.New("user not found")

	// ErrFolderNotFound is returned when a folder is not found
	ErrFolderNotFound = errors.New("folder not found")

	// ErrDuplicateEmail is returned when the email is already registered
	ErrDuplicateEmail = errors.New("email already in use")
)

// Configuration errors
var (
	// ErrInvalidConfig is returned when configuration is invalid
	ErrInvalidConfig = errors.New("invalid configuration")
)
