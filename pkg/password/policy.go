package password

import (
	"errors"
	"unicode"
	"unicode/utf8"
)

// MinLength is the minimum accepted password length.
const MinLength = 6

// Validation errors, one per distinct rejection reason. All of them are
// raised locally, before any network traffic.
var (
	ErrFieldsRequired    = errors.New("all password fields are required")
	ErrConfirmMismatch   = errors.New("password confirmation does not match")
	ErrPasswordUnchanged = errors.New("new password must differ from the current password")
	ErrTooShort          = errors.New("password must be at least 6 characters")
	ErrNoUppercase       = errors.New("password must contain an uppercase letter")
	ErrNoLowercase       = errors.New("password must contain a lowercase letter")
	ErrNoDigit           = errors.New("password must contain a digit")
)

// CheckStrength validates a candidate password against the policy:
// at least MinLength characters with an uppercase letter, a lowercase
// letter and a digit.
func CheckStrength(candidate string) error {
	if utf8.RuneCountInString(candidate) < MinLength {
		return ErrTooShort
	}

	var upper, lower, digit bool
	for _, r := range candidate {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !upper {
		return ErrNoUppercase
	}
	if !lower {
		return ErrNoLowercase
	}
	if !digit {
		return ErrNoDigit
	}
	return nil
}

// ValidateChange runs the full pre-submission validation, short-circuiting
// at the first failure: all fields present, confirmation matches, the new
// password differs from the current one, and the new password satisfies
// the policy.
func ValidateChange(current, next, confirm string) error {
	if current == "" || next == "" || confirm == "" {
		return ErrFieldsRequired
	}
	if next != confirm {
		return ErrConfirmMismatch
	}
	if next == current {
		return ErrPasswordUnchanged
	}
	return CheckStrength(next)
}
