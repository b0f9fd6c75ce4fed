package session

import (
	"errors"
	"strings"
)

// Failure classes surfaced to callers. Messages are suitable for direct
// display; nothing internal leaks through them.
var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUserNotFound     = errors.New("no account found with this email address")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrEmailExists      = errors.New("an account with this email already exists")
	ErrNoRefreshToken   = errors.New("no refresh token available")
	ErrSessionExpired   = errors.New("session expired, please log in again")
)

// ValidationError aggregates field validation messages for one operation.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Errors, ", ")
}

// IsValidationError reports whether err is a field validation failure.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
