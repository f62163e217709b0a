package security

import "errors"

// MaxPasswordBytes is the bcrypt input limit.
const MaxPasswordBytes = 72

var (
	ErrPasswordTooLong = errors.New("password exceeds 72 bytes")

	// ErrTokenExpired and ErrTokenInvalid are kept apart for logging only.
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)
