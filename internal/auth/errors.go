package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrBadCredentials covers both unknown email and wrong password.
	ErrBadCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned for any missing, malformed, expired or
	// badly signed bearer credential.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrUserNotFound means the token was valid but its account is gone.
	ErrUserNotFound = errors.New("user not found")

	errBadHeader = fmt.Errorf("%w: missing or invalid authorization header", ErrUnauthenticated)
	errBadToken  = fmt.Errorf("%w: invalid or expired token", ErrUnauthenticated)
)
