package errors

import (
	"errors"
	"fmt"
)

// Error taxonomy for the login session
var (
	// Configuration errors abort start-up
	ErrConfig = errors.New("invalid configuration")

	// Token errors always resolve to deleting the stored token
	ErrBadSignature   = errors.New("bad token signature")
	ErrMalformedToken = errors.New("malformed token")
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrMissingField   = errors.New("missing required field")

	// Exchange errors are reported to the user, the session stays anonymous
	ErrExchange       = errors.New("authorization code exchange failed")
	ErrInvalidGrant   = errors.New("invalid grant")
	ErrStateMismatch  = errors.New("flow state mismatch")
	ErrProviderDenied = errors.New("authorization denied by provider")

	// Client-side store errors are logged and treated as "no token"
	ErrStore = errors.New("token store failure")

	// Session errors
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrAlreadyAuthenticated = errors.New("already authenticated")

	// General errors
	ErrNotFound = errors.New("not found")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Kind returns the first sentinel of the token taxonomy found in err's chain,
// or nil when err is not a token error.
func Kind(err error) error {
	for _, kind := range []error{ErrBadSignature, ErrMalformedToken, ErrTokenExpired, ErrMissingField, ErrInvalidToken} {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}
