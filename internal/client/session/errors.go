package session

import (
	"errors"
	"fmt"
)

// ErrSessionExpired is returned when the backend rejects the current
// credential; the engine has already signed out by the time callers see it.
var ErrSessionExpired = errors.New("session expired")

// ErrNoSession is returned by operations that require an authenticated
// session when none exists.
var ErrNoSession = errors.New("no active session")

// Reason classifies why a sign-in attempt failed.
type Reason string

const (
	// ReasonInvalidAssertion means the identity assertion was rejected.
	ReasonInvalidAssertion Reason = "invalid-assertion"
	// ReasonNotAllowed means the identity is not permitted to sign in.
	ReasonNotAllowed Reason = "not-allowed"
	// ReasonTransport means the sign-in exchange could not be completed.
	ReasonTransport Reason = "transport"
)

// AuthError reports a failed sign-in exchange with its classified reason.
type AuthError struct {
	// Reason is the failure classification.
	Reason Reason
	// Err is the underlying transport or status error.
	Err error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	return fmt.Sprintf("sign-in failed (%s): %v", e.Reason, e.Err)
}

// Unwrap exposes the underlying error for errors.Is/As.
func (e *AuthError) Unwrap() error {
	return e.Err
}
