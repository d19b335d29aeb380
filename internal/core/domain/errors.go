package domain

import (
	"errors"
	"strings"
)

// Domain errors.
var (
	// ErrUnknownTimeZone indicates a time zone identifier could not be resolved
	// as either an IANA name or a Windows time zone name.
	ErrUnknownTimeZone = errors.New("unknown time zone")

	// ErrAuthChallenge indicates the session's credentials are stale and the
	// user must sign in again. It is never shown as a generic error.
	ErrAuthChallenge = errors.New("authentication challenge")

	// ErrSessionNotFound indicates the session does not exist or has expired.
	ErrSessionNotFound = errors.New("session not found")

	// ErrAuthStateNotFound indicates an OAuth state value is unknown, expired or already used.
	ErrAuthStateNotFound = errors.New("sign-in state not found")

	// ErrInvalidInput indicates a submitted form could not be interpreted.
	ErrInvalidInput = errors.New("invalid input")
)

// ServiceError is returned when the remote calendar API rejects or fails a call.
type ServiceError struct {
	// StatusCode is the HTTP status returned by the remote API.
	StatusCode int
	// Code is the provider's error code (e.g. "ErrorItemNotFound").
	Code string
	// Message is the provider's human-readable message.
	Message string
	// Cause classifies the failure (unauthorised, not found, ...).
	Cause error
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Cause != nil {
		return e.Cause.Error()
	}
	return "remote service error"
}

// Unwrap returns the classifying cause.
func (e *ServiceError) Unwrap() error {
	return e.Cause
}

// IsMatch reports whether the provider error code equals code, ignoring case.
func (e *ServiceError) IsMatch(code string) bool {
	return strings.EqualFold(e.Code, code)
}

// AsServiceError extracts a *ServiceError from an error chain.
func AsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr, true
	}
	return nil, false
}
