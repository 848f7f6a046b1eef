// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")

	// Pipeline errors.
	ErrCacheMiss      = errors.New("no cached snapshot")
	ErrFetchInFlight  = errors.New("a fetch for this account is already in flight")
	ErrExportInFlight = errors.New("an export is already in progress")
	ErrNothingQueued  = errors.New("nothing queued for export")

	// Configuration errors.
	ErrMissingConfig = errors.New("missing configuration")
	ErrInvalidConfig = errors.New("invalid configuration")
)

// NetworkError reports a connectivity failure talking to a collaborator.
type NetworkError struct {
	Err error
	Op  string
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError reports that the upstream marketplace account is not connected.
type AuthError struct {
	Err error
	Op  string
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("account not connected (%s): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("account not connected (%s)", e.Op)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// CreditError reports insufficient scan quota. It doubles as the top-up
// signal returned to the caller.
type CreditError struct {
	Required  int
	Available int
}

func (e *CreditError) Error() string {
	return fmt.Sprintf("insufficient credits: need %d, have %d", e.Required, e.Available)
}

// Shortfall is the number of credits the user must top up.
func (e *CreditError) Shortfall() int {
	if e.Required <= e.Available {
		return 0
	}
	return e.Required - e.Available
}

// ValidationError describes a malformed input value that was coerced to a
// safe default rather than rejected.
type ValidationError struct {
	Value   any
	Default any
	Field   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %v, using %v", e.Field, e.Value, e.Default)
}

// ExportError reports a failure that aborted an export transaction.
type ExportError struct {
	Err   error
	Stage string
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Stage, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// IsUnreachable reports whether err means the listing source could not be
// used and a fallback source should be tried.
func IsUnreachable(err error) bool {
	var netErr *NetworkError
	var authErr *AuthError
	return errors.As(err, &netErr) || errors.As(err, &authErr)
}

// IsRetryable determines if an error should trigger a retry.
func IsRetryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrRateLimit) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var retryableErr *RetryableError
	if errors.As(err, &retryableErr) {
		return retryableErr.Retryable
	}

	var netErr *NetworkError
	return errors.As(err, &netErr)
}
