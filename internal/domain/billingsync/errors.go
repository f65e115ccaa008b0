package billingsync

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrAuthFailed indicates the billing provider rejected the connection's
	// credentials (HTTP 401/403). Never retried.
	ErrAuthFailed = errors.New("billingsync: billing provider rejected credentials")

	// ErrRateLimited indicates the retry budget was exhausted under HTTP 429.
	ErrRateLimited = errors.New("billingsync: billing provider rate limit exceeded")

	// ErrRemoteAPI indicates a non-retryable provider failure, including
	// exhausted retries on transient errors.
	ErrRemoteAPI = errors.New("billingsync: billing provider request failed")

	// ErrConnectionInactive is returned when a sync is requested for a
	// connection whose active flag is off.
	ErrConnectionInactive = errors.New("billingsync: connection is not active")
)

// AuthError is returned when the provider answers 401 or 403. Retrying cannot
// fix bad credentials, so callers must abort the connection's run immediately.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("billingsync: authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}

func (e *AuthError) Unwrap() error { return ErrAuthFailed }

// RateLimitError is returned once the 429 retry budget is exhausted. The
// advisory wait time is carried as data so callers can report it without
// inspecting headers themselves; RetryAfter is zero when the provider sent
// no Retry-After hint.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("billingsync: rate limit exceeded, retry after %s: %s", e.RetryAfter, e.Message)
	}
	return "billingsync: rate limit exceeded: " + e.Message
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// APIError is returned for non-retryable provider responses and for transient
// failures that outlived the retry budget.
type APIError struct {
	StatusCode int
	Message    string
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("billingsync: provider error (HTTP %d): %s", e.StatusCode, e.Message)
	}
	return "billingsync: provider error: " + e.Message
}

func (e *APIError) Unwrap() error {
	if e.Cause != nil {
		return e.Cause
	}
	return ErrRemoteAPI
}

// Is lets APIError match ErrRemoteAPI even when it wraps a transport cause.
func (e *APIError) Is(target error) bool { return target == ErrRemoteAPI }
