package apperr

import (
	"errors"
	"fmt"
	"time"
)

var (
	// OAuth flow errors
	ErrStateMismatch       = fmt.Errorf("oauth state mismatch")
	ErrMissingCode         = fmt.Errorf("authorization code missing")
	ErrTokenExchangeFailed = fmt.Errorf("token exchange failed")
	ErrTokenRefreshFailed  = fmt.Errorf("token refresh failed")
	ErrInvalidTransition   = fmt.Errorf("invalid token lifecycle transition")

	// Upstream API errors
	ErrUnauthorized        = fmt.Errorf("upstream rejected access token")
	ErrUpstreamRateLimited = fmt.Errorf("upstream rate limited")
	ErrUpstreamNotFound    = fmt.Errorf("upstream resource not found")
	ErrUpstream            = fmt.Errorf("upstream request failed")
	ErrNotConfigured       = fmt.Errorf("credentials not configured")

	// Account errors
	ErrEmailTaken         = fmt.Errorf("email already registered")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrUserNotFound       = fmt.Errorf("user not found")
	ErrInvalidInput       = fmt.Errorf("invalid input")
)

// RateLimitError carries the Retry-After hint of a 429 response.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: retry after %v", ErrUpstreamRateLimited, e.RetryAfter)
}

func (e *RateLimitError) Unwrap() error {
	return ErrUpstreamRateLimited
}

var codes = []struct {
	err  error
	code string
}{
	{ErrStateMismatch, "state_mismatch"},
	{ErrMissingCode, "missing_code"},
	{ErrTokenExchangeFailed, "token_exchange"},
	{ErrTokenRefreshFailed, "token_refresh"},
	{ErrInvalidTransition, "invalid_transition"},
	{ErrUnauthorized, "unauthorized"},
	{ErrUpstreamRateLimited, "rate_limited"},
	{ErrUpstreamNotFound, "not_found"},
	{ErrNotConfigured, "not_configured"},
	{ErrEmailTaken, "email_taken"},
	{ErrInvalidCredentials, "invalid_credentials"},
	{ErrUserNotFound, "user_not_found"},
	{ErrInvalidInput, "invalid_input"},
	{ErrUpstream, "upstream_error"},
}

// ErrorCode maps an error to the short code used in redirect query strings
// and JSON bodies. Unknown errors map to "server_error".
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "server_error"
}
