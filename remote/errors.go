package remote

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"
)

// RateLimitedError is returned on HTTP 429. RetryAfter carries the server's
// requested wait when the Retry-After header was present and parseable,
// zero otherwise.
type RateLimitedError struct {
	Method     string
	Path       string
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("remote: rate limited on %s %s (retry after %s)", e.Method, e.Path, e.RetryAfter)
	}
	return fmt.Sprintf("remote: rate limited on %s %s", e.Method, e.Path)
}

// APIError is returned on any non-2xx status other than 429. Code and
// Message are taken from the platform's error body when present.
type APIError struct {
	Method  string
	Path    string
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("remote: %s %s: http %d %s: %s", e.Method, e.Path, e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("remote: %s %s: http %d", e.Method, e.Path, e.Status)
}

// Retryable reports whether a failed call is worth repeating: rate limits,
// server-side 5xx responses, and transport-level failures (connection
// resets, EOFs, request timeouts) are; client errors and caller
// cancellation are not.
func Retryable(err error) bool {
	var rl *RateLimitedError
	if errors.As(err, &rl) {
		return true
	}
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Status >= 500
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// Anything that never produced an HTTP status reaches us as a *url.Error
	// from the transport. A per-request timeout also lands here and is worth
	// one backoff; caller-context cancellation is filtered above and again
	// by the engine between attempts.
	var ue *url.Error
	return errors.As(err, &ue)
}
