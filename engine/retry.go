package engine

import (
	"context"
	"errors"
	"time"

	"github.com/hazyhaar/depeche/remote"
)

// call issues one logical request with pacing and bounded retry. It returns
// the attempt count alongside the result so the run report can record it.
//
// Rate-limit responses wait out the server's Retry-After when given;
// everything else retryable backs off exponentially from BaseBackoff.
// Cancellation is checked before and after every attempt and wins over
// retry: a cancelled call returns ErrCancelled immediately.
func (e *Engine) call(ctx context.Context, method, path string, body any) (*remote.Response, int, error) {
	var lastErr error
	for attempt := 1; attempt <= e.cfg.MaxAttempts; attempt++ {
		if e.cancelled(ctx) {
			return nil, attempt - 1, ErrCancelled
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return nil, attempt - 1, ErrCancelled
		}

		resp, err := e.api.Do(ctx, method, path, body)
		if e.cancelled(ctx) {
			return nil, attempt, ErrCancelled
		}
		if err == nil {
			return resp, attempt, nil
		}
		lastErr = err

		if !remote.Retryable(err) || attempt == e.cfg.MaxAttempts {
			return nil, attempt, err
		}

		wait := e.cfg.BaseBackoff * (1 << uint(attempt-1))
		var rl *remote.RateLimitedError
		if errors.As(err, &rl) && rl.RetryAfter > 0 {
			wait = rl.RetryAfter
		}
		e.log.WarnContext(ctx, "retrying request",
			"method", method,
			"path", path,
			"attempt", attempt,
			"max_attempts", e.cfg.MaxAttempts,
			"wait_ms", wait.Milliseconds(),
			"error", err)

		select {
		case <-ctx.Done():
			return nil, attempt, ErrCancelled
		case <-time.After(wait):
		}
	}
	return nil, e.cfg.MaxAttempts, lastErr
}

func (e *Engine) cancelled(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	return e.cfg.Cancelled != nil && e.cfg.Cancelled()
}
