package syncer

import (
	"context"
	"errors"
	"time"

	"pelosync/internal/auth"
	"pelosync/internal/peloton"
)

// Outcome is the result of one attempt at a remote operation.
type Outcome struct {
	OK        bool
	Err       error
	Retryable bool
}

// classify sorts an attempt error into retryable and terminal failures.
// Rate limiting and server-side trouble are worth another try; auth
// rejections and malformed requests are not.
func classifyAttempt(err error) Outcome {
	if err == nil {
		return Outcome{OK: true}
	}

	var apiErr *peloton.APIError
	if errors.As(err, &apiErr) {
		retryable := apiErr.Status == 429 || apiErr.Status >= 500
		return Outcome{Err: err, Retryable: retryable}
	}

	var authErr *auth.AuthError
	if errors.As(err, &authErr) {
		// Auth failures never recover by retrying the same request.
		return Outcome{Err: err, Retryable: false}
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Outcome{Err: err, Retryable: false}
	}

	// Anything else is assumed to be transient transport trouble.
	return Outcome{Err: err, Retryable: true}
}

// retryBaseDelay is the first backoff step; each retry doubles it.
const retryBaseDelay = 500 * time.Millisecond

// withRetry runs fn up to maxRetries+1 times with exponential backoff,
// stopping early on terminal errors or context cancellation.
func withRetry(ctx context.Context, maxRetries int, fn func(context.Context) error) error {
	delay := retryBaseDelay
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		outcome := classifyAttempt(fn(ctx))
		if outcome.OK {
			return nil
		}
		lastErr = outcome.Err
		if !outcome.Retryable {
			return lastErr
		}
	}
	return lastErr
}
