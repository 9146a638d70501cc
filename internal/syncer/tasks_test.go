package syncer

import (
	"context"
	"errors"
	"testing"

	"pelosync/internal/auth"
	"pelosync/internal/peloton"
)

func TestClassifyAttempt(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{"rate limited", &peloton.APIError{Status: 429}, true},
		{"server error", &peloton.APIError{Status: 503}, true},
		{"unauthorized", &peloton.APIError{Status: 401}, false},
		{"forbidden", &peloton.APIError{Status: 403}, false},
		{"not found", &peloton.APIError{Status: 404}, false},
		{"auth failure", &auth.AuthError{Kind: auth.KindNoRefreshToken}, false},
		{"cancellation", context.Canceled, false},
		{"transport", errors.New("connection reset"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := classifyAttempt(tt.err)
			if outcome.OK {
				t.Fatal("error classified as success")
			}
			if outcome.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", outcome.Retryable, tt.retryable)
			}
		})
	}

	if !classifyAttempt(nil).OK {
		t.Error("nil error should be OK")
	}
}

func TestWithRetryEventualSuccess(t *testing.T) {
	attempts := 0
	err := withRetry(t.Context(), 3, func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return &peloton.APIError{Status: 500}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("withRetry: %v", err)
	}
	if attempts != 3 {
		t.Errorf("ran %d attempts, want 3", attempts)
	}
}

func TestWithRetryTerminalStopsEarly(t *testing.T) {
	attempts := 0
	err := withRetry(t.Context(), 3, func(ctx context.Context) error {
		attempts++
		return &peloton.APIError{Status: 403}
	})
	var apiErr *peloton.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 403 {
		t.Fatalf("got %v, want the terminal 403", err)
	}
	if attempts != 1 {
		t.Errorf("terminal error retried %d times, want 1 attempt", attempts)
	}
}

func TestWithRetryExhaustsBudget(t *testing.T) {
	attempts := 0
	err := withRetry(t.Context(), 2, func(ctx context.Context) error {
		attempts++
		return &peloton.APIError{Status: 500}
	})
	if err == nil {
		t.Fatal("exhausted retries should return the last error")
	}
	if attempts != 3 {
		t.Errorf("ran %d attempts, want 3 (initial + 2 retries)", attempts)
	}
}

func TestWithRetryHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	attempts := 0
	err := withRetry(ctx, 5, func(ctx context.Context) error {
		attempts++
		cancel()
		return &peloton.APIError{Status: 500}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
	if attempts != 1 {
		t.Errorf("ran %d attempts after cancellation, want 1", attempts)
	}
}
