package httputil

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

var errTransient = errors.New("connection reset")

func TestRetryable(t *testing.T) {
	if Retryable(nil) != nil {
		t.Error("Retryable(nil) should return nil")
	}

	err := Retryable(errTransient)
	if !IsRetryable(err) {
		t.Error("IsRetryable should return true for wrapped error")
	}
	if err.Error() != errTransient.Error() {
		t.Errorf("Error message should be preserved: %s", err.Error())
	}
	if !errors.Is(err, errTransient) {
		t.Error("wrapped error should unwrap to its cause")
	}
	if Unwrap(err) != errTransient {
		t.Error("Unwrap should strip the retry marker")
	}
	if IsRetryable(errTransient) {
		t.Error("IsRetryable should return false for unwrapped error")
	}
	if Unwrap(errTransient) != errTransient {
		t.Error("Unwrap should leave plain errors alone")
	}
}

func TestRetryableStatus(t *testing.T) {
	tests := map[int]bool{
		http.StatusOK:                  false,
		http.StatusBadRequest:          false,
		http.StatusNotFound:            false,
		http.StatusTooManyRequests:     true,
		http.StatusInternalServerError: true,
		http.StatusServiceUnavailable:  true,
	}
	for code, want := range tests {
		if got := RetryableStatus(code); got != want {
			t.Errorf("RetryableStatus(%d) = %v, want %v", code, got, want)
		}
	}
}

func TestRetry(t *testing.T) {
	ctx := context.Background()

	calls := 0
	err := Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return nil
	})
	if err != nil || calls != 1 {
		t.Errorf("success: err=%v calls=%d", err, calls)
	}

	calls = 0
	permanent := errors.New("rejected")
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		return permanent
	})
	if err != permanent || calls != 1 {
		t.Errorf("non-retryable: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return Retryable(errTransient)
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Errorf("eventual success: err=%v calls=%d", err, calls)
	}

	calls = 0
	err = Retry(ctx, 2, time.Millisecond, func() error {
		calls++
		return Retryable(errTransient)
	})
	if !IsRetryable(err) || calls != 2 {
		t.Errorf("exhausted: err=%v calls=%d", err, calls)
	}
}

func TestRetrySingleAttemptDoesNotSleep(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), 0, time.Hour, func() error {
		return Retryable(errTransient)
	})
	if time.Since(start) > time.Second {
		t.Error("single attempt should not back off")
	}
}

func TestRetryContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Retry(ctx, 3, time.Hour, func() error {
		return Retryable(errTransient)
	})
	if err != context.Canceled {
		t.Errorf("Should return context error: %v", err)
	}
}
