package helpers

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRelayError_Unwrap(t *testing.T) {
	cause := errors.New("socket closed")
	err := NewFeedError("feed lost", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause must be reachable through errors.Is")
	}
	if err.Error() != "feed lost: socket closed" {
		t.Errorf("message = %q", err.Error())
	}

	bare := NewConfigurationError("bad port", nil)
	if bare.Error() != "bad port" {
		t.Errorf("message without cause = %q", bare.Error())
	}
}

func TestRetryWithBackoff(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after retries", func(t *testing.T) {
		calls := 0
		err := RetryWithBackoff(ctx, "op", 5, time.Millisecond, func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		if err != nil {
			t.Fatalf("got %v, want success", err)
		}
		if calls != 3 {
			t.Errorf("calls = %d, want 3", calls)
		}
	})

	t.Run("gives up with the last error", func(t *testing.T) {
		cause := errors.New("still broken")
		err := RetryWithBackoff(ctx, "op", 2, time.Millisecond, func() error { return cause })
		if err == nil || !errors.Is(err, cause) {
			t.Errorf("got %v, want wrapped last error", err)
		}
	})

	t.Run("cancellation wins over the backoff", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := RetryWithBackoff(ctx, "op", 3, time.Hour, func() error { return errors.New("nope") })
		if err != context.Canceled {
			t.Errorf("got %v, want context.Canceled", err)
		}
	})
}
