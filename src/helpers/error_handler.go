package helpers

import (
	"context"
	"fmt"
	"time"
)

// -----------------------------------------------------------------------------
// Custom Error Types
// -----------------------------------------------------------------------------

type RelayError struct {
	Message string
	Cause   error
}

func (e *RelayError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *RelayError) Unwrap() error {
	return e.Cause
}

// Distinct error types for type assertions where callers care.
type ConfigurationError struct{ RelayError }
type FeedError struct{ RelayError }
type StorageError struct{ RelayError }
type ClientError struct{ RelayError }

func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{RelayError{Message: message, Cause: cause}}
}

func NewFeedError(message string, cause error) *FeedError {
	return &FeedError{RelayError{Message: message, Cause: cause}}
}

func NewStorageError(message string, cause error) *StorageError {
	return &StorageError{RelayError{Message: message, Cause: cause}}
}

func NewClientError(message string, cause error) *ClientError {
	return &ClientError{RelayError{Message: message, Cause: cause}}
}

// -----------------------------------------------------------------------------
// Retry Logic
// -----------------------------------------------------------------------------

// RetryWithBackoff attempts fn up to maxRetries times with exponential
// backoff, observing ctx between attempts. Cancellation is returned as
// ctx.Err(), never wrapped into a RelayError.
func RetryWithBackoff(ctx context.Context, operation string, maxRetries int, baseDelay time.Duration, fn func() error) error {
	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
		}

		if attempt == maxRetries-1 {
			break
		}

		delay := baseDelay * (1 << attempt)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return &RelayError{Message: fmt.Sprintf("%s failed after %d attempts", operation, maxRetries), Cause: lastErr}
}
