package utils

import (
	"context"
	"fmt"
	"time"
)

// RecoveryAction tries to repair the condition behind err. A nil return means
// the failed operation may be attempted again.
type RecoveryAction func(err error) error

// ErrorHandler holds one recovery action per error type
type ErrorHandler struct {
	strategies map[ErrorType]RecoveryAction
}

func NewErrorHandler() *ErrorHandler {
	return &ErrorHandler{strategies: make(map[ErrorType]RecoveryAction)}
}

// RegisterRecoveryStrategy sets the action run for errors of errorType
func (h *ErrorHandler) RegisterRecoveryStrategy(errorType ErrorType, action RecoveryAction) {
	h.strategies[errorType] = action
}

// Handle returns nil when err was recovered and err otherwise
func (h *ErrorHandler) Handle(err error, attemptRecovery bool) error {
	if err == nil || !attemptRecovery || !IsRecoverable(err) {
		return err
	}
	action, ok := h.strategies[GetErrorType(err)]
	if !ok || action(err) != nil {
		return err
	}
	return nil
}

// WithRetry calls fn up to maxAttempts times. Only recoverable errors are
// retried, and with a handler only after its recovery action succeeds.
func WithRetry(fn func() error, maxAttempts int, h *ErrorHandler) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if !IsRecoverable(lastErr) {
			return lastErr
		}
		if attempt < maxAttempts && h != nil && h.Handle(lastErr, true) != nil {
			return lastErr
		}
	}

	return WrapError(lastErr, "", fmt.Sprintf("operation failed after %d attempts", maxAttempts))
}

// BackoffRetrier retries calls to external services with a linear backoff
type BackoffRetrier struct {
	maxRetries int
	baseDelay  time.Duration
}

// NewBackoffRetrier makes at most maxRetries extra attempts, waiting
// baseDelay*(attempt+1) between them
func NewBackoffRetrier(maxRetries int, baseDelay time.Duration) *BackoffRetrier {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &BackoffRetrier{maxRetries: maxRetries, baseDelay: baseDelay}
}

// Do runs fn until it succeeds, fails with a non-recoverable error, runs out
// of retries or ctx is done
func (r *BackoffRetrier) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn()
		if lastErr == nil || !IsRecoverable(lastErr) || attempt == r.maxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.baseDelay * time.Duration(attempt+1)):
		}
	}
	return lastErr
}
