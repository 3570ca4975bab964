// Package retry wraps a capability call with bounded, linearly spaced retries.
//
// Errors the classifier considers permanent stop the loop immediately and are
// returned unchanged, so callers can still match them with errors.Is. When
// every attempt fails, Execute returns an *ExhaustedError wrapping the last
// failure.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	goretry "github.com/sethvargo/go-retry"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
)

const (
	// DefaultMaxAttempts is used when Execute is called with maxAttempts < 1.
	DefaultMaxAttempts = 3

	// DefaultBaseDelay is the delay unit; attempt n waits n*DefaultBaseDelay.
	DefaultBaseDelay = 2 * time.Second
)

// Operation is a single attempt of a retried call.
type Operation[T any] func(ctx context.Context) (T, error)

// Classifier reports whether err is worth another attempt.
type Classifier func(err error) bool

// Option customizes Execute.
type Option func(*settings)

type settings struct {
	baseDelay time.Duration
	retryable Classifier
}

// WithBaseDelay overrides the delay unit.
func WithBaseDelay(d time.Duration) Option {
	return func(s *settings) {
		if d >= 0 {
			s.baseDelay = d
		}
	}
}

// WithClassifier overrides which errors are retried.
func WithClassifier(c Classifier) Option {
	return func(s *settings) {
		if c != nil {
			s.retryable = c
		}
	}
}

// Retryable is the default classifier: everything except unrecoverable,
// validation and not-found errors, and context cancellation.
func Retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return generation.Classify(err) == generation.KindTransient
}

// ExhaustedError is returned once every attempt has failed.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Err
}

// Execute runs op up to maxAttempts times.
func Execute[T any](ctx context.Context, maxAttempts int, op Operation[T], opts ...Option) (T, error) {
	s := settings{baseDelay: DefaultBaseDelay, retryable: Retryable}
	for _, opt := range opts {
		opt(&s)
	}
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}

	var (
		result    T
		attempt   int
		exhausted bool
	)

	backoff := goretry.BackoffFunc(func() (time.Duration, bool) {
		if attempt >= maxAttempts {
			exhausted = true
			return 0, true
		}
		return time.Duration(attempt) * s.baseDelay, false
	})

	err := goretry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		v, err := op(ctx)
		if err == nil {
			result = v
			return nil
		}
		if !s.retryable(err) {
			return err
		}
		return goretry.RetryableError(err)
	})
	if err == nil {
		return result, nil
	}

	var zero T
	if exhausted {
		return zero, &ExhaustedError{Attempts: attempt, Err: err}
	}
	return zero, err
}
