package task

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors returned by job stores.
var (
	ErrQueueClosed  = errors.New("job queue is closed")
	ErrJobNotActive = errors.New("job is not reserved")
)

// Handler executes one job. Returning an error wrapped by Unrecoverable
// stops further deliveries; any other error is retried while attempts remain.
type Handler interface {
	Handle(ctx context.Context, job *Job) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, job *Job) error

// Handle calls f.
func (f HandlerFunc) Handle(ctx context.Context, job *Job) error {
	return f(ctx, job)
}

// Enqueuer adds jobs to a queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, queue string, payload any, opts EnqueueOptions) (uuid.UUID, error)
}

// JobStore is an at-least-once queue. A reserved job stays active until it
// is completed, retried or buried; active jobs older than a threshold are
// returned to the queue by RequeueStale.
type JobStore interface {
	Enqueuer

	// Reserve takes the next ready job and increments its attempts.
	// It returns nil, nil when the queue is empty.
	Reserve(ctx context.Context, queue string) (*Job, error)

	// Complete removes a finished job.
	Complete(ctx context.Context, job *Job) error

	// Retry returns the job to the queue after delay.
	Retry(ctx context.Context, job *Job, delay time.Duration, lastErr string) error

	// Bury parks the job in the queue's dead list.
	Bury(ctx context.Context, job *Job, lastErr string) error

	// RequeueStale returns active jobs reserved longer than olderThan.
	RequeueStale(ctx context.Context, queue string, olderThan time.Duration) (int, error)

	// DeadJobs lists up to limit buried jobs, most recent first.
	DeadJobs(ctx context.Context, queue string, limit int) ([]*Job, error)
}

type unrecoverableError struct {
	err error
}

func (e *unrecoverableError) Error() string { return e.err.Error() }
func (e *unrecoverableError) Unwrap() error { return e.err }

// Unrecoverable marks err so the worker pool buries the job instead of
// retrying it.
func Unrecoverable(err error) error {
	if err == nil {
		return nil
	}
	return &unrecoverableError{err: err}
}

// IsUnrecoverable reports whether err was marked with Unrecoverable.
func IsUnrecoverable(err error) bool {
	var u *unrecoverableError
	return errors.As(err, &u)
}
