package task

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Queue names.
const (
	QueueGeneration = "quiz-generation"
	QueueMinion     = "quiz-minion"
)

// BackoffType selects how retry delays grow.
type BackoffType string

// Backoff types.
const (
	BackoffFixed       BackoffType = "fixed"
	BackoffExponential BackoffType = "exponential"
)

// Backoff is a job's retry delay policy.
type Backoff struct {
	Type  BackoffType   `json:"type"`
	Delay time.Duration `json:"delay"`
}

// maxBackoffShift caps exponential growth well below overflow.
const maxBackoffShift = 16

// Next returns the delay before the next delivery after attempts failures.
func (b Backoff) Next(attempts int) time.Duration {
	if b.Delay <= 0 {
		return 0
	}
	if b.Type != BackoffExponential || attempts <= 1 {
		return b.Delay
	}
	shift := attempts - 1
	if shift > maxBackoffShift {
		shift = maxBackoffShift
	}
	return b.Delay * time.Duration(1<<shift)
}

// Job is one delivery unit. Attempts counts deliveries so far, including
// the current one once reserved.
type Job struct {
	ID          uuid.UUID       `json:"id"`
	Queue       string          `json:"queue"`
	Payload     json.RawMessage `json:"payload"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"maxAttempts"`
	Backoff     Backoff         `json:"backoff"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	ReservedAt  *time.Time      `json:"reservedAt,omitempty"`
	LastError   string          `json:"lastError,omitempty"`
}

// IsFinalAttempt reports whether a failure now would exhaust the job.
func (j *Job) IsFinalAttempt() bool {
	return j.Attempts >= j.MaxAttempts
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("failed to decode %s job payload: %w", j.Queue, err)
	}
	return nil
}

// DefaultMaxAttempts applies when EnqueueOptions leaves MaxAttempts unset.
const DefaultMaxAttempts = 1

// EnqueueOptions controls delivery of a new job.
type EnqueueOptions struct {
	// JobID is used instead of a fresh id when set.
	JobID       uuid.UUID
	MaxAttempts int
	Backoff     Backoff
	// Delay postpones the first delivery.
	Delay time.Duration
}

// GenerationEnqueueOptions is the retry policy for generation jobs.
func GenerationEnqueueOptions(maxAttempts int, base time.Duration) EnqueueOptions {
	return EnqueueOptions{
		MaxAttempts: maxAttempts,
		Backoff:     Backoff{Type: BackoffExponential, Delay: base},
	}
}

// NewJob builds a job ready to be stored.
func NewJob(queue string, payload any, opts EnqueueOptions, now time.Time) (*Job, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s job payload: %w", queue, err)
	}

	id := opts.JobID
	if id == uuid.Nil {
		id = uuid.New()
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	backoff := opts.Backoff
	if backoff.Type == "" {
		backoff.Type = BackoffFixed
	}

	return &Job{
		ID:          id,
		Queue:       queue,
		Payload:     raw,
		MaxAttempts: maxAttempts,
		Backoff:     backoff,
		EnqueuedAt:  now.UTC(),
	}, nil
}
