package task

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJobStore is an in-process JobStore. Its queues do not survive a
// restart.
type MemoryJobStore struct {
	mu     sync.Mutex
	queues map[string]*memoryQueue
	closed bool
	now    func() time.Time
	logger *slog.Logger
}

type memoryQueue struct {
	waiting []*Job
	delayed []delayedJob
	active  map[uuid.UUID]*Job
	dead    []*Job
}

type delayedJob struct {
	job     *Job
	readyAt time.Time
}

// NewMemoryJobStore creates an empty store.
func NewMemoryJobStore(logger *slog.Logger) *MemoryJobStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryJobStore{
		queues: make(map[string]*memoryQueue),
		now:    time.Now,
		logger: logger.With("component", "memory_job_store"),
	}
}

var _ JobStore = (*MemoryJobStore)(nil)

func (s *MemoryJobStore) queue(name string) *memoryQueue {
	q, ok := s.queues[name]
	if !ok {
		q = &memoryQueue{active: make(map[uuid.UUID]*Job)}
		s.queues[name] = q
	}
	return q
}

// Enqueue implements Enqueuer.
func (s *MemoryJobStore) Enqueue(_ context.Context, queue string, payload any, opts EnqueueOptions) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return uuid.Nil, ErrQueueClosed
	}

	now := s.now()
	job, err := NewJob(queue, payload, opts, now)
	if err != nil {
		return uuid.Nil, err
	}

	q := s.queue(queue)
	if opts.Delay > 0 {
		q.delay(job, now.Add(opts.Delay))
	} else {
		q.waiting = append(q.waiting, job)
	}

	s.logger.Debug("job enqueued", "job_id", job.ID, "queue", queue, "max_attempts", job.MaxAttempts)
	return job.ID, nil
}

// Reserve implements JobStore.
func (s *MemoryJobStore) Reserve(_ context.Context, queue string) (*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrQueueClosed
	}

	now := s.now()
	q := s.queue(queue)
	q.promote(now)
	if len(q.waiting) == 0 {
		return nil, nil
	}

	job := q.waiting[0]
	q.waiting = q.waiting[1:]
	job.Attempts++
	reservedAt := now
	job.ReservedAt = &reservedAt
	q.active[job.ID] = job

	out := *job
	return &out, nil
}

// Complete implements JobStore.
func (s *MemoryJobStore) Complete(_ context.Context, job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.takeActive(job); err != nil {
		return err
	}
	return nil
}

// Retry implements JobStore.
func (s *MemoryJobStore) Retry(_ context.Context, job *Job, delay time.Duration, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.takeActive(job)
	if err != nil {
		return err
	}
	stored.LastError = lastErr
	stored.ReservedAt = nil

	q := s.queue(job.Queue)
	if delay > 0 {
		q.delay(stored, s.now().Add(delay))
	} else {
		q.waiting = append(q.waiting, stored)
	}
	return nil
}

// Bury implements JobStore.
func (s *MemoryJobStore) Bury(_ context.Context, job *Job, lastErr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, err := s.takeActive(job)
	if err != nil {
		return err
	}
	stored.LastError = lastErr
	stored.ReservedAt = nil

	q := s.queue(job.Queue)
	q.dead = append(q.dead, stored)
	return nil
}

// RequeueStale implements JobStore.
func (s *MemoryJobStore) RequeueStale(_ context.Context, queue string, olderThan time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queue(queue)
	cutoff := s.now().Add(-olderThan)

	var stale []*Job
	for id, job := range q.active {
		if job.ReservedAt != nil && job.ReservedAt.Before(cutoff) {
			stale = append(stale, job)
			delete(q.active, id)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].EnqueuedAt.Before(stale[j].EnqueuedAt) })
	for _, job := range stale {
		job.ReservedAt = nil
		job.LastError = "requeued after stalling"
		q.waiting = append(q.waiting, job)
	}
	return len(stale), nil
}

// DeadJobs implements JobStore.
func (s *MemoryJobStore) DeadJobs(_ context.Context, queue string, limit int) ([]*Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queue(queue)
	var out []*Job
	for i := len(q.dead) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		job := *q.dead[i]
		out = append(out, &job)
	}
	return out, nil
}

// Len returns the number of waiting, delayed and active jobs in queue.
func (s *MemoryJobStore) Len(queue string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := s.queue(queue)
	return len(q.waiting) + len(q.delayed) + len(q.active)
}

// Close rejects further operations.
func (s *MemoryJobStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *MemoryJobStore) takeActive(job *Job) (*Job, error) {
	q := s.queue(job.Queue)
	stored, ok := q.active[job.ID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrJobNotActive, job.ID)
	}
	delete(q.active, job.ID)
	return stored, nil
}

func (q *memoryQueue) delay(job *Job, readyAt time.Time) {
	q.delayed = append(q.delayed, delayedJob{job: job, readyAt: readyAt})
	sort.SliceStable(q.delayed, func(i, j int) bool { return q.delayed[i].readyAt.Before(q.delayed[j].readyAt) })
}

func (q *memoryQueue) promote(now time.Time) {
	n := 0
	for n < len(q.delayed) && !q.delayed[n].readyAt.After(now) {
		q.waiting = append(q.waiting, q.delayed[n].job)
		n++
	}
	q.delayed = q.delayed[n:]
}
