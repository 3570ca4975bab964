package task

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPoolConfig(queue string) WorkerPoolConfig {
	return WorkerPoolConfig{
		Queue:        queue,
		WorkerCount:  2,
		PollInterval: 5 * time.Millisecond,
		DrainTimeout: time.Second,
	}
}

func TestNewWorkerPool_Defaults(t *testing.T) {
	t.Parallel()

	pool := NewWorkerPool(NewMemoryJobStore(nil), HandlerFunc(func(context.Context, *Job) error { return nil }),
		WorkerPoolConfig{Queue: QueueMinion, WorkerCount: -5}, setupTestLogger())

	assert.Equal(t, 1, pool.config.WorkerCount)
	assert.Equal(t, 500*time.Millisecond, pool.config.PollInterval)
	assert.Equal(t, time.Minute, pool.config.StaleCheckInterval)
}

func TestWorkerPool_ProcessesJobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryJobStore(setupTestLogger())

	var handled atomic.Int32
	pool := NewWorkerPool(store, HandlerFunc(func(ctx context.Context, job *Job) error {
		handled.Add(1)
		return nil
	}), testPoolConfig(QueueMinion), setupTestLogger())
	pool.Start()
	defer pool.Stop()

	for i := 0; i < 5; i++ {
		_, err := store.Enqueue(ctx, QueueMinion, i, EnqueueOptions{})
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return handled.Load() == 5 && store.Len(QueueMinion) == 0
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWorkerPool_RetriesTransientFailures(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryJobStore(setupTestLogger())

	var calls atomic.Int32
	pool := NewWorkerPool(store, HandlerFunc(func(ctx context.Context, job *Job) error {
		if calls.Add(1) < 3 {
			return errors.New("temporary")
		}
		return nil
	}), testPoolConfig(QueueGeneration), setupTestLogger())
	pool.Start()
	defer pool.Stop()

	_, err := store.Enqueue(ctx, QueueGeneration, "x", GenerationEnqueueOptions(3, 0))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return calls.Load() == 3 && store.Len(QueueGeneration) == 0
	}, 2*time.Second, 5*time.Millisecond)

	dead, err := store.DeadJobs(ctx, QueueGeneration, 0)
	require.NoError(t, err)
	assert.Empty(t, dead)
}

func TestWorkerPool_BuriesFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		attempts  int
		wantCalls int32
	}{
		{"unrecoverable on first attempt", Unrecoverable(errors.New("bad payload")), 3, 1},
		{"exhausted attempts", errors.New("still failing"), 2, 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := NewMemoryJobStore(setupTestLogger())

			var calls atomic.Int32
			pool := NewWorkerPool(store, HandlerFunc(func(context.Context, *Job) error {
				calls.Add(1)
				return tt.err
			}), testPoolConfig(QueueGeneration), setupTestLogger())
			pool.Start()
			defer pool.Stop()

			_, err := store.Enqueue(ctx, QueueGeneration, "x", GenerationEnqueueOptions(tt.attempts, 0))
			require.NoError(t, err)

			require.Eventually(t, func() bool {
				dead, _ := store.DeadJobs(ctx, QueueGeneration, 0)
				return len(dead) == 1
			}, 2*time.Second, 5*time.Millisecond)

			assert.Equal(t, tt.wantCalls, calls.Load())
			dead, err := store.DeadJobs(ctx, QueueGeneration, 0)
			require.NoError(t, err)
			assert.Equal(t, tt.err.Error(), dead[0].LastError)
		})
	}
}

func TestWorkerPool_RecoversPanics(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryJobStore(setupTestLogger())

	pool := NewWorkerPool(store, HandlerFunc(func(context.Context, *Job) error {
		panic("handler exploded")
	}), testPoolConfig(QueueMinion), setupTestLogger())
	pool.Start()
	defer pool.Stop()

	_, err := store.Enqueue(ctx, QueueMinion, "x", EnqueueOptions{})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		dead, _ := store.DeadJobs(ctx, QueueMinion, 0)
		return len(dead) == 1
	}, 2*time.Second, 5*time.Millisecond)

	dead, err := store.DeadJobs(ctx, QueueMinion, 0)
	require.NoError(t, err)
	assert.Contains(t, dead[0].LastError, "handler exploded")
}

func TestWorkerPool_StopRequeuesInterruptedJobs(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryJobStore(setupTestLogger())

	started := make(chan struct{})
	var once atomic.Bool
	cfg := testPoolConfig(QueueGeneration)
	cfg.WorkerCount = 1
	cfg.DrainTimeout = 20 * time.Millisecond

	pool := NewWorkerPool(store, HandlerFunc(func(ctx context.Context, job *Job) error {
		if once.CompareAndSwap(false, true) {
			close(started)
		}
		<-ctx.Done()
		return ctx.Err()
	}), cfg, setupTestLogger())
	pool.Start()

	// a single attempt would be final; interruption must still requeue it
	_, err := store.Enqueue(ctx, QueueGeneration, "long", EnqueueOptions{MaxAttempts: 1})
	require.NoError(t, err)

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("job never started")
	}

	pool.Stop()
	pool.Stop()

	assert.Equal(t, 1, store.Len(QueueGeneration))
	dead, err := store.DeadJobs(ctx, QueueGeneration, 0)
	require.NoError(t, err)
	assert.Empty(t, dead)

	job, err := store.Reserve(ctx, QueueGeneration)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "interrupted by shutdown", job.LastError)
}

func TestWorkerPool_StaleMonitor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewMemoryJobStore(setupTestLogger())

	_, err := store.Enqueue(ctx, QueueGeneration, "orphan", EnqueueOptions{MaxAttempts: 2})
	require.NoError(t, err)
	// reserved by a worker that went away
	orphan, err := store.Reserve(ctx, QueueGeneration)
	require.NoError(t, err)

	var seen atomic.Int32
	cfg := testPoolConfig(QueueGeneration)
	cfg.StaleAfter = time.Nanosecond
	cfg.StaleCheckInterval = 10 * time.Millisecond

	pool := NewWorkerPool(store, HandlerFunc(func(ctx context.Context, job *Job) error {
		if job.ID == orphan.ID {
			seen.Add(1)
		}
		return nil
	}), cfg, setupTestLogger())
	pool.Start()
	defer pool.Stop()

	require.Eventually(t, func() bool { return seen.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
}
