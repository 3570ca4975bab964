package task

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
)

const tracerName = "github.com/Abdoul54/ai-quizzer-sub000/internal/task"

// WorkerPoolConfig holds configuration for a worker pool.
type WorkerPoolConfig struct {
	// Queue is the queue the pool consumes.
	Queue string

	// WorkerCount determines how many jobs run concurrently. Defaults to 1.
	WorkerCount int

	// PollInterval is how long an idle worker waits before polling again.
	PollInterval time.Duration

	// StaleAfter is how long a job may stay reserved before the monitor
	// returns it to the queue. Zero disables the monitor.
	StaleAfter time.Duration

	// StaleCheckInterval is how often the monitor runs.
	StaleCheckInterval time.Duration

	// DrainTimeout bounds how long Stop waits for in-flight jobs before
	// cancelling them.
	DrainTimeout time.Duration
}

// DefaultWorkerPoolConfig returns defaults for queue.
func DefaultWorkerPoolConfig(queue string) WorkerPoolConfig {
	return WorkerPoolConfig{
		Queue:              queue,
		WorkerCount:        2,
		PollInterval:       500 * time.Millisecond,
		StaleAfter:         15 * time.Minute,
		StaleCheckInterval: time.Minute,
		DrainTimeout:       30 * time.Second,
	}
}

// WorkerPool runs a Handler over the jobs of one queue.
type WorkerPool struct {
	store   JobStore
	handler Handler
	config  WorkerPoolConfig
	logger  *slog.Logger
	tracer  trace.Tracer

	pollCtx    context.Context
	stopPoll   context.CancelFunc
	jobCtx     context.Context
	cancelJobs context.CancelFunc

	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewWorkerPool creates a pool. Call Start to begin processing.
func NewWorkerPool(store JobStore, handler Handler, config WorkerPoolConfig, log *slog.Logger) *WorkerPool {
	if log == nil {
		log = slog.Default()
	}
	if config.WorkerCount <= 0 {
		log.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.PollInterval <= 0 {
		config.PollInterval = 500 * time.Millisecond
	}
	if config.StaleCheckInterval <= 0 {
		config.StaleCheckInterval = time.Minute
	}

	pollCtx, stopPoll := context.WithCancel(context.Background())
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	return &WorkerPool{
		store:      store,
		handler:    handler,
		config:     config,
		logger:     log.With("component", "worker_pool", "queue", config.Queue),
		tracer:     otel.Tracer(tracerName),
		pollCtx:    pollCtx,
		stopPoll:   stopPoll,
		jobCtx:     jobCtx,
		cancelJobs: cancelJobs,
	}
}

// Start launches the workers and the stale job monitor.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.config.WorkerCount)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	if p.config.StaleAfter > 0 {
		p.wg.Add(1)
		go p.staleMonitor()
	}
}

// Stop stops polling, waits up to the drain timeout for in-flight jobs and
// then cancels whatever is still running. Cancelled jobs are returned to the
// queue. Stop is safe to call more than once.
func (p *WorkerPool) Stop() {
	p.stopOnce.Do(func() {
		p.stopPoll()

		done := make(chan struct{})
		go func() {
			p.wg.Wait()
			close(done)
		}()

		timer := time.NewTimer(p.config.DrainTimeout)
		defer timer.Stop()

		select {
		case <-done:
		case <-timer.C:
			p.logger.Warn("drain timeout reached, cancelling in-flight jobs",
				"drain_timeout", p.config.DrainTimeout)
			p.cancelJobs()
			<-done
		}
		p.cancelJobs()
		p.logger.Info("worker pool stopped")
	})
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	log := p.logger.With("worker_id", id)
	log.Debug("starting worker")

	for {
		if p.pollCtx.Err() != nil {
			log.Debug("stopping worker")
			return
		}

		job, err := p.store.Reserve(p.pollCtx, p.config.Queue)
		if err != nil {
			if p.pollCtx.Err() == nil {
				log.Error("failed to reserve job", "error", redact.Error(err))
			}
			p.idle()
			continue
		}
		if job == nil {
			p.idle()
			continue
		}

		p.process(job, log)
	}
}

func (p *WorkerPool) idle() {
	timer := time.NewTimer(p.config.PollInterval)
	defer timer.Stop()
	select {
	case <-p.pollCtx.Done():
	case <-timer.C:
	}
}

// process runs one job and settles it with the store.
func (p *WorkerPool) process(job *Job, workerLog *slog.Logger) {
	log := workerLog.With(
		"job_id", job.ID,
		"attempt", job.Attempts,
		"max_attempts", job.MaxAttempts,
	)

	ctx, span := p.tracer.Start(p.jobCtx, "job "+p.config.Queue,
		trace.WithSpanKind(trace.SpanKindConsumer),
		trace.WithAttributes(
			attribute.String("job.id", job.ID.String()),
			attribute.String("job.queue", p.config.Queue),
			attribute.Int("job.attempt", job.Attempts),
		))
	defer span.End()

	ctx = logger.WithLogger(ctx, log)
	log.Info("processing job")

	err := p.execute(ctx, job)

	// settle even when the job context was cancelled
	storeCtx := context.WithoutCancel(ctx)

	switch {
	case err == nil:
		if serr := p.store.Complete(storeCtx, job); serr != nil {
			log.Error("failed to complete job", "error", redact.Error(serr))
		}
		log.Info("job completed")

	case p.jobCtx.Err() != nil:
		span.SetStatus(codes.Error, "interrupted")
		if serr := p.store.Retry(storeCtx, job, 0, "interrupted by shutdown"); serr != nil {
			log.Error("failed to requeue interrupted job", "error", redact.Error(serr))
		}
		log.Warn("job interrupted by shutdown, requeued")

	case IsUnrecoverable(err) || job.IsFinalAttempt():
		span.RecordError(err)
		span.SetStatus(codes.Error, "buried")
		if serr := p.store.Bury(storeCtx, job, redact.Error(err)); serr != nil {
			log.Error("failed to bury job", "error", redact.Error(serr))
		}
		log.Error("job failed permanently",
			"error", redact.Error(err),
			"unrecoverable", IsUnrecoverable(err))

	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, "retrying")
		delay := job.Backoff.Next(job.Attempts)
		if serr := p.store.Retry(storeCtx, job, delay, redact.Error(err)); serr != nil {
			log.Error("failed to schedule job retry", "error", redact.Error(serr))
		}
		log.Warn("job failed, retry scheduled",
			"error", redact.Error(err),
			"retry_in", delay)
	}
}

func (p *WorkerPool) execute(ctx context.Context, job *Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("job panicked",
				"panic", r,
				"stack", string(debug.Stack()))
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return p.handler.Handle(ctx, job)
}

// staleMonitor periodically returns jobs whose worker disappeared.
func (p *WorkerPool) staleMonitor() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.config.StaleCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.pollCtx.Done():
			return
		case <-ticker.C:
			n, err := p.store.RequeueStale(p.pollCtx, p.config.Queue, p.config.StaleAfter)
			if err != nil {
				if p.pollCtx.Err() == nil {
					p.logger.Error("failed to requeue stale jobs", "error", redact.Error(err))
				}
				continue
			}
			if n > 0 {
				p.logger.Info("requeued stale jobs", "count", n)
			}
		}
	}
}
