package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
)

// DefaultResultTimeout bounds how long an observer waits for a minion result.
const DefaultResultTimeout = 70 * time.Second

// ResultBridge delivers the single result of a minion job.
type ResultBridge struct {
	cache      events.ResultCache
	subscriber events.Subscriber
	timeout    time.Duration
	heartbeat  time.Duration
	logger     *slog.Logger
}

// NewResultBridge creates a bridge. Zero durations select the defaults.
func NewResultBridge(cache events.ResultCache, subscriber events.Subscriber, timeout, heartbeat time.Duration, log *slog.Logger) *ResultBridge {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultResultTimeout
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &ResultBridge{
		cache:      cache,
		subscriber: subscriber,
		timeout:    timeout,
		heartbeat:  heartbeat,
		logger:     log.With("component", "result_bridge"),
	}
}

// Stream emits exactly one result event for jobID: the cached result when
// the job already finished, the published one otherwise, or a failed result
// once the timeout elapses. It emits nothing when ctx ends first.
func (b *ResultBridge) Stream(ctx context.Context, jobID uuid.UUID, em Emitter) error {
	log := logger.FromContextOrDefault(ctx, b.logger).With("job_id", jobID.String())
	key := events.MinionResultKey(jobID)

	if raw, ok := b.cached(ctx, key, log); ok {
		return em.Emit(EventResult, raw)
	}

	sub, err := b.subscriber.Subscribe(ctx, events.MinionChannel(jobID))
	if err != nil {
		return fmt.Errorf("failed to subscribe to minion result: %w", err)
	}
	defer func() { _ = sub.Close() }()

	// the job may have finished between the first lookup and the subscription
	if raw, ok := b.cached(ctx, key, log); ok {
		return em.Emit(EventResult, raw)
	}

	timeout := time.NewTimer(b.timeout)
	defer timeout.Stop()
	heartbeat := time.NewTicker(b.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("result observer left")
			return nil

		case <-timeout.C:
			log.Info("minion result timed out")
			return em.Emit(EventResult, events.MinionFailure(generation.MsgResultTimedOut))

		case <-heartbeat.C:
			if err := em.Heartbeat(); err != nil {
				return err
			}

		case msg, ok := <-sub.Messages():
			if !ok {
				log.Debug("result subscription closed before a result arrived")
				return nil
			}
			if !json.Valid(msg) {
				log.Warn("dropping malformed minion result")
				continue
			}
			return em.Emit(EventResult, json.RawMessage(msg))
		}
	}
}

func (b *ResultBridge) cached(ctx context.Context, key string, log *slog.Logger) (json.RawMessage, bool) {
	raw, ok, err := b.cache.Get(ctx, key)
	if err != nil {
		log.Warn("result cache lookup failed", "error", redact.Error(err))
		return nil, false
	}
	if !ok || !json.Valid(raw) {
		return nil, false
	}
	return json.RawMessage(raw), true
}
