package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/config"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/redis"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

// backend bundles the queue, pub/sub and result cache implementations
// selected by jobs.backend.
type backend struct {
	name    string
	jobs    task.JobStore
	broker  events.Broker
	cache   events.ResultCache
	closers []func() error
}

// Close releases the backend in reverse order of construction.
func (b *backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newBackend(ctx context.Context, cfg *config.Config, log *slog.Logger) (*backend, error) {
	switch cfg.Jobs.Backend {
	case "redis":
		return newRedisBackend(ctx, cfg.Redis, log)
	case "memory":
		return newMemoryBackend(log), nil
	default:
		return nil, fmt.Errorf("unknown jobs backend %q", cfg.Jobs.Backend)
	}
}

// newMemoryBackend keeps everything in process. Jobs do not survive a
// restart and streams only see events from this process.
func newMemoryBackend(log *slog.Logger) *backend {
	jobs := task.NewMemoryJobStore(log)
	broker := events.NewMemoryBroker(log)
	return &backend{
		name:    "memory",
		jobs:    jobs,
		broker:  broker,
		cache:   events.NewMemoryResultCache(),
		closers: []func() error{jobs.Close, broker.Close},
	}
}

func newRedisBackend(ctx context.Context, cfg config.RedisConfig, log *slog.Logger) (*backend, error) {
	rdb, err := redis.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	jobs := redis.NewJobStore(rdb, log)
	log.Info("redis backend connected", "addr", cfg.Addr, "db", cfg.DB)
	return &backend{
		name:    "redis",
		jobs:    jobs,
		broker:  redis.NewBroker(rdb, log),
		cache:   redis.NewResultCache(rdb),
		closers: []func() error{rdb.Close, jobs.Close},
	}, nil
}
