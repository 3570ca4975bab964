package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
)

// ResultCache implements events.ResultCache with expiring string keys.
type ResultCache struct {
	rdb goredis.UniversalClient
}

// NewResultCache creates a cache over rdb.
func NewResultCache(rdb goredis.UniversalClient) *ResultCache {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	return &ResultCache{rdb: rdb}
}

var _ events.ResultCache = (*ResultCache)(nil)

// Set stores value under key for ttl.
func (c *ResultCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.rdb.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// Get returns the value under key, if any.
func (c *ResultCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, true, nil
}
