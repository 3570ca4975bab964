package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBrokerClosed is returned by operations on a closed broker.
var ErrBrokerClosed = errors.New("broker closed")

const subscriptionBuffer = 64

// MemoryBroker is an in-process Broker. Publish blocks while a subscriber's
// buffer is full, so a slow observer delays the publisher rather than
// losing messages.
type MemoryBroker struct {
	mu     sync.RWMutex
	subs   map[string]map[*memorySubscription]struct{}
	closed bool
	logger *slog.Logger
}

// NewMemoryBroker creates an empty broker.
func NewMemoryBroker(logger *slog.Logger) *MemoryBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryBroker{
		subs:   make(map[string]map[*memorySubscription]struct{}),
		logger: logger.With("component", "memory_broker"),
	}
}

var _ Broker = (*MemoryBroker)(nil)

// Publish delivers payload to every current subscriber of channel.
func (b *MemoryBroker) Publish(ctx context.Context, channel string, payload []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBrokerClosed
	}

	for sub := range b.subs[channel] {
		msg := append([]byte(nil), payload...)
		select {
		case sub.ch <- msg:
		case <-sub.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	b.logger.Debug("published message", "channel", channel, "subscribers", len(b.subs[channel]))
	return nil
}

// Subscribe registers a subscription on channel.
func (b *MemoryBroker) Subscribe(_ context.Context, channel string) (Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil, ErrBrokerClosed
	}

	sub := &memorySubscription{
		broker:  b,
		channel: channel,
		ch:      make(chan []byte, subscriptionBuffer),
		done:    make(chan struct{}),
	}
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[*memorySubscription]struct{})
	}
	b.subs[channel][sub] = struct{}{}
	return sub, nil
}

// Close ends every open subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	var all []*memorySubscription
	for _, set := range b.subs {
		for sub := range set {
			all = append(all, sub)
		}
	}
	b.mu.Unlock()

	for _, sub := range all {
		_ = sub.Close()
	}
	return nil
}

func (b *MemoryBroker) remove(sub *memorySubscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if set, ok := b.subs[sub.channel]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sub.channel)
		}
	}
	close(sub.ch)
}

// subscriberCount is used by tests to verify release.
func (b *MemoryBroker) subscriberCount(channel string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[channel])
}

type memorySubscription struct {
	broker  *MemoryBroker
	channel string
	ch      chan []byte
	done    chan struct{}
	once    sync.Once
}

func (s *memorySubscription) Messages() <-chan []byte {
	return s.ch
}

// Close unblocks any publisher waiting on this subscription before taking the
// broker lock, so it cannot deadlock against a blocked Publish.
func (s *memorySubscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.broker.remove(s)
	})
	return nil
}

// MemoryResultCache is an in-process ResultCache with per-key expiry.
type MemoryResultCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value     []byte
	expiresAt time.Time
}

// NewMemoryResultCache creates an empty cache.
func NewMemoryResultCache() *MemoryResultCache {
	return &MemoryResultCache{
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

var _ ResultCache = (*MemoryResultCache)(nil)

// Set stores value under key until ttl elapses.
func (c *MemoryResultCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	c.entries[key] = cacheEntry{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}

	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
		}
	}
	return nil
}

// Get returns the live value for key.
func (c *MemoryResultCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return append([]byte(nil), e.value...), true, nil
}
