package stream

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type emitted struct {
	Event string
	Data  json.RawMessage
}

// recordingEmitter collects events in order.
type recordingEmitter struct {
	mu         sync.Mutex
	events     []emitted
	heartbeats int
}

func (e *recordingEmitter) Emit(event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, emitted{Event: event, Data: raw})
	return nil
}

func (e *recordingEmitter) Heartbeat() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.heartbeats++
	return nil
}

func (e *recordingEmitter) all() []emitted {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]emitted(nil), e.events...)
}

func (e *recordingEmitter) heartbeatCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.heartbeats
}

// statuses decodes every status event.
func (e *recordingEmitter) statuses(t *testing.T) []events.StatusEvent {
	t.Helper()
	var out []events.StatusEvent
	for _, ev := range e.all() {
		if ev.Event != EventStatus {
			continue
		}
		var se events.StatusEvent
		require.NoError(t, json.Unmarshal(ev.Data, &se))
		out = append(out, se)
	}
	return out
}

// trackingSubscriber signals each subscription and counts releases.
type trackingSubscriber struct {
	inner      events.Subscriber
	subscribed chan struct{}
	opened     atomic.Int32
	closed     atomic.Int32
}

func newTrackingSubscriber(inner events.Subscriber) *trackingSubscriber {
	return &trackingSubscriber{inner: inner, subscribed: make(chan struct{}, 16)}
}

func (s *trackingSubscriber) Subscribe(ctx context.Context, channel string) (events.Subscription, error) {
	sub, err := s.inner.Subscribe(ctx, channel)
	if err != nil {
		return nil, err
	}
	s.opened.Add(1)
	s.subscribed <- struct{}{}
	return &trackedSubscription{Subscription: sub, owner: s}, nil
}

func (s *trackingSubscriber) waitSubscribed(t *testing.T) {
	t.Helper()
	select {
	case <-s.subscribed:
	case <-time.After(2 * time.Second):
		t.Fatal("bridge never subscribed")
	}
}

type trackedSubscription struct {
	events.Subscription
	owner *trackingSubscriber
	once  sync.Once
}

func (s *trackedSubscription) Close() error {
	s.once.Do(func() { s.owner.closed.Add(1) })
	return s.Subscription.Close()
}

// runAsync runs fn in a goroutine and returns a channel with its result.
func runAsync(fn func() error) <-chan error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	return done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(3 * time.Second):
		t.Fatal("stream did not finish")
		return nil
	}
}
