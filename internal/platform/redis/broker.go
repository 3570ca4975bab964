package redis

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
)

const subscriptionBuffer = 64

// Broker implements events.Broker with Redis PUBLISH and SUBSCRIBE. Each
// subscription holds its own connection until closed.
type Broker struct {
	rdb    goredis.UniversalClient
	logger *slog.Logger
}

// NewBroker creates a broker over rdb.
func NewBroker(rdb goredis.UniversalClient, log *slog.Logger) *Broker {
	if rdb == nil {
		panic("redis client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Broker{rdb: rdb, logger: log.With("component", "redis_broker")}
}

var _ events.Broker = (*Broker)(nil)

// Publish implements events.Publisher.
func (b *Broker) Publish(ctx context.Context, channel string, payload []byte) error {
	receivers, err := b.rdb.Publish(ctx, channel, payload).Result()
	if err != nil {
		return fmt.Errorf("redis publish: %w", err)
	}
	b.logger.Debug("published message", "channel", channel, "subscribers", receivers)
	return nil
}

// Subscribe implements events.Subscriber. It waits for the server to
// confirm the subscription before returning.
func (b *Broker) Subscribe(ctx context.Context, channel string) (events.Subscription, error) {
	ps := b.rdb.Subscribe(ctx, channel)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	sub := &subscription{
		ps:   ps,
		out:  make(chan []byte, subscriptionBuffer),
		done: make(chan struct{}),
	}
	go sub.forward(b.logger.With("channel", channel))
	return sub, nil
}

type subscription struct {
	ps   *goredis.PubSub
	out  chan []byte
	done chan struct{}
	once sync.Once
	err  error
}

func (s *subscription) forward(log *slog.Logger) {
	defer close(s.out)

	in := s.ps.Channel()
	for {
		select {
		case <-s.done:
			return
		case m, ok := <-in:
			if !ok {
				log.Debug("subscription channel closed by client")
				return
			}
			select {
			case s.out <- []byte(m.Payload):
			case <-s.done:
				return
			}
		}
	}
}

func (s *subscription) Messages() <-chan []byte {
	return s.out
}

func (s *subscription) Close() error {
	s.once.Do(func() {
		close(s.done)
		s.err = s.ps.Close()
	})
	return s.err
}
