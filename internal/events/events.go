package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// StatusEvent notifies observers of a quiz status that has already been
// persisted.
type StatusEvent struct {
	Status       domain.QuizStatus `json:"status"`
	Step         int               `json:"step"`
	ErrorMessage *string           `json:"errorMessage,omitempty"`
}

// NewStatusEvent builds the event for the quiz's current persisted state.
func NewStatusEvent(quiz *domain.Quiz) StatusEvent {
	ev := StatusEvent{Status: quiz.Status, Step: quiz.Status.Step()}
	if quiz.Status == domain.StatusFailed && quiz.ErrorMessage != nil {
		msg := *quiz.ErrorMessage
		ev.ErrorMessage = &msg
	}
	return ev
}

// MinionResult is the one-shot outcome of a minion job.
type MinionResult struct {
	OK    bool            `json:"ok"`
	Data  json.RawMessage `json:"data,omitempty"`
	Error string          `json:"error,omitempty"`
}

// MinionSuccess wraps data in a successful result.
func MinionSuccess(data any) (MinionResult, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return MinionResult{}, fmt.Errorf("failed to marshal minion result: %w", err)
	}
	return MinionResult{OK: true, Data: raw}, nil
}

// MinionFailure builds a failed result carrying a user-safe message.
func MinionFailure(message string) MinionResult {
	return MinionResult{OK: false, Error: message}
}

// StatusChannel is the pub/sub channel for a quiz's status events.
func StatusChannel(quizID uuid.UUID) string {
	return "quiz:" + quizID.String() + ":status"
}

// MinionChannel is the pub/sub channel for a minion job's result.
func MinionChannel(jobID uuid.UUID) string {
	return "minion:" + jobID.String() + ":channel"
}

// MinionResultKey is the cache key for a minion job's result.
func MinionResultKey(jobID uuid.UUID) string {
	return "minion:" + jobID.String() + ":result"
}

// Publisher sends a message to every current subscriber of a channel.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// Subscription delivers the messages of one channel in publish order.
// Close releases it; calling Close more than once is a no-op.
type Subscription interface {
	Messages() <-chan []byte
	Close() error
}

// Subscriber opens subscriptions. Subscribe returns only after the
// subscription is active, so messages published afterwards are delivered.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (Subscription, error)
}

// Broker is a Publisher and Subscriber.
type Broker interface {
	Publisher
	Subscriber
}

// ResultCache stores minion results for late observers.
type ResultCache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
}

// PublishJSON marshals v and publishes it on channel.
func PublishJSON(ctx context.Context, p Publisher, channel string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal event for %s: %w", channel, err)
	}
	if err := p.Publish(ctx, channel, payload); err != nil {
		return fmt.Errorf("failed to publish on %s: %w", channel, err)
	}
	return nil
}
