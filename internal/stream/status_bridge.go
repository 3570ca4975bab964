package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
)

// Defaults for StatusBridge.
const (
	DefaultStatusTimeout     = 12 * time.Minute
	DefaultHeartbeatInterval = 15 * time.Second
)

// TimeoutEvent ends a status stream whose quiz did not settle in time. The
// quiz keeps running; the observer may reconnect.
type TimeoutEvent struct {
	Status domain.QuizStatus `json:"status"`
	Step   int               `json:"step"`
}

// QuizReader loads the persisted state of a quiz.
type QuizReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
}

// StatusBridge follows one quiz's status until it becomes terminal.
type StatusBridge struct {
	quizzes    QuizReader
	subscriber events.Subscriber
	timeout    time.Duration
	heartbeat  time.Duration
	logger     *slog.Logger
}

// NewStatusBridge creates a bridge. Zero durations select the defaults.
func NewStatusBridge(quizzes QuizReader, subscriber events.Subscriber, timeout, heartbeat time.Duration, log *slog.Logger) *StatusBridge {
	if log == nil {
		log = slog.Default()
	}
	if timeout <= 0 {
		timeout = DefaultStatusTimeout
	}
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &StatusBridge{
		quizzes:    quizzes,
		subscriber: subscriber,
		timeout:    timeout,
		heartbeat:  heartbeat,
		logger:     log.With("component", "status_bridge"),
	}
}

// Stream emits the quiz's current status and every later change until the
// status is terminal, ctx is done, the subscription ends or the timeout
// elapses. Steps that go backwards are dropped; failed is always accepted.
func (b *StatusBridge) Stream(ctx context.Context, quizID uuid.UUID, em Emitter) error {
	log := logger.FromContextOrDefault(ctx, b.logger).With("quiz_id", quizID.String())

	quiz, err := b.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	if quiz.Status.IsTerminal() {
		return em.Emit(EventStatus, events.NewStatusEvent(quiz))
	}

	sub, err := b.subscriber.Subscribe(ctx, events.StatusChannel(quizID))
	if err != nil {
		return fmt.Errorf("failed to subscribe to quiz status: %w", err)
	}
	defer func() { _ = sub.Close() }()

	// re-read: the status may have moved before the subscription was active
	quiz, err = b.quizzes.GetByID(ctx, quizID)
	if err != nil {
		return err
	}
	last := events.NewStatusEvent(quiz)
	if err := em.Emit(EventStatus, last); err != nil {
		return err
	}
	if last.Status.IsTerminal() {
		return nil
	}

	timeout := time.NewTimer(b.timeout)
	defer timeout.Stop()
	heartbeat := time.NewTicker(b.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("status observer left", "status", last.Status)
			return nil

		case <-timeout.C:
			log.Info("status stream timed out", "status", last.Status)
			return em.Emit(EventTimeout, TimeoutEvent{Status: last.Status, Step: last.Step})

		case <-heartbeat.C:
			if err := em.Heartbeat(); err != nil {
				return err
			}

		case msg, ok := <-sub.Messages():
			if !ok {
				log.Debug("status subscription closed")
				return nil
			}
			var ev events.StatusEvent
			if err := json.Unmarshal(msg, &ev); err != nil {
				log.Warn("dropping malformed status event", "error", err)
				continue
			}
			if !advances(last, ev) {
				continue
			}
			if err := em.Emit(EventStatus, ev); err != nil {
				return err
			}
			last = ev
			if ev.Status.IsTerminal() {
				return nil
			}
		}
	}
}

// advances reports whether next should be forwarded after last.
func advances(last, next events.StatusEvent) bool {
	if !next.Status.Valid() {
		return false
	}
	if next.Status == domain.StatusFailed {
		return true
	}
	if next.Step < last.Step {
		return false
	}
	return next.Status != last.Status
}
