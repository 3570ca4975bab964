package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// StatusReporter moves quizzes through the lifecycle. Every transition is
// persisted first and published second; the two steps are not atomic.
type StatusReporter struct {
	quizzes   store.QuizStore
	drafts    store.DraftStore
	publisher events.Publisher
	logger    *slog.Logger
}

// NewStatusReporter creates a StatusReporter.
func NewStatusReporter(quizzes store.QuizStore, drafts store.DraftStore, publisher events.Publisher, log *slog.Logger) *StatusReporter {
	if log == nil {
		log = slog.Default()
	}
	return &StatusReporter{
		quizzes:   quizzes,
		drafts:    drafts,
		publisher: publisher,
		logger:    log.With("component", "status_reporter"),
	}
}

// Transition validates the edge from quiz.Status to next, persists it and
// publishes the resulting event. errMsg is kept only for the failed state
// and must already be a user-safe message. On success quiz is updated in
// place.
func (r *StatusReporter) Transition(ctx context.Context, quiz *domain.Quiz, next domain.QuizStatus, errMsg *string) error {
	facts := domain.TransitionFacts{HasArchitecture: quiz.HasArchitecture()}
	if next == domain.StatusDraft || next == domain.StatusPublished {
		hasDraft, err := r.hasDraft(ctx, quiz)
		if err != nil {
			return err
		}
		facts.HasDraft = hasDraft
	}

	if err := domain.ValidateTransition(quiz.Status, next, facts); err != nil {
		return err
	}

	if next != domain.StatusFailed {
		errMsg = nil
	} else if errMsg == nil {
		return domain.NewValidationError("errorMessage", "is required when failing a quiz", domain.ErrValidation)
	}

	if err := r.quizzes.UpdateStatus(ctx, quiz.ID, next, errMsg); err != nil {
		return fmt.Errorf("failed to persist status %s: %w", next, err)
	}

	logger.FromContextOrDefault(ctx, r.logger).Info("quiz status changed",
		"quiz_id", quiz.ID,
		"from", quiz.Status,
		"to", next)

	quiz.Status = next
	quiz.ErrorMessage = errMsg
	r.Announce(ctx, quiz)
	return nil
}

// Announce publishes the quiz's current state without changing it. A
// publish failure is only logged: the state is already persisted and
// observers re-read it when they connect.
func (r *StatusReporter) Announce(ctx context.Context, quiz *domain.Quiz) {
	ev := events.NewStatusEvent(quiz)
	if err := events.PublishJSON(ctx, r.publisher, events.StatusChannel(quiz.ID), ev); err != nil {
		logger.FromContextOrDefault(ctx, r.logger).Warn("failed to publish status event",
			"quiz_id", quiz.ID,
			"status", quiz.Status,
			"error", redact.Error(err))
	}
}

func (r *StatusReporter) hasDraft(ctx context.Context, quiz *domain.Quiz) (bool, error) {
	_, err := r.drafts.GetLatest(ctx, quiz.ID)
	switch {
	case err == nil:
		return true, nil
	case store.IsNotFoundError(err):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check drafts: %w", err)
	}
}
