package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

// MinionRequest asks for one scoped edit of a question.
type MinionRequest struct {
	Scope    domain.MinionScope `json:"scope"              validate:"required"`
	Payload  json.RawMessage    `json:"payload"            validate:"required"`
	Language string             `json:"language,omitempty" validate:"omitempty,min=2,max=12"`
}

// MinionService dispatches scoped edit jobs. Results are delivered through
// the result cache and channel, never through the request.
type MinionService interface {
	EnqueueEdit(ctx context.Context, userID, quizID uuid.UUID, req MinionRequest) (uuid.UUID, error)
}

type minionServiceImpl struct {
	quizzes store.QuizStore
	jobs    task.Enqueuer
	policy  task.EnqueueOptions
	logger  *slog.Logger
}

// NewMinionService creates a MinionService. The zero policy delivers each
// edit once.
func NewMinionService(quizzes store.QuizStore, jobs task.Enqueuer, policy task.EnqueueOptions, log *slog.Logger) (MinionService, error) {
	if quizzes == nil {
		return nil, domain.NewValidationError("quizzes", "cannot be nil", domain.ErrValidation)
	}
	if jobs == nil {
		return nil, domain.NewValidationError("jobs", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &minionServiceImpl{
		quizzes: quizzes,
		jobs:    jobs,
		policy:  policy,
		logger:  log.With(slog.String("component", "minion_service")),
	}, nil
}

func (s *minionServiceImpl) EnqueueEdit(ctx context.Context, userID, quizID uuid.UUID, req MinionRequest) (uuid.UUID, error) {
	if err := structError(req); err != nil {
		return uuid.Nil, err
	}
	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return uuid.Nil, err
	}
	// Reject malformed payloads now instead of in the worker.
	if _, err := domain.DecodeMinionEdit(req.Scope, req.Payload); err != nil {
		return uuid.Nil, err
	}

	language := strings.ToLower(strings.TrimSpace(req.Language))
	if language == "" {
		language = quiz.Params.DefaultLanguage
	}

	jobID, err := s.jobs.Enqueue(ctx, task.QueueMinion, task.MinionPayload{
		QuizID:   quiz.ID,
		Scope:    req.Scope,
		Payload:  req.Payload,
		Language: language,
	}, s.policy)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to enqueue minion job",
			"error", redact.Error(err),
			"quiz_id", quiz.ID,
			"scope", req.Scope)
		return uuid.Nil, NewServiceError("minion", "enqueue_edit", "failed to enqueue edit", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("minion edit queued",
		"quiz_id", quiz.ID,
		"job_id", jobID,
		"scope", req.Scope)
	return jobID, nil
}
