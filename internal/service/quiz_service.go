package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

// Listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// QuizService manages quizzes and their generation jobs.
type QuizService interface {
	// CreateQuiz stores a queued quiz and enqueues its generation job.
	CreateQuiz(ctx context.Context, userID uuid.UUID, params domain.GenerationParams) (*domain.Quiz, uuid.UUID, error)

	// ListQuizzes returns the caller's quizzes, newest first.
	ListQuizzes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error)

	// GetQuiz returns one of the caller's quizzes.
	GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error)

	// DeleteQuiz removes the quiz together with its drafts.
	DeleteQuiz(ctx context.Context, userID, quizID uuid.UUID) error

	// PublishQuiz moves a draft quiz to published.
	PublishQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error)

	// ArchiveQuiz moves a draft or published quiz to archived.
	ArchiveQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error)

	// RegenerateDraft enqueues a rebuild of the draft from the stored
	// architecture. The quiz status does not change.
	RegenerateDraft(ctx context.Context, userID, quizID uuid.UUID) (uuid.UUID, error)
}

type quizServiceImpl struct {
	quizzes  store.QuizStore
	reporter *task.StatusReporter
	jobs     task.Enqueuer
	policy   task.EnqueueOptions
	logger   *slog.Logger
}

// NewQuizService creates a QuizService. policy is applied to every
// generation job it enqueues.
func NewQuizService(
	quizzes store.QuizStore,
	reporter *task.StatusReporter,
	jobs task.Enqueuer,
	policy task.EnqueueOptions,
	log *slog.Logger,
) (QuizService, error) {
	if quizzes == nil {
		return nil, domain.NewValidationError("quizzes", "cannot be nil", domain.ErrValidation)
	}
	if reporter == nil {
		return nil, domain.NewValidationError("reporter", "cannot be nil", domain.ErrValidation)
	}
	if jobs == nil {
		return nil, domain.NewValidationError("jobs", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}

	return &quizServiceImpl{
		quizzes:  quizzes,
		reporter: reporter,
		jobs:     jobs,
		policy:   policy,
		logger:   log.With(slog.String("component", "quiz_service")),
	}, nil
}

func (s *quizServiceImpl) CreateQuiz(ctx context.Context, userID uuid.UUID, params domain.GenerationParams) (*domain.Quiz, uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	quiz, err := domain.NewQuiz(userID, params)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if err := s.quizzes.Create(ctx, quiz); err != nil {
		log.Error("failed to save quiz", "error", redact.Error(err), "user_id", userID)
		return nil, uuid.Nil, NewServiceError("quiz", "create_quiz", "failed to save quiz", err)
	}

	jobID, err := s.jobs.Enqueue(ctx, task.QueueGeneration, task.GenerationPayload{
		QuizID: quiz.ID,
		Params: quiz.Params,
		Mode:   task.ModeFull,
	}, s.policy)
	if err != nil {
		log.Error("failed to enqueue generation job",
			"error", redact.Error(err),
			"quiz_id", quiz.ID)
		// Nothing will ever pick the quiz up, so settle it as failed.
		msg := generation.MsgGenerationFailed
		if terr := s.reporter.Transition(ctx, quiz, domain.StatusFailed, &msg); terr != nil {
			log.Error("failed to mark unqueued quiz as failed",
				"error", redact.Error(terr),
				"quiz_id", quiz.ID)
		}
		return nil, uuid.Nil, NewServiceError("quiz", "create_quiz", "failed to enqueue generation", err)
	}

	log.Info("quiz queued for generation",
		"quiz_id", quiz.ID,
		"job_id", jobID,
		"user_id", userID,
		"question_count", quiz.Params.QuestionCount,
		"has_documents", quiz.Params.HasDocuments())
	return quiz, jobID, nil
}

func (s *quizServiceImpl) ListQuizzes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error) {
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	quizzes, err := s.quizzes.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list quizzes",
			"error", redact.Error(err),
			"user_id", userID)
		return nil, NewServiceError("quiz", "list_quizzes", "failed to list quizzes", err)
	}
	return quizzes, nil
}

func (s *quizServiceImpl) GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	return loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
}

func (s *quizServiceImpl) DeleteQuiz(ctx context.Context, userID, quizID uuid.UUID) error {
	if _, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID); err != nil {
		return err
	}
	if err := s.quizzes.Delete(ctx, quizID); err != nil {
		if store.IsNotFoundError(err) {
			return store.ErrQuizNotFound
		}
		return NewServiceError("quiz", "delete_quiz", "failed to delete quiz", err)
	}
	logger.FromContextOrDefault(ctx, s.logger).Info("quiz deleted", "quiz_id", quizID, "user_id", userID)
	return nil
}

func (s *quizServiceImpl) PublishQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return nil, err
	}
	// Only the generation worker may publish straight from building.
	if quiz.Status != domain.StatusDraft {
		return nil, fmt.Errorf("%w: %q -> %q", domain.ErrIllegalTransition, quiz.Status, domain.StatusPublished)
	}
	return s.transition(ctx, quiz, domain.StatusPublished, "publish_quiz")
}

func (s *quizServiceImpl) ArchiveQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, quiz, domain.StatusArchived, "archive_quiz")
}

func (s *quizServiceImpl) transition(ctx context.Context, quiz *domain.Quiz, next domain.QuizStatus, op string) (*domain.Quiz, error) {
	if err := s.reporter.Transition(ctx, quiz, next, nil); err != nil {
		if errors.Is(err, domain.ErrValidation) {
			return nil, err
		}
		return nil, NewServiceError("quiz", op, "failed to change status", err)
	}
	return quiz, nil
}

func (s *quizServiceImpl) RegenerateDraft(ctx context.Context, userID, quizID uuid.UUID) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return uuid.Nil, err
	}
	if quiz.Status != domain.StatusDraft && quiz.Status != domain.StatusPublished {
		return uuid.Nil, fmt.Errorf("%w: status is %s", ErrNotRegenerable, quiz.Status)
	}
	if !quiz.HasArchitecture() {
		return uuid.Nil, fmt.Errorf("%w: no architecture stored", ErrNotRegenerable)
	}

	jobID, err := s.jobs.Enqueue(ctx, task.QueueGeneration, task.GenerationPayload{
		QuizID: quiz.ID,
		Params: quiz.Params,
		Mode:   task.ModeRebuild,
	}, s.policy)
	if err != nil {
		log.Error("failed to enqueue rebuild job", "error", redact.Error(err), "quiz_id", quiz.ID)
		return uuid.Nil, NewServiceError("quiz", "regenerate_draft", "failed to enqueue rebuild", err)
	}

	log.Info("draft rebuild queued", "quiz_id", quiz.ID, "job_id", jobID)
	return jobID, nil
}
