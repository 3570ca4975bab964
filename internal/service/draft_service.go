package service

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// DefaultHistoryLimit bounds draft history listings.
const DefaultHistoryLimit = 50

// DraftService reads and edits draft snapshots. Drafts are append-only:
// every edit stores a new snapshot and the latest one wins.
type DraftService interface {
	// GetLatestDraft returns the newest snapshot of the quiz.
	GetLatestDraft(ctx context.Context, userID, quizID uuid.UUID) (*domain.Draft, error)

	// ListDrafts returns up to limit snapshots, newest first.
	ListDrafts(ctx context.Context, userID, quizID uuid.UUID, limit int) ([]*domain.Draft, error)

	// ApplyPatch decodes one patch operation, applies it to a copy of the
	// latest snapshot and stores the result as a new snapshot.
	ApplyPatch(ctx context.Context, userID, quizID uuid.UUID, body []byte) (*domain.Draft, error)
}

type draftServiceImpl struct {
	quizzes store.QuizStore
	drafts  store.DraftStore
	logger  *slog.Logger
}

// NewDraftService creates a DraftService.
func NewDraftService(quizzes store.QuizStore, drafts store.DraftStore, log *slog.Logger) (DraftService, error) {
	if quizzes == nil {
		return nil, domain.NewValidationError("quizzes", "cannot be nil", domain.ErrValidation)
	}
	if drafts == nil {
		return nil, domain.NewValidationError("drafts", "cannot be nil", domain.ErrValidation)
	}
	if log == nil {
		log = slog.Default()
	}
	return &draftServiceImpl{
		quizzes: quizzes,
		drafts:  drafts,
		logger:  log.With(slog.String("component", "draft_service")),
	}, nil
}

func (s *draftServiceImpl) GetLatestDraft(ctx context.Context, userID, quizID uuid.UUID) (*domain.Draft, error) {
	if _, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID); err != nil {
		return nil, err
	}
	return s.latest(ctx, quizID)
}

func (s *draftServiceImpl) ListDrafts(ctx context.Context, userID, quizID uuid.UUID, limit int) ([]*domain.Draft, error) {
	if _, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > DefaultHistoryLimit {
		limit = DefaultHistoryLimit
	}
	drafts, err := s.drafts.ListByQuiz(ctx, quizID, limit)
	if err != nil {
		return nil, NewServiceError("draft", "list_drafts", "failed to list drafts", err)
	}
	return drafts, nil
}

func (s *draftServiceImpl) ApplyPatch(ctx context.Context, userID, quizID uuid.UUID, body []byte) (*domain.Draft, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("quiz_id", quizID)

	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return nil, err
	}
	if quiz.Status != domain.StatusDraft && quiz.Status != domain.StatusPublished {
		return nil, ErrNotEditable
	}

	patch, err := domain.DecodePatch(body)
	if err != nil {
		return nil, err
	}
	if err := structError(patch); err != nil {
		return nil, err
	}

	current, err := s.latest(ctx, quizID)
	if err != nil {
		return nil, err
	}
	content, err := current.Content.Clone()
	if err != nil {
		return nil, NewServiceError("draft", "apply_patch", "failed to copy draft", err)
	}
	if err := patch.Apply(&content); err != nil {
		log.Debug("patch rejected", "op", patch.Op(), "error", err)
		return nil, err
	}

	next, err := domain.NewDraft(quizID, content)
	if err != nil {
		return nil, err
	}
	if err := s.drafts.Create(ctx, next); err != nil {
		log.Error("failed to store patched draft", "error", redact.Error(err), "op", patch.Op())
		return nil, NewServiceError("draft", "apply_patch", "failed to save draft", err)
	}

	log.Info("draft patched",
		"op", patch.Op(),
		"draft_id", next.ID,
		"based_on", current.ID)
	return next, nil
}

func (s *draftServiceImpl) latest(ctx context.Context, quizID uuid.UUID) (*domain.Draft, error) {
	draft, err := s.drafts.GetLatest(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrDraftNotFound
		}
		return nil, NewServiceError("draft", "get_latest", "failed to load draft", err)
	}
	return draft, nil
}
