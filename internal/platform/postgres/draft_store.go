package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// PostgresDraftStore implements store.DraftStore. Snapshots are ordered by
// a database sequence, so two drafts created within the same clock tick
// still have a well defined latest.
type PostgresDraftStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresDraftStore creates a draft store over db.
func NewPostgresDraftStore(db store.DBTX, log *slog.Logger) *PostgresDraftStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresDraftStore{
		db:     db,
		logger: log.With(slog.String("component", "draft_store")),
	}
}

var _ store.DraftStore = (*PostgresDraftStore)(nil)

// Create implements store.DraftStore.
func (s *PostgresDraftStore) Create(ctx context.Context, draft *domain.Draft) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := draft.Content.Validate(); err != nil {
		return err
	}
	content, err := json.Marshal(draft.Content)
	if err != nil {
		return fmt.Errorf("failed to encode draft content: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quiz_drafts (id, quiz_id, content, created_at)
		VALUES ($1, $2, $3, $4)`,
		draft.ID, draft.QuizID, content, draft.CreatedAt,
	)
	if err != nil {
		if IsForeignKeyViolation(err) {
			return fmt.Errorf("%w: quiz %s", store.ErrQuizNotFound, draft.QuizID)
		}
		log.Error("failed to create draft",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", draft.QuizID.String()))
		return MapError(err)
	}

	log.Debug("draft created",
		slog.String("draft_id", draft.ID.String()),
		slog.String("quiz_id", draft.QuizID.String()),
		slog.Int("questions", len(draft.Content.Questions)))
	return nil
}

// GetLatest implements store.DraftStore.
func (s *PostgresDraftStore) GetLatest(ctx context.Context, quizID uuid.UUID) (*domain.Draft, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, quiz_id, content, created_at
		FROM quiz_drafts
		WHERE quiz_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT 1`,
		quizID,
	)
	draft, err := scanDraft(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrDraftNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get latest draft",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", quizID.String()))
		return nil, MapError(err)
	}
	return draft, nil
}

// ListByQuiz implements store.DraftStore.
func (s *PostgresDraftStore) ListByQuiz(ctx context.Context, quizID uuid.UUID, limit int) ([]*domain.Draft, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, quiz_id, content, created_at
		FROM quiz_drafts
		WHERE quiz_id = $1
		ORDER BY created_at DESC, seq DESC
		LIMIT $2`,
		quizID, limit,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	drafts := []*domain.Draft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, MapError(err)
		}
		drafts = append(drafts, d)
	}
	return drafts, MapError(rows.Err())
}

// WithTx implements store.DraftStore.
func (s *PostgresDraftStore) WithTx(tx *sql.Tx) store.DraftStore {
	return &PostgresDraftStore{db: tx, logger: s.logger}
}

func scanDraft(row rowScanner) (*domain.Draft, error) {
	var (
		d       domain.Draft
		content []byte
	)
	if err := row.Scan(&d.ID, &d.QuizID, &content, &d.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &d.Content); err != nil {
		return nil, fmt.Errorf("failed to decode draft %s: %w", d.ID, err)
	}
	if d.Content.Questions == nil {
		d.Content.Questions = []domain.Question{}
	}
	return &d, nil
}
