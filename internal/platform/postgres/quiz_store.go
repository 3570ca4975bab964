package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// PostgresQuizStore implements store.QuizStore.
type PostgresQuizStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresQuizStore creates a quiz store over db. It panics when db is nil.
func NewPostgresQuizStore(db store.DBTX, log *slog.Logger) *PostgresQuizStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &PostgresQuizStore{
		db:     db,
		logger: log.With(slog.String("component", "quiz_store")),
	}
}

var _ store.QuizStore = (*PostgresQuizStore)(nil)

const quizColumns = `id, user_id, params, status, error_message, architecture, created_at, updated_at`

// Create implements store.QuizStore.
func (s *PostgresQuizStore) Create(ctx context.Context, quiz *domain.Quiz) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := quiz.Validate(); err != nil {
		log.Warn("quiz validation failed during create",
			slog.String("error", err.Error()),
			slog.String("quiz_id", quiz.ID.String()))
		return err
	}

	params, err := json.Marshal(quiz.Params)
	if err != nil {
		return fmt.Errorf("failed to encode quiz params: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO quizzes (`+quizColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		quiz.ID, quiz.UserID, params, quiz.Status, quiz.ErrorMessage, quiz.Architecture,
		quiz.CreatedAt, quiz.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create quiz",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", quiz.ID.String()))
		return MapError(err)
	}

	log.Info("quiz created",
		slog.String("quiz_id", quiz.ID.String()),
		slog.String("user_id", quiz.UserID.String()))
	return nil
}

// GetByID implements store.QuizStore.
func (s *PostgresQuizStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	row := s.db.QueryRowContext(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, id)
	quiz, err := scanQuiz(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("quiz not found", slog.String("quiz_id", id.String()))
			return nil, store.ErrQuizNotFound
		}
		log.Error("failed to get quiz",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", id.String()))
		return nil, MapError(err)
	}
	return quiz, nil
}

// ListByUser implements store.QuizStore.
func (s *PostgresQuizStore) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+quizColumns+`
		FROM quizzes
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		log.Error("failed to list quizzes",
			slog.String("error", redact.Error(err)),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	quizzes := []*domain.Quiz{}
	for rows.Next() {
		quiz, err := scanQuiz(rows)
		if err != nil {
			return nil, MapError(err)
		}
		quizzes = append(quizzes, quiz)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return quizzes, nil
}

// UpdateStatus implements store.QuizStore.
func (s *PostgresQuizStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuizStatus, errMsg *string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return domain.NewValidationError("status", "is not a known status", domain.ErrValidation)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE quizzes
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4`,
		status, errMsg, time.Now().UTC(), id,
	)
	if err != nil {
		log.Error("failed to update quiz status",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", id.String()),
			slog.String("status", string(status)))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrQuizNotFound)
}

// SaveArchitecture implements store.QuizStore.
func (s *PostgresQuizStore) SaveArchitecture(ctx context.Context, id uuid.UUID, architecture string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `
		UPDATE quizzes
		SET architecture = $1, updated_at = $2
		WHERE id = $3`,
		architecture, time.Now().UTC(), id,
	)
	if err != nil {
		log.Error("failed to save architecture",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrQuizNotFound)
}

// Delete implements store.QuizStore. Drafts go with the quiz through the
// foreign key cascade.
func (s *PostgresQuizStore) Delete(ctx context.Context, id uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete quiz",
			slog.String("error", redact.Error(err)),
			slog.String("quiz_id", id.String()))
		return MapError(err)
	}
	if err := CheckRowsAffected(result, store.ErrQuizNotFound); err != nil {
		return err
	}

	log.Info("quiz deleted", slog.String("quiz_id", id.String()))
	return nil
}

// WithTx implements store.QuizStore.
func (s *PostgresQuizStore) WithTx(tx *sql.Tx) store.QuizStore {
	return &PostgresQuizStore{db: tx, logger: s.logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanQuiz(row rowScanner) (*domain.Quiz, error) {
	var (
		quiz         domain.Quiz
		params       []byte
		status       string
		errorMessage sql.NullString
		architecture sql.NullString
	)
	if err := row.Scan(
		&quiz.ID,
		&quiz.UserID,
		&params,
		&status,
		&errorMessage,
		&architecture,
		&quiz.CreatedAt,
		&quiz.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(params, &quiz.Params); err != nil {
		return nil, fmt.Errorf("failed to decode params of quiz %s: %w", quiz.ID, err)
	}
	quiz.Status = domain.QuizStatus(status)
	if errorMessage.Valid {
		quiz.ErrorMessage = &errorMessage.String
	}
	if architecture.Valid {
		quiz.Architecture = &architecture.String
	}
	return &quiz, nil
}
