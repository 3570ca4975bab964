package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// QuizStore defines the interface for quiz persistence.
type QuizStore interface {
	// Create saves a new quiz. Returns validation errors if the quiz is invalid.
	Create(ctx context.Context, quiz *domain.Quiz) error

	// GetByID retrieves a quiz, including its architecture text.
	// Returns ErrQuizNotFound if the quiz does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)

	// ListByUser returns the user's quizzes, newest first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error)

	// UpdateStatus sets status and error message. errMsg is cleared when nil.
	// Transition rules are enforced by callers.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.QuizStatus, errMsg *string) error

	// SaveArchitecture persists the design stage output without touching status.
	SaveArchitecture(ctx context.Context, id uuid.UUID, architecture string) error

	// Delete removes the quiz and, by cascade, all of its drafts.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a QuizStore bound to tx.
	WithTx(tx *sql.Tx) QuizStore
}
