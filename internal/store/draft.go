package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// DraftStore persists append-only draft snapshots. There is no update
// operation: every change inserts a new row.
type DraftStore interface {
	// Create inserts a new snapshot.
	Create(ctx context.Context, draft *domain.Draft) error

	// GetLatest returns the most recently created snapshot for the quiz.
	// Returns ErrDraftNotFound when the quiz has none.
	GetLatest(ctx context.Context, quizID uuid.UUID) (*domain.Draft, error)

	// ListByQuiz returns up to limit snapshots, newest first.
	ListByQuiz(ctx context.Context, quizID uuid.UUID, limit int) ([]*domain.Draft, error)

	// WithTx returns a DraftStore bound to tx.
	WithTx(tx *sql.Tx) DraftStore
}
