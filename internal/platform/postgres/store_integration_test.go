//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/postgres"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

var (
	migrateOnce sync.Once
	migrateErr  error
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestDB connects to DATABASE_URL and applies the migrations once per
// test binary.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv("DATABASE_URL")
	if url == "" {
		t.Skip("DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	migrateOnce.Do(func() {
		migrateErr = postgres.Migrate(context.Background(), db, "up", discardLogger())
	})
	require.NoError(t, migrateErr)
	return db
}

// withTx runs fn inside a transaction that is always rolled back.
func withTx(t *testing.T, db *sql.DB, fn func(tx *sql.Tx)) {
	t.Helper()
	tx, err := db.BeginTx(context.Background(), nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()
	fn(tx)
}

func newQuiz(t *testing.T) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(uuid.New(), domain.GenerationParams{
		Topic:         "Osmosis",
		QuestionCount: 5,
		Difficulty:    domain.DifficultyEasy,
		DocumentIDs:   []uuid.UUID{uuid.New()},
	})
	require.NoError(t, err)
	return quiz
}

func content(text string) domain.DraftContent {
	c := domain.DraftContent{Questions: []domain.Question{{
		Type: domain.QuestionTrueFalse,
		Text: text,
		Options: []domain.Option{
			{Text: domain.TrueLabel, IsCorrect: true},
			{Text: domain.FalseLabel},
		},
	}}}
	c.AssignMissingIDs()
	return c
}

func TestQuizStore_Lifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	withTx(t, db, func(tx *sql.Tx) {
		quizzes := postgres.NewPostgresQuizStore(db, discardLogger()).WithTx(tx)

		quiz := newQuiz(t)
		require.NoError(t, quizzes.Create(ctx, quiz))
		assert.ErrorIs(t, quizzes.Create(ctx, quiz), store.ErrDuplicate)

		got, err := quizzes.GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusQueued, got.Status)
		assert.Equal(t, quiz.Params.Topic, got.Params.Topic)
		assert.Equal(t, quiz.Params.DocumentIDs, got.Params.DocumentIDs)
		assert.Nil(t, got.Architecture)

		require.NoError(t, quizzes.SaveArchitecture(ctx, quiz.ID, "plan"))
		msg := "Something went wrong"
		require.NoError(t, quizzes.UpdateStatus(ctx, quiz.ID, domain.StatusFailed, &msg))

		got, err = quizzes.GetByID(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusFailed, got.Status)
		require.NotNil(t, got.Architecture)
		assert.Equal(t, "plan", *got.Architecture)
		require.NotNil(t, got.ErrorMessage)
		assert.Equal(t, msg, *got.ErrorMessage)

		list, err := quizzes.ListByUser(ctx, quiz.UserID, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)

		assert.ErrorIs(t, quizzes.UpdateStatus(ctx, uuid.New(), domain.StatusDraft, nil), store.ErrQuizNotFound)
		_, err = quizzes.GetByID(ctx, uuid.New())
		assert.True(t, store.IsNotFoundError(err))
	})
}

func TestDraftStore_LatestAndCascade(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	withTx(t, db, func(tx *sql.Tx) {
		quizzes := postgres.NewPostgresQuizStore(db, discardLogger()).WithTx(tx)
		drafts := postgres.NewPostgresDraftStore(db, discardLogger()).WithTx(tx)

		quiz := newQuiz(t)
		require.NoError(t, quizzes.Create(ctx, quiz))

		_, err := drafts.GetLatest(ctx, quiz.ID)
		assert.True(t, errors.Is(err, store.ErrDraftNotFound))

		first, err := domain.NewDraft(quiz.ID, content("first"))
		require.NoError(t, err)
		second, err := domain.NewDraft(quiz.ID, content("second"))
		require.NoError(t, err)
		// identical timestamps still order by insertion
		second.CreatedAt = first.CreatedAt
		require.NoError(t, drafts.Create(ctx, first))
		require.NoError(t, drafts.Create(ctx, second))

		latest, err := drafts.GetLatest(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)
		assert.Equal(t, "second", latest.Content.Questions[0].Text)

		// a later insert with an older timestamp is not the latest
		backdated, err := domain.NewDraft(quiz.ID, content("backdated"))
		require.NoError(t, err)
		backdated.CreatedAt = first.CreatedAt.Add(-time.Minute)
		require.NoError(t, drafts.Create(ctx, backdated))

		latest, err = drafts.GetLatest(ctx, quiz.ID)
		require.NoError(t, err)
		assert.Equal(t, second.ID, latest.ID)

		history, err := drafts.ListByQuiz(ctx, quiz.ID, 10)
		require.NoError(t, err)
		require.Len(t, history, 3)
		assert.Equal(t, []uuid.UUID{second.ID, first.ID, backdated.ID},
			[]uuid.UUID{history[0].ID, history[1].ID, history[2].ID})

		orphan, err := domain.NewDraft(uuid.New(), content("orphan"))
		require.NoError(t, err)
		assert.ErrorIs(t, drafts.Create(ctx, orphan), store.ErrQuizNotFound)

		require.NoError(t, quizzes.Delete(ctx, quiz.ID))
		_, err = drafts.GetLatest(ctx, quiz.ID)
		assert.ErrorIs(t, err, store.ErrDraftNotFound)
	})
}

func TestDocumentStore_RetrieveContext(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	withTx(t, db, func(tx *sql.Tx) {
		userID, docID := uuid.New(), uuid.New()
		chunks := []string{
			"Cells are the basic unit of life.",
			"Osmosis is the movement of water across a semipermeable membrane.",
			"Diffusion moves solutes from high to low concentration.",
		}
		for i, c := range chunks {
			_, err := tx.ExecContext(ctx,
				`INSERT INTO document_chunks (id, document_id, user_id, chunk_index, content) VALUES ($1, $2, $3, $4, $5)`,
				uuid.New(), docID, userID, i, c)
			require.NoError(t, err)
		}

		docs := postgres.NewDocumentStore(tx, discardLogger())

		got, err := docs.RetrieveContext(ctx, userID, []uuid.UUID{docID}, "osmosis water", 2)
		require.NoError(t, err)
		require.NotEmpty(t, got)
		assert.Contains(t, got[0], "Osmosis")

		got, err = docs.RetrieveContext(ctx, userID, []uuid.UUID{docID}, "photosynthesis", 2)
		require.NoError(t, err)
		assert.Equal(t, chunks[:2], got, "falls back to leading chunks")

		got, err = docs.RetrieveContext(ctx, uuid.New(), []uuid.UUID{docID}, "osmosis", 2)
		require.NoError(t, err)
		assert.Empty(t, got, "chunks of other users are invisible")
	})
}
