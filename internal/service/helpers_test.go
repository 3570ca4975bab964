package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/mocks"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var errQueueDown = errors.New("queue unavailable")

// failingEnqueuer rejects every job.
type failingEnqueuer struct{}

func (failingEnqueuer) Enqueue(context.Context, string, any, task.EnqueueOptions) (uuid.UUID, error) {
	return uuid.Nil, errQueueDown
}

type fixture struct {
	quizzes  *mocks.MockQuizStore
	drafts   *mocks.MockDraftStore
	jobs     *task.MemoryJobStore
	broker   *events.MemoryBroker
	reporter *task.StatusReporter
	owner    uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quizzes := mocks.NewMockQuizStore()
	drafts := mocks.NewMockDraftStore()
	broker := events.NewMemoryBroker(setupTestLogger())
	t.Cleanup(func() { _ = broker.Close() })
	return &fixture{
		quizzes:  quizzes,
		drafts:   drafts,
		jobs:     task.NewMemoryJobStore(setupTestLogger()),
		broker:   broker,
		reporter: task.NewStatusReporter(quizzes, drafts, broker, setupTestLogger()),
		owner:    uuid.New(),
	}
}

func sampleParams() domain.GenerationParams {
	return domain.GenerationParams{
		Topic:         "Osmosis",
		QuestionCount: 3,
		Difficulty:    domain.DifficultyMedium,
		Languages:     []string{"fr", "de"},
	}
}

func sampleContent() domain.DraftContent {
	return domain.DraftContent{Questions: []domain.Question{
		{
			ID: "q1", Type: domain.QuestionSingleChoice, Text: "What drives osmosis?",
			Options: []domain.Option{
				{ID: "a", Text: "Concentration gradient", IsCorrect: true},
				{ID: "b", Text: "Gravity"},
				{ID: "c", Text: "Magnetism"},
			},
		},
		{
			ID: "q2", Type: domain.QuestionTrueFalse, Text: "Osmosis requires ATP.",
			Options: []domain.Option{
				{ID: "t", Text: domain.TrueLabel},
				{ID: "f", Text: domain.FalseLabel, IsCorrect: true},
			},
		},
	}}
}

// addQuiz stores a quiz owned by the fixture owner in the given status,
// with architecture and a first draft once generation has finished.
func (f *fixture) addQuiz(t *testing.T, status domain.QuizStatus) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(f.owner, sampleParams())
	require.NoError(t, err)
	quiz.Status = status

	if status.Step() >= domain.StatusDraft.Step() {
		arch := "three questions on osmosis"
		quiz.Architecture = &arch
		draft, err := domain.NewDraft(quiz.ID, sampleContent())
		require.NoError(t, err)
		require.NoError(t, f.drafts.Create(context.Background(), draft))
	}
	f.quizzes.Put(quiz)
	return quiz
}

// reserve takes the next job from queue and decodes its payload into v.
func (f *fixture) reserve(t *testing.T, queue string, v any) *task.Job {
	t.Helper()
	job, err := f.jobs.Reserve(context.Background(), queue)
	require.NoError(t, err)
	require.NotNil(t, job, "expected a job on %s", queue)
	require.NoError(t, job.Decode(v))
	return job
}
