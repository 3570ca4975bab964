package task

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
)

func setupTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type published struct {
	Channel string
	Payload []byte
}

// recordingPublisher captures every publish.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, published{Channel: channel, Payload: append([]byte(nil), payload...)})
	return nil
}

func (p *recordingPublisher) messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.msgs...)
}

func (p *recordingPublisher) statusEvents(t *testing.T, quizID uuid.UUID) []events.StatusEvent {
	t.Helper()
	var out []events.StatusEvent
	for _, m := range p.messages() {
		if m.Channel != events.StatusChannel(quizID) {
			continue
		}
		var ev events.StatusEvent
		require.NoError(t, json.Unmarshal(m.Payload, &ev))
		out = append(out, ev)
	}
	return out
}

func newTestQuiz(t *testing.T, params domain.GenerationParams) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(uuid.New(), params)
	require.NoError(t, err)
	return quiz
}

func osmosisParams() domain.GenerationParams {
	return domain.GenerationParams{Topic: "Osmosis", QuestionCount: 5, Difficulty: domain.DifficultyEasy}
}

// sampleContent returns n single_choice questions without ids.
func sampleContent(n int) *domain.DraftContent {
	content := &domain.DraftContent{}
	for i := 0; i < n; i++ {
		content.Questions = append(content.Questions, domain.Question{
			Type: domain.QuestionSingleChoice,
			Text: "Which way does water move during osmosis?",
			Options: []domain.Option{
				{Text: "Towards higher solute concentration", IsCorrect: true},
				{Text: "Towards lower solute concentration"},
				{Text: "It does not move"},
			},
		})
	}
	return content
}

func newTestJob(t *testing.T, queue string, payload any, attempts, maxAttempts int) *Job {
	t.Helper()
	job, err := NewJob(queue, payload, EnqueueOptions{MaxAttempts: maxAttempts}, time.Now())
	require.NoError(t, err)
	job.Attempts = attempts
	return job
}
