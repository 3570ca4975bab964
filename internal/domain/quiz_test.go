package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQuiz(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	q, err := NewQuiz(userID, GenerationParams{
		Topic:         "  Osmosis ",
		QuestionCount: 5,
		Difficulty:    DifficultyEasy,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusQueued, q.Status)
	assert.Equal(t, "Osmosis", q.Params.Topic)
	assert.Equal(t, DefaultLanguage, q.Params.DefaultLanguage)
	assert.Len(t, q.Params.QuestionTypes, 3)
	assert.True(t, q.IsOwnedBy(userID))
	assert.False(t, q.HasArchitecture())
	assert.Nil(t, q.ErrorMessage)
	assert.NoError(t, q.Validate())
}

func TestNewQuiz_Validation(t *testing.T) {
	t.Parallel()

	valid := GenerationParams{Topic: "Osmosis", QuestionCount: 5, Difficulty: DifficultyEasy}

	tests := []struct {
		name   string
		userID uuid.UUID
		mutate func(p *GenerationParams)
	}{
		{name: "missing user", userID: uuid.Nil, mutate: func(p *GenerationParams) {}},
		{name: "blank topic", userID: uuid.New(), mutate: func(p *GenerationParams) { p.Topic = "  " }},
		{name: "zero questions", userID: uuid.New(), mutate: func(p *GenerationParams) { p.QuestionCount = 0 }},
		{name: "too many questions", userID: uuid.New(), mutate: func(p *GenerationParams) { p.QuestionCount = 51 }},
		{name: "bad difficulty", userID: uuid.New(), mutate: func(p *GenerationParams) { p.Difficulty = "extreme" }},
		{name: "bad type", userID: uuid.New(), mutate: func(p *GenerationParams) {
			p.QuestionTypes = []QuestionType{"essay"}
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := valid
			tt.mutate(&p)
			_, err := NewQuiz(tt.userID, p)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestQuiz_HasArchitecture(t *testing.T) {
	t.Parallel()

	blank := "   "
	text := "1. Define osmosis"
	q := &Quiz{}
	assert.False(t, q.HasArchitecture())
	q.Architecture = &blank
	assert.False(t, q.HasArchitecture())
	q.Architecture = &text
	assert.True(t, q.HasArchitecture())
}
