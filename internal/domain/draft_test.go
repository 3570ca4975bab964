package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftContent_Validate(t *testing.T) {
	t.Parallel()

	require.NoError(t, sampleContent().Validate())

	tests := []struct {
		name   string
		mutate func(c *DraftContent)
		want   error
	}{
		{
			name:   "duplicate question id",
			mutate: func(c *DraftContent) { c.Questions[1].ID = "q1" },
			want:   ErrDuplicateID,
		},
		{
			name:   "duplicate option id",
			mutate: func(c *DraftContent) { c.Questions[0].Options[1].ID = "a" },
			want:   ErrDuplicateID,
		},
		{
			name:   "missing question id",
			mutate: func(c *DraftContent) { c.Questions[0].ID = "" },
			want:   ErrInvalidID,
		},
		{
			name:   "unknown type",
			mutate: func(c *DraftContent) { c.Questions[0].Type = "essay" },
			want:   ErrValidation,
		},
		{
			name: "six options",
			mutate: func(c *DraftContent) {
				for _, id := range []string{"d", "e", "f"} {
					c.Questions[0].Options = append(c.Questions[0].Options, Option{ID: id, Text: id})
				}
			},
			want: ErrOptionLimit,
		},
		{
			name:   "single choice without options",
			mutate: func(c *DraftContent) { c.Questions[0].Options = nil },
			want:   ErrOptionLimit,
		},
		{
			name:   "choice question with two options",
			mutate: func(c *DraftContent) { c.Questions[2].Options = c.Questions[2].Options[:2] },
			want:   ErrOptionLimit,
		},
		{
			name:   "single choice without a correct answer",
			mutate: func(c *DraftContent) { c.Questions[0].Options[0].IsCorrect = false },
			want:   ErrValidation,
		},
		{
			name:   "single choice with two correct answers",
			mutate: func(c *DraftContent) { c.Questions[0].Options[1].IsCorrect = true },
			want:   ErrValidation,
		},
		{
			name:   "multiple choice with one correct answer",
			mutate: func(c *DraftContent) { c.Questions[2].Options[1].IsCorrect = false },
			want:   ErrValidation,
		},
		{
			name:   "true false with both answers correct",
			mutate: func(c *DraftContent) { c.Questions[1].Options[0].IsCorrect = true },
			want:   ErrValidation,
		},
		{
			name:   "true false with three options",
			mutate: func(c *DraftContent) { c.Questions[1].Options = append(c.Questions[1].Options, Option{ID: "m", Text: "Maybe"}) },
			want:   ErrOptionLimit,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, err := sampleContent().Clone()
			require.NoError(t, err)
			tt.mutate(&c)
			assert.ErrorIs(t, c.Validate(), tt.want)
		})
	}
}

func TestDraftContent_CloneIsDeep(t *testing.T) {
	t.Parallel()

	src := sampleContent()
	dst, err := src.Clone()
	require.NoError(t, err)

	dst.Questions[0].Options[0].Text = "changed"
	dst.Questions[0].Text = "changed"

	assert.Equal(t, "Concentration gradient", src.Questions[0].Options[0].Text)
	assert.Equal(t, "What drives osmosis?", src.Questions[0].Text)
}

func TestDraftContent_AssignMissingIDs(t *testing.T) {
	t.Parallel()

	c := DraftContent{Questions: []Question{
		{Type: QuestionSingleChoice, Text: "a", Options: []Option{{Text: "1"}, {Text: "2"}}},
		{ID: "dup", Type: QuestionSingleChoice, Text: "b"},
		{ID: "dup", Type: QuestionSingleChoice, Text: "c"},
	}}
	c.AssignMissingIDs()

	assert.NotEmpty(t, c.Questions[0].ID)
	assert.Equal(t, "dup", c.Questions[1].ID)
	assert.NotEqual(t, "dup", c.Questions[2].ID)
	assert.NotEqual(t, c.Questions[0].Options[0].ID, c.Questions[0].Options[1].ID)
}

func TestNewDraft(t *testing.T) {
	t.Parallel()

	d, err := NewDraft(uuid.New(), sampleContent())
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, d.ID)
	assert.False(t, d.CreatedAt.IsZero())

	_, err = NewDraft(uuid.Nil, sampleContent())
	assert.ErrorIs(t, err, ErrInvalidID)

	empty, err := NewDraft(uuid.New(), DraftContent{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Content.Questions)
}
