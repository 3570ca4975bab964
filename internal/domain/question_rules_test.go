package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func choiceQuestion(qt QuestionType, n int, correct ...int) Question {
	q := Question{ID: "q1", Type: qt, Text: "Which statement about osmosis is true?"}
	for i := 0; i < n; i++ {
		q.Options = append(q.Options, Option{ID: fmt.Sprintf("o%d", i), Text: fmt.Sprintf("Option %d", i)})
	}
	for _, idx := range correct {
		q.Options[idx].IsCorrect = true
	}
	return q
}

func assertUniqueOptionIDs(t *testing.T, q Question) {
	t.Helper()
	seen := map[string]bool{}
	for _, o := range q.Options {
		require.NotEmpty(t, o.ID)
		require.False(t, seen[o.ID], "duplicate option id %q", o.ID)
		seen[o.ID] = true
	}
}

func TestEnforce_TrueFalseFromAnyOptionCount(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 3, 5} {
		n := n
		t.Run(fmt.Sprintf("%d options", n), func(t *testing.T) {
			t.Parallel()

			in := choiceQuestion(QuestionSingleChoice, n)
			if n > 0 {
				in.Options[0].IsCorrect = true
			}
			in.Type = QuestionTrueFalse

			out := EnforceQuestionInvariants(in, nil)

			require.Len(t, out.Options, 2)
			assert.Equal(t, TrueLabel, out.Options[0].Text)
			assert.Equal(t, FalseLabel, out.Options[1].Text)
			assert.Equal(t, 1, out.CorrectCount())
			assertUniqueOptionIDs(t, out)
		})
	}
}

func TestEnforce_TrueFalseDefaultsToTrue(t *testing.T) {
	t.Parallel()

	out := EnforceQuestionInvariants(Question{ID: "q", Type: QuestionTrueFalse, Text: "Water is wet"}, nil)
	require.Len(t, out.Options, 2)
	assert.True(t, out.Options[0].IsCorrect)
	assert.False(t, out.Options[1].IsCorrect)
}

func TestEnforce_TrueFalseKeepsPriorPolarity(t *testing.T) {
	t.Parallel()

	prior := Question{
		ID:   "q",
		Type: QuestionTrueFalse,
		Text: "The sun orbits the earth",
		Options: []Option{
			{ID: "t", Text: "True"},
			{ID: "f", Text: "False", IsCorrect: true},
		},
	}
	// The rewritten question claims True is correct; the prior answer wins.
	rewritten := prior
	rewritten.Options = []Option{{Text: "true", IsCorrect: true}, {Text: "false"}}

	out := EnforceQuestionInvariants(rewritten, &prior)

	require.Len(t, out.Options, 2)
	assert.False(t, out.Options[0].IsCorrect)
	assert.True(t, out.Options[1].IsCorrect)
	assert.Equal(t, "t", out.Options[0].ID)
	assert.Equal(t, "f", out.Options[1].ID)
}

func TestEnforce_TrueFalseUsesSuppliedPolarityWithoutPrior(t *testing.T) {
	t.Parallel()

	in := Question{
		ID: "q", Type: QuestionTrueFalse, Text: "Ice sinks in water",
		Options: []Option{{Text: "True"}, {Text: "False", IsCorrect: true}},
	}
	out := EnforceQuestionInvariants(in, nil)
	assert.False(t, out.Options[0].IsCorrect)
	assert.True(t, out.Options[1].IsCorrect)
}

func TestEnforce_SingleChoice(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		in          Question
		wantLen     int
		wantCorrect []bool
	}{
		{
			name:        "no correct answer forces first",
			in:          choiceQuestion(QuestionSingleChoice, 4),
			wantLen:     4,
			wantCorrect: []bool{true, false, false, false},
		},
		{
			name:        "several correct answers collapse to first",
			in:          choiceQuestion(QuestionSingleChoice, 4, 1, 3),
			wantLen:     4,
			wantCorrect: []bool{true, false, false, false},
		},
		{
			name:        "exactly one correct is kept",
			in:          choiceQuestion(QuestionSingleChoice, 3, 2),
			wantLen:     3,
			wantCorrect: []bool{false, false, true},
		},
		{
			name:        "padded to three",
			in:          choiceQuestion(QuestionSingleChoice, 1, 0),
			wantLen:     3,
			wantCorrect: []bool{true, false, false},
		},
		{
			name:        "truncated to five",
			in:          choiceQuestion(QuestionSingleChoice, 7, 6),
			wantLen:     5,
			wantCorrect: []bool{true, false, false, false, false},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			out := EnforceQuestionInvariants(tt.in, nil)
			require.Len(t, out.Options, tt.wantLen)
			for i, want := range tt.wantCorrect {
				assert.Equal(t, want, out.Options[i].IsCorrect, "option %d", i)
			}
			assertUniqueOptionIDs(t, out)
		})
	}
}

func TestEnforce_MultipleChoiceFromSingleOption(t *testing.T) {
	t.Parallel()

	in := choiceQuestion(QuestionMultipleChoice, 1)
	out := EnforceQuestionInvariants(in, nil)

	assert.GreaterOrEqual(t, len(out.Options), 3)
	assert.GreaterOrEqual(t, out.CorrectCount(), 2)
	assertUniqueOptionIDs(t, out)
}

func TestEnforce_MultipleChoiceKeepsValidAnswers(t *testing.T) {
	t.Parallel()

	in := choiceQuestion(QuestionMultipleChoice, 4, 1, 2)
	out := EnforceQuestionInvariants(in, nil)

	require.Len(t, out.Options, 4)
	assert.Equal(t, []bool{false, true, true, false}, correctness(out))
}

func TestEnforce_DropsBlankOptionsAndDuplicateIDs(t *testing.T) {
	t.Parallel()

	in := Question{
		ID: "q", Type: QuestionSingleChoice, Text: "Pick one",
		Options: []Option{
			{ID: "a", Text: "Alpha", IsCorrect: true},
			{ID: "a", Text: "Beta"},
			{ID: "c", Text: "   "},
			{ID: "", Text: "Gamma"},
		},
	}
	out := EnforceQuestionInvariants(in, nil)

	require.Len(t, out.Options, 3)
	assert.Equal(t, "a", out.Options[0].ID)
	assertUniqueOptionIDs(t, out)
}

func TestEnforce_FillerDoesNotDuplicateExistingText(t *testing.T) {
	t.Parallel()

	in := Question{
		ID: "q", Type: QuestionSingleChoice, Text: "Pick one",
		Options: []Option{{Text: "None of the above", IsCorrect: true}},
	}
	out := EnforceQuestionInvariants(in, nil)

	texts := map[string]int{}
	for _, o := range out.Options {
		texts[o.Text]++
	}
	for text, n := range texts {
		assert.Equal(t, 1, n, "duplicate option text %q", text)
	}
}

func correctness(q Question) []bool {
	out := make([]bool, len(q.Options))
	for i, o := range q.Options {
		out[i] = o.IsCorrect
	}
	return out
}
