package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/mocks"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

type minionFixture struct {
	quizzes *mocks.MockQuizStore
	editor  *mocks.MockEditor
	pub     *recordingPublisher
	cache   *events.MemoryResultCache
	task    *MinionTask
	quiz    *domain.Quiz
}

func newMinionFixture(t *testing.T) *minionFixture {
	t.Helper()
	f := &minionFixture{
		quizzes: mocks.NewMockQuizStore(),
		editor:  &mocks.MockEditor{},
		pub:     &recordingPublisher{},
		cache:   events.NewMemoryResultCache(),
	}
	task, err := NewMinionTask(f.quizzes, f.editor, f.pub, f.cache, 0, 0, setupTestLogger())
	require.NoError(t, err)
	f.task = task

	f.quiz = newTestQuiz(t, osmosisParams())
	arch := "Cover diffusion before osmosis"
	f.quiz.Architecture = &arch
	f.quizzes.Put(f.quiz)
	return f
}

func (f *minionFixture) job(t *testing.T, scope domain.MinionScope, edit any, attempts, maxAttempts int) *Job {
	t.Helper()
	raw, err := json.Marshal(edit)
	require.NoError(t, err)
	return newTestJob(t, QueueMinion, MinionPayload{QuizID: f.quiz.ID, Scope: scope, Payload: raw}, attempts, maxAttempts)
}

// result reads the delivered result from the cache and checks that the same
// bytes were published.
func (f *minionFixture) result(t *testing.T, jobID uuid.UUID) events.MinionResult {
	t.Helper()
	raw, ok, err := f.cache.Get(context.Background(), events.MinionResultKey(jobID))
	require.NoError(t, err)
	require.True(t, ok, "result must be cached")

	msgs := f.pub.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, events.MinionChannel(jobID), msgs[0].Channel)
	assert.JSONEq(t, string(raw), string(msgs[0].Payload))

	var res events.MinionResult
	require.NoError(t, json.Unmarshal(raw, &res))
	return res
}

func decodeEdit(t *testing.T, res events.MinionResult) domain.MinionEditResult {
	t.Helper()
	require.True(t, res.OK, "error: %s", res.Error)
	var out domain.MinionEditResult
	require.NoError(t, json.Unmarshal(res.Data, &out))
	return out
}

func choiceQuestion(n int) domain.Question {
	q := domain.Question{ID: "q1", Type: domain.QuestionSingleChoice, Text: "What drives osmosis?"}
	labels := []string{"Solute gradient", "Gravity", "Light", "Heat", "Magnetism"}
	for i := 0; i < n; i++ {
		q.Options = append(q.Options, domain.Option{ID: labels[i][:2], Text: labels[i], IsCorrect: i == 0})
	}
	return q
}

func TestNewMinionTask_NilDependencies(t *testing.T) {
	t.Parallel()

	q, e, p, c := mocks.NewMockQuizStore(), &mocks.MockEditor{}, &recordingPublisher{}, events.NewMemoryResultCache()

	_, err := NewMinionTask(nil, e, p, c, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNilQuizStore)
	_, err = NewMinionTask(q, nil, p, c, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNilEditor)
	_, err = NewMinionTask(q, e, nil, c, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNilPublisher)
	_, err = NewMinionTask(q, e, p, nil, 0, 0, nil)
	assert.ErrorIs(t, err, ErrNilCache)

	task, err := NewMinionTask(q, e, p, c, 0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultMinionTimeout, task.timeout)
	assert.Equal(t, DefaultResultTTL, task.resultTTL)
}

func TestMinionTask_QuestionText(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Fragment = &generation.EditFragment{Text: "  Why does water cross a membrane?  "}

	job := f.job(t, domain.ScopeQuestionText, domain.QuestionTextEdit{Question: choiceQuestion(3), Instruction: "simpler"}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))

	out := decodeEdit(t, f.result(t, job.ID))
	assert.Equal(t, domain.ScopeQuestionText, out.Scope)
	assert.Equal(t, "q1", out.QuestionID)
	require.NotNil(t, out.Text)
	assert.Equal(t, "Why does water cross a membrane?", *out.Text)

	reqs := f.editor.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "Cover diffusion before osmosis", reqs[0].Architecture)
	assert.Equal(t, "simpler", reqs[0].Instruction)
}

func TestMinionTask_PublishFailureKeepsCachedSuccess(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.pub.err = errors.New("redis: connection refused")
	f.editor.Fragment = &generation.EditFragment{Text: "Why does water cross a membrane?"}

	job := f.job(t, domain.ScopeQuestionText, domain.QuestionTextEdit{Question: choiceQuestion(3)}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))

	raw, ok, err := f.cache.Get(context.Background(), events.MinionResultKey(job.ID))
	require.NoError(t, err)
	require.True(t, ok)

	var res events.MinionResult
	require.NoError(t, json.Unmarshal(raw, &res))
	assert.True(t, res.OK)
	assert.Empty(t, res.Error)
	out := decodeEdit(t, res)
	require.NotNil(t, out.Text)
	assert.Equal(t, "Why does water cross a membrane?", *out.Text)
	assert.Empty(t, f.pub.messages())
}

func TestMinionTask_SingleOptionKeepsIdentity(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Fragment = &generation.EditFragment{Option: &domain.Option{ID: "other", Text: "Concentration gradient", IsCorrect: false}}

	q := choiceQuestion(3)
	job := f.job(t, domain.ScopeSingleOption, domain.SingleOptionEdit{Question: q, OptionID: q.Options[0].ID}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))

	out := decodeEdit(t, f.result(t, job.ID))
	require.NotNil(t, out.Option)
	assert.Equal(t, q.Options[0].ID, out.Option.ID)
	assert.True(t, out.Option.IsCorrect)
	assert.Equal(t, "Concentration gradient", out.Option.Text)
	assert.Equal(t, q.Options[0].ID, f.editor.Requests()[0].OptionID)
}

func TestMinionTask_ChangeTypeToTrueFalse(t *testing.T) {
	t.Parallel()

	for _, n := range []int{0, 1, 3, 5} {
		n := n
		t.Run(fmt.Sprintf("%d options returned", n), func(t *testing.T) {
			t.Parallel()
			f := newMinionFixture(t)

			converted := domain.Question{Type: domain.QuestionTrueFalse, Text: "Osmosis needs a membrane."}
			for i := 0; i < n; i++ {
				converted.Options = append(converted.Options, domain.Option{Text: []string{"True", "False", "Maybe", "Never", "Always"}[i], IsCorrect: i == 1})
			}
			f.editor.Fragment = &generation.EditFragment{Question: &converted}

			job := f.job(t, domain.ScopeChangeType, domain.ChangeTypeEdit{Question: choiceQuestion(3), TargetType: domain.QuestionTrueFalse}, 1, 1)
			require.NoError(t, f.task.Handle(context.Background(), job))

			out := decodeEdit(t, f.result(t, job.ID))
			require.NotNil(t, out.Question)
			q := *out.Question
			assert.Equal(t, "q1", q.ID)
			assert.Equal(t, domain.QuestionTrueFalse, q.Type)
			require.Len(t, q.Options, 2)
			assert.Equal(t, domain.TrueLabel, q.Options[0].Text)
			assert.Equal(t, domain.FalseLabel, q.Options[1].Text)
			assert.Equal(t, 1, q.CorrectCount())
			assert.NotEqual(t, q.Options[0].ID, q.Options[1].ID)
		})
	}
}

func TestMinionTask_ChangeTypeToMultipleChoice(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Fragment = &generation.EditFragment{Question: &domain.Question{
		Text:    "Which are passive transport?",
		Options: []domain.Option{{Text: "Osmosis", IsCorrect: true}},
	}}

	job := f.job(t, domain.ScopeChangeType, domain.ChangeTypeEdit{Question: choiceQuestion(1), TargetType: domain.QuestionMultipleChoice}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))

	q := *decodeEdit(t, f.result(t, job.ID)).Question
	assert.Equal(t, domain.QuestionMultipleChoice, q.Type)
	assert.Len(t, q.Options, domain.MinChoiceOptions)
	assert.GreaterOrEqual(t, q.CorrectCount(), 2)
}

func TestMinionTask_AddDistractor(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Fragment = &generation.EditFragment{Text: "Active pumping"}

	job := f.job(t, domain.ScopeAddDistractor, domain.AddDistractorEdit{Question: choiceQuestion(3)}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))

	out := decodeEdit(t, f.result(t, job.ID))
	require.NotNil(t, out.Option)
	assert.Equal(t, "Active pumping", out.Option.Text)
	assert.False(t, out.Option.IsCorrect)
	assert.NotEmpty(t, out.Option.ID)
}

func TestMinionTask_AddDistractorAtLimit(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)

	job := f.job(t, domain.ScopeAddDistractor, domain.AddDistractorEdit{Question: choiceQuestion(domain.MaxChoiceOptions)}, 1, 3)
	err := f.task.Handle(context.Background(), job)
	require.Error(t, err)
	assert.True(t, IsUnrecoverable(err))
	assert.ErrorIs(t, err, domain.ErrOptionLimit)

	assert.Empty(t, f.editor.Requests(), "no sixth option is generated")
	res := f.result(t, job.ID)
	assert.False(t, res.OK)
	assert.Equal(t, generation.MsgOptionLimit, res.Error)
}

func TestMinionTask_DuplicateDistractorRejected(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Fragment = &generation.EditFragment{Text: "gravity"}

	job := f.job(t, domain.ScopeAddDistractor, domain.AddDistractorEdit{Question: choiceQuestion(3)}, 1, 1)
	err := f.task.Handle(context.Background(), job)
	require.Error(t, err)
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
	assert.False(t, f.result(t, job.ID).OK)
}

func TestMinionTask_TransientFailureRetriesSilently(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.editor.Err = generation.ErrTransientFailure

	job := f.job(t, domain.ScopeQuestionText, domain.QuestionTextEdit{Question: choiceQuestion(3)}, 1, 2)
	err := f.task.Handle(context.Background(), job)
	require.Error(t, err)
	assert.False(t, IsUnrecoverable(err))
	assert.Empty(t, f.pub.messages(), "nothing is delivered while attempts remain")

	job.Attempts = 2
	err = f.task.Handle(context.Background(), job)
	require.Error(t, err)
	res := f.result(t, job.ID)
	assert.False(t, res.OK)
	assert.Equal(t, generation.MsgEditFailed, res.Error)
}

func TestMinionTask_MissingArchitectureStillEdits(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.quiz.Architecture = nil
	f.quizzes.Put(f.quiz)
	f.editor.Fragment = &generation.EditFragment{Text: "Rewritten"}

	job := f.job(t, domain.ScopeQuestionText, domain.QuestionTextEdit{Question: choiceQuestion(3)}, 1, 1)
	require.NoError(t, f.task.Handle(context.Background(), job))
	assert.Empty(t, f.editor.Requests()[0].Architecture)
}

func TestMinionTask_UnknownQuiz(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)
	f.quizzes.GetByIDFn = func(context.Context, uuid.UUID) (*domain.Quiz, error) {
		return nil, fmt.Errorf("lookup: %w", store.ErrQuizNotFound)
	}

	job := f.job(t, domain.ScopeQuestionText, domain.QuestionTextEdit{Question: choiceQuestion(3)}, 1, 1)
	err := f.task.Handle(context.Background(), job)
	require.Error(t, err)
	assert.True(t, IsUnrecoverable(err))
	assert.Equal(t, generation.MsgNotFound, f.result(t, job.ID).Error)
}

func TestMinionTask_MalformedPayload(t *testing.T) {
	t.Parallel()
	f := newMinionFixture(t)

	job := newTestJob(t, QueueMinion, MinionPayload{QuizID: f.quiz.ID, Scope: "rewrite_everything", Payload: json.RawMessage(`{}`)}, 1, 1)
	err := f.task.Handle(context.Background(), job)
	require.Error(t, err)
	assert.True(t, IsUnrecoverable(err))
	assert.False(t, f.result(t, job.ID).OK)
}
