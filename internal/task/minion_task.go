package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// Minion defaults.
const (
	DefaultMinionTimeout = 60 * time.Second
	DefaultResultTTL     = 5 * time.Minute
)

// MinionPayload is the payload of a minion job.
type MinionPayload struct {
	QuizID   uuid.UUID          `json:"quizId"`
	Scope    domain.MinionScope `json:"scope"`
	Payload  json.RawMessage    `json:"payload"`
	Language string             `json:"language,omitempty"`
}

// MinionTask runs one scoped edit and delivers exactly one result.
type MinionTask struct {
	quizzes   store.QuizStore
	editor    generation.Editor
	publisher events.Publisher
	cache     events.ResultCache
	timeout   time.Duration
	resultTTL time.Duration
	logger    *slog.Logger
}

// NewMinionTask creates the minion job handler. Zero durations select the
// defaults.
func NewMinionTask(
	quizzes store.QuizStore,
	editor generation.Editor,
	publisher events.Publisher,
	cache events.ResultCache,
	timeout, resultTTL time.Duration,
	log *slog.Logger,
) (*MinionTask, error) {
	switch {
	case quizzes == nil:
		return nil, ErrNilQuizStore
	case editor == nil:
		return nil, ErrNilEditor
	case publisher == nil:
		return nil, ErrNilPublisher
	case cache == nil:
		return nil, ErrNilCache
	}
	if timeout <= 0 {
		timeout = DefaultMinionTimeout
	}
	if resultTTL <= 0 {
		resultTTL = DefaultResultTTL
	}
	if log == nil {
		log = slog.Default()
	}

	return &MinionTask{
		quizzes:   quizzes,
		editor:    editor,
		publisher: publisher,
		cache:     cache,
		timeout:   timeout,
		resultTTL: resultTTL,
		logger:    log.With("task_type", QueueMinion),
	}, nil
}

var _ Handler = (*MinionTask)(nil)

// Handle implements Handler.
func (t *MinionTask) Handle(ctx context.Context, job *Job) error {
	log := logger.FromContextOrDefault(ctx, t.logger)

	var p MinionPayload
	if err := job.Decode(&p); err != nil {
		return t.fail(ctx, job, domain.NewValidationError("payload", "is malformed", domain.ErrValidation), log)
	}
	log = log.With("quiz_id", p.QuizID, "scope", p.Scope)
	ctx = logger.WithLogger(ctx, log)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	edit, err := domain.DecodeMinionEdit(p.Scope, p.Payload)
	if err != nil {
		return t.fail(ctx, job, err, log)
	}

	architecture, err := t.architecture(ctx, p.QuizID)
	if err != nil {
		return t.fail(ctx, job, err, log)
	}

	exec := &minionExecutor{editor: t.editor, architecture: architecture, language: p.Language}
	result, err := edit.Dispatch(ctx, exec)
	if err != nil {
		return t.fail(ctx, job, err, log)
	}

	success, err := events.MinionSuccess(result)
	if err != nil {
		return t.fail(ctx, job, err, log)
	}
	if err := t.deliver(ctx, job.ID, success); err != nil {
		return t.fail(ctx, job, err, log)
	}

	log.Info("minion edit delivered")
	return nil
}

// architecture loads the quiz's architecture text. A missing quiz is an
// error; a missing architecture or a failed lookup only degrades the edit.
func (t *MinionTask) architecture(ctx context.Context, quizID uuid.UUID) (string, error) {
	log := logger.FromContext(ctx)

	quiz, err := t.quizzes.GetByID(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return "", err
		}
		log.Warn("could not load architecture, editing without it", "error", redact.Error(err))
		return "", nil
	}
	if !quiz.HasArchitecture() {
		log.Warn("quiz has no architecture, editing without it")
		return "", nil
	}
	return *quiz.Architecture, nil
}

// deliver caches the result and then publishes it, so an observer that
// subscribes after the publish still finds it in the cache. Once the cache
// holds the result it is final: a failed publish is only logged.
func (t *MinionTask) deliver(ctx context.Context, jobID uuid.UUID, result events.MinionResult) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal minion result: %w", err)
	}
	if err := t.cache.Set(ctx, events.MinionResultKey(jobID), raw, t.resultTTL); err != nil {
		return fmt.Errorf("failed to cache minion result: %w", err)
	}
	if err := t.publisher.Publish(ctx, events.MinionChannel(jobID), raw); err != nil {
		logger.FromContextOrDefault(ctx, t.logger).Warn("failed to publish cached minion result",
			"job_id", jobID,
			"error", redact.Error(err))
	}
	return nil
}

func (t *MinionTask) fail(ctx context.Context, job *Job, cause error, log *slog.Logger) error {
	if errors.Is(cause, context.Canceled) {
		return cause
	}

	kind := generation.Classify(cause)
	terminal := kind != generation.KindTransient || job.IsFinalAttempt()

	log.Error("minion edit failed",
		"error", redact.Error(cause),
		"kind", kind.String(),
		"terminal", terminal)

	if !terminal {
		return cause
	}

	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
	defer cancel()
	if err := t.deliver(settleCtx, job.ID, events.MinionFailure(generation.EditMessage(cause))); err != nil {
		log.Error("failed to deliver minion failure", "error", redact.Error(err))
	}

	if kind != generation.KindTransient {
		return Unrecoverable(cause)
	}
	return cause
}

// minionExecutor runs each scope against the Editor capability and
// normalizes what comes back.
type minionExecutor struct {
	editor       generation.Editor
	architecture string
	language     string
}

var _ domain.MinionHandler = (*minionExecutor)(nil)

func (x *minionExecutor) request(scope domain.MinionScope, q domain.Question, instruction string) generation.EditRequest {
	return generation.EditRequest{
		Scope:        scope,
		Question:     q,
		Instruction:  instruction,
		Architecture: x.architecture,
		Language:     x.language,
	}
}

func (x *minionExecutor) QuestionText(ctx context.Context, e *domain.QuestionTextEdit) (*domain.MinionEditResult, error) {
	frag, err := x.editor.EditScoped(ctx, x.request(e.Scope(), e.Question, e.Instruction))
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite question text: %w", err)
	}
	text := fragmentText(frag)
	if text == "" {
		return nil, fmt.Errorf("%w: empty question text", generation.ErrInvalidResponse)
	}
	return &domain.MinionEditResult{Scope: e.Scope(), QuestionID: e.Question.ID, Text: &text}, nil
}

func (x *minionExecutor) SingleOption(ctx context.Context, e *domain.SingleOptionEdit) (*domain.MinionEditResult, error) {
	req := x.request(e.Scope(), e.Question, e.Instruction)
	req.OptionID = e.OptionID
	frag, err := x.editor.EditScoped(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to rewrite option: %w", err)
	}
	text := fragmentText(frag)
	if text == "" {
		return nil, fmt.Errorf("%w: empty option text", generation.ErrInvalidResponse)
	}

	option := e.Target()
	option.Text = text
	return &domain.MinionEditResult{Scope: e.Scope(), QuestionID: e.Question.ID, Option: &option}, nil
}

func (x *minionExecutor) ChangeType(ctx context.Context, e *domain.ChangeTypeEdit) (*domain.MinionEditResult, error) {
	original := e.Question

	req := x.request(e.Scope(), e.Question, "")
	req.TargetType = e.TargetType
	frag, err := x.editor.EditScoped(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to change question type: %w", err)
	}

	var converted domain.Question
	if frag != nil && frag.Question != nil {
		converted = *frag.Question
	} else {
		converted = original
	}
	converted.ID = original.ID
	converted.Type = e.TargetType
	if strings.TrimSpace(converted.Text) == "" {
		converted.Text = original.Text
	}
	if converted.Explanation == "" {
		converted.Explanation = original.Explanation
	}

	converted = domain.EnforceQuestionInvariants(converted, &original)
	return &domain.MinionEditResult{Scope: e.Scope(), QuestionID: original.ID, Question: &converted}, nil
}

func (x *minionExecutor) AddDistractor(ctx context.Context, e *domain.AddDistractorEdit) (*domain.MinionEditResult, error) {
	frag, err := x.editor.EditScoped(ctx, x.request(e.Scope(), e.Question, e.Instruction))
	if err != nil {
		return nil, fmt.Errorf("failed to generate distractor: %w", err)
	}
	text := fragmentText(frag)
	if text == "" {
		return nil, fmt.Errorf("%w: empty distractor", generation.ErrInvalidResponse)
	}
	for _, o := range e.Question.Options {
		if strings.EqualFold(strings.TrimSpace(o.Text), text) {
			return nil, fmt.Errorf("%w: distractor repeats an existing option", generation.ErrInvalidResponse)
		}
	}

	option := domain.Option{ID: domain.NewOptionID(), Text: text, IsCorrect: false}
	return &domain.MinionEditResult{Scope: e.Scope(), QuestionID: e.Question.ID, Option: &option}, nil
}

func fragmentText(frag *generation.EditFragment) string {
	if frag == nil {
		return ""
	}
	if frag.Option != nil && strings.TrimSpace(frag.Option.Text) != "" {
		return strings.TrimSpace(frag.Option.Text)
	}
	return strings.TrimSpace(frag.Text)
}
