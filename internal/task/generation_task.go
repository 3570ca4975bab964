package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// Constructor errors.
var (
	ErrNilQuizStore  = errors.New("quiz store cannot be nil")
	ErrNilDraftStore = errors.New("draft store cannot be nil")
	ErrNilArchitect  = errors.New("architect cannot be nil")
	ErrNilBuilder    = errors.New("builder cannot be nil")
	ErrNilEditor     = errors.New("editor cannot be nil")
	ErrNilReporter   = errors.New("status reporter cannot be nil")
	ErrNilPublisher  = errors.New("publisher cannot be nil")
	ErrNilCache      = errors.New("result cache cannot be nil")
)

// DefaultGenerationTimeout bounds one generation job.
const DefaultGenerationTimeout = 10 * time.Minute

// settleTimeout bounds the writes made after the job context has expired.
const settleTimeout = 10 * time.Second

// GenerationMode selects what a generation job does.
type GenerationMode string

// Generation modes.
const (
	// ModeFull runs design and build on a new quiz.
	ModeFull GenerationMode = "full"
	// ModeRebuild builds a fresh draft from the existing architecture
	// without moving the quiz status.
	ModeRebuild GenerationMode = "rebuild"
)

// GenerationPayload is the payload of a generation job.
type GenerationPayload struct {
	QuizID uuid.UUID               `json:"quizId"`
	Params domain.GenerationParams `json:"params"`
	Mode   GenerationMode          `json:"mode,omitempty"`
}

// GenerationTask drives a quiz from queued to draft.
type GenerationTask struct {
	quizzes   store.QuizStore
	drafts    store.DraftStore
	architect generation.Architect
	builder   generation.Builder
	reporter  *StatusReporter
	timeout   time.Duration
	logger    *slog.Logger
}

// NewGenerationTask creates the generation job handler. A zero timeout
// selects DefaultGenerationTimeout.
func NewGenerationTask(
	quizzes store.QuizStore,
	drafts store.DraftStore,
	architect generation.Architect,
	builder generation.Builder,
	reporter *StatusReporter,
	timeout time.Duration,
	log *slog.Logger,
) (*GenerationTask, error) {
	switch {
	case quizzes == nil:
		return nil, ErrNilQuizStore
	case drafts == nil:
		return nil, ErrNilDraftStore
	case architect == nil:
		return nil, ErrNilArchitect
	case builder == nil:
		return nil, ErrNilBuilder
	case reporter == nil:
		return nil, ErrNilReporter
	}
	if timeout <= 0 {
		timeout = DefaultGenerationTimeout
	}
	if log == nil {
		log = slog.Default()
	}

	return &GenerationTask{
		quizzes:   quizzes,
		drafts:    drafts,
		architect: architect,
		builder:   builder,
		reporter:  reporter,
		timeout:   timeout,
		logger:    log.With("task_type", QueueGeneration),
	}, nil
}

var _ Handler = (*GenerationTask)(nil)

// Handle implements Handler.
func (t *GenerationTask) Handle(ctx context.Context, job *Job) error {
	var p GenerationPayload
	if err := job.Decode(&p); err != nil {
		return Unrecoverable(err)
	}
	if p.QuizID == uuid.Nil {
		return Unrecoverable(fmt.Errorf("%w: generation payload has no quiz id", domain.ErrInvalidID))
	}
	if p.Mode == "" {
		p.Mode = ModeFull
	}

	log := logger.FromContextOrDefault(ctx, t.logger).With("quiz_id", p.QuizID, "mode", p.Mode)
	ctx = logger.WithLogger(ctx, log)

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	quiz, err := t.quizzes.GetByID(ctx, p.QuizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Warn("quiz no longer exists, dropping job")
			return Unrecoverable(err)
		}
		return fmt.Errorf("failed to load quiz: %w", err)
	}

	params := p.Params
	if params.Topic == "" {
		params = quiz.Params
	}

	switch p.Mode {
	case ModeRebuild:
		err = t.rebuild(ctx, quiz, params)
	default:
		if quiz.Status.IsTerminal() {
			log.Info("quiz already finished, nothing to do", "status", quiz.Status)
			return nil
		}
		err = t.generate(ctx, quiz, params)
	}
	if err == nil {
		return nil
	}
	return t.fail(ctx, job, quiz, p.Mode == ModeFull, err, log)
}

func (t *GenerationTask) generate(ctx context.Context, quiz *domain.Quiz, params domain.GenerationParams) error {
	log := logger.FromContext(ctx)

	// a redelivered job that already reached building resumes there
	if quiz.Status != domain.StatusBuilding {
		if err := t.reporter.Transition(ctx, quiz, domain.StatusArchitecting, nil); err != nil {
			return err
		}
	}

	if quiz.HasArchitecture() {
		log.Info("reusing architecture from an earlier attempt")
	} else {
		architecture, err := t.architect.DesignArchitecture(ctx, generation.ArchitectureRequest{
			QuizID: quiz.ID,
			UserID: quiz.UserID,
			Params: params,
		})
		if err != nil {
			return fmt.Errorf("failed to design architecture: %w", err)
		}
		architecture = strings.TrimSpace(architecture)
		if architecture == "" {
			return fmt.Errorf("failed to design architecture: %w", generation.ErrInvalidResponse)
		}
		if err := t.quizzes.SaveArchitecture(ctx, quiz.ID, architecture); err != nil {
			return fmt.Errorf("failed to save architecture: %w", err)
		}
		quiz.Architecture = &architecture
		log.Info("architecture saved", "length", len(architecture))
	}

	if err := t.reporter.Transition(ctx, quiz, domain.StatusBuilding, nil); err != nil {
		return err
	}

	draft, err := t.build(ctx, quiz, params)
	if err != nil {
		return err
	}
	log.Info("draft created", "draft_id", draft.ID, "questions", len(draft.Content.Questions))

	return t.reporter.Transition(ctx, quiz, domain.StatusDraft, nil)
}

func (t *GenerationTask) rebuild(ctx context.Context, quiz *domain.Quiz, params domain.GenerationParams) error {
	if quiz.Status != domain.StatusDraft && quiz.Status != domain.StatusPublished {
		return fmt.Errorf("%w: cannot regenerate a quiz in status %q", domain.ErrIllegalTransition, quiz.Status)
	}
	if !quiz.HasArchitecture() {
		return domain.ErrArchitectureMissing
	}

	draft, err := t.build(ctx, quiz, params)
	if err != nil {
		return err
	}
	logger.FromContext(ctx).Info("draft regenerated", "draft_id", draft.ID)

	t.reporter.Announce(ctx, quiz)
	return nil
}

// build asks the builder for content, normalizes it and stores it as a new
// draft. Content with fewer usable questions than requested is rejected.
func (t *GenerationTask) build(ctx context.Context, quiz *domain.Quiz, params domain.GenerationParams) (*domain.Draft, error) {
	content, err := t.builder.BuildQuestions(ctx, generation.BuildRequest{
		QuizID:       quiz.ID,
		Architecture: *quiz.Architecture,
		Params:       params,
		DocumentIDs:  params.DocumentIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build questions: %w", err)
	}
	if content == nil || len(content.Questions) == 0 {
		return nil, fmt.Errorf("failed to build questions: %w", generation.ErrInvalidResponse)
	}

	normalized := NormalizeContent(*content, params.QuestionCount)
	if len(normalized.Questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions", generation.ErrInvalidResponse)
	}
	if len(normalized.Questions) < params.QuestionCount {
		return nil, fmt.Errorf("%w: got %d usable questions, want %d",
			generation.ErrInvalidResponse, len(normalized.Questions), params.QuestionCount)
	}
	draft, err := domain.NewDraft(quiz.ID, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: built content is invalid: %v", generation.ErrInvalidResponse, err)
	}
	if err := t.drafts.Create(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save draft: %w", err)
	}
	return draft, nil
}

// fail decides whether err ends the job. Transient failures with attempts
// left leave the status untouched so the next delivery can resume. Only a
// full run moves the quiz to failed; a failed rebuild keeps the last draft.
func (t *GenerationTask) fail(ctx context.Context, job *Job, quiz *domain.Quiz, markFailed bool, cause error, log *slog.Logger) error {
	if errors.Is(cause, context.Canceled) {
		log.Warn("generation interrupted", "error", redact.Error(cause))
		return cause
	}

	kind := generation.Classify(cause)
	terminal := kind != generation.KindTransient || job.IsFinalAttempt()

	log.Error("generation failed",
		"error", redact.Error(cause),
		"kind", kind.String(),
		"terminal", terminal)

	if !terminal {
		return cause
	}

	if markFailed && quiz.Status.IsWorking() {
		msg := generation.UserMessage(cause, quiz.Params.HasDocuments())
		settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), settleTimeout)
		defer cancel()
		if err := t.reporter.Transition(settleCtx, quiz, domain.StatusFailed, &msg); err != nil {
			log.Error("failed to mark quiz as failed", "error", redact.Error(err))
		}
	}

	if kind != generation.KindTransient {
		return Unrecoverable(cause)
	}
	return cause
}

// NormalizeContent enforces the per-type option rules on generated content,
// mints missing ids and caps the number of questions at limit when limit is
// positive.
func NormalizeContent(content domain.DraftContent, limit int) domain.DraftContent {
	questions := content.Questions
	if limit > 0 && len(questions) > limit {
		questions = questions[:limit]
	}

	out := domain.DraftContent{Questions: make([]domain.Question, 0, len(questions))}
	for _, q := range questions {
		if !q.Type.Valid() || strings.TrimSpace(q.Text) == "" {
			continue
		}
		out.Questions = append(out.Questions, domain.EnforceQuestionInvariants(q, nil))
	}
	out.AssignMissingIDs()
	return out
}
