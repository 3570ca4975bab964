package service

import (
	"context"
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

// DefaultTranslationTimeout bounds one translation request.
const DefaultTranslationTimeout = 2 * time.Minute

// MaxTranslationLanguages bounds how many languages one request may ask for.
const MaxTranslationLanguages = 20

// TranslationService translates the latest draft of a quiz.
type TranslationService interface {
	// Translate returns the latest draft translated into each requested
	// language. Without languages, the quiz's configured languages are
	// used. The quiz's default language is never translated.
	Translate(ctx context.Context, userID, quizID uuid.UUID, languages []string) (map[string]domain.DraftContent, error)
}

type translationServiceImpl struct {
	quizzes    store.QuizStore
	drafts     store.DraftStore
	translator generation.Translator
	timeout    time.Duration
	logger     *slog.Logger
}

// NewTranslationService creates a TranslationService. A zero timeout
// selects DefaultTranslationTimeout.
func NewTranslationService(
	quizzes store.QuizStore,
	drafts store.DraftStore,
	translator generation.Translator,
	timeout time.Duration,
	log *slog.Logger,
) (TranslationService, error) {
	switch {
	case quizzes == nil:
		return nil, domain.NewValidationError("quizzes", "cannot be nil", domain.ErrValidation)
	case drafts == nil:
		return nil, domain.NewValidationError("drafts", "cannot be nil", domain.ErrValidation)
	case translator == nil:
		return nil, domain.NewValidationError("translator", "cannot be nil", domain.ErrValidation)
	}
	if timeout <= 0 {
		timeout = DefaultTranslationTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &translationServiceImpl{
		quizzes:    quizzes,
		drafts:     drafts,
		translator: translator,
		timeout:    timeout,
		logger:     log.With(slog.String("component", "translation_service")),
	}, nil
}

func (s *translationServiceImpl) Translate(ctx context.Context, userID, quizID uuid.UUID, languages []string) (map[string]domain.DraftContent, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With("quiz_id", quizID)

	quiz, err := loadOwnedQuiz(ctx, s.quizzes, userID, quizID)
	if err != nil {
		return nil, err
	}
	if len(languages) == 0 {
		languages = quiz.Params.Languages
	}
	targets, err := targetLanguages(languages, quiz.Params.DefaultLanguage)
	if err != nil {
		return nil, err
	}
	if len(targets) == 0 {
		return map[string]domain.DraftContent{}, nil
	}

	draft, err := s.drafts.GetLatest(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrDraftNotFound
		}
		return nil, NewServiceError("translation", "translate", "failed to load draft", err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	out, err := s.translator.Translate(ctx, targets, draft.Content)
	if err != nil {
		log.Error("translation failed",
			"error", redact.Error(err),
			"languages", targets,
			"duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	log.Info("draft translated",
		"draft_id", draft.ID,
		"languages", targets,
		"duration_ms", time.Since(start).Milliseconds())
	return out, nil
}

// targetLanguages normalizes codes, drops duplicates and the default language.
func targetLanguages(languages []string, defaultLanguage string) ([]string, error) {
	if len(languages) > MaxTranslationLanguages {
		return nil, domain.NewValidationError("languages",
			fmt.Sprintf("cannot exceed %d entries", MaxTranslationLanguages), domain.ErrValidation)
	}
	def := strings.ToLower(strings.TrimSpace(defaultLanguage))
	if def == "" {
		def = domain.DefaultLanguage
	}

	seen := make(map[string]struct{}, len(languages))
	out := make([]string, 0, len(languages))
	for _, lang := range languages {
		code := strings.ToLower(strings.TrimSpace(lang))
		if len(code) < 2 || len(code) > 12 {
			return nil, domain.NewValidationError("languages", fmt.Sprintf("%q is not a language code", lang), domain.ErrValidation)
		}
		if code == def {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, code)
	}
	return out, nil
}
