package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/config"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/retry"
)

// DefaultTranslationConcurrency bounds parallel per-language requests.
const DefaultTranslationConcurrency = 4

// contentGenerator is the slice of *genai.Models used here.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements every generation capability on one Gemini model.
type Generator struct {
	models        contentGenerator
	model         string
	temperature   float32
	maxAttempts   int
	baseDelay     time.Duration
	contextChunks int
	retriever     generation.DocumentRetriever
	prompts       *prompts
	logger        *slog.Logger
}

var (
	_ generation.Architect  = (*Generator)(nil)
	_ generation.Builder    = (*Generator)(nil)
	_ generation.Editor     = (*Generator)(nil)
	_ generation.Translator = (*Generator)(nil)
)

// NewGenerator creates a Gemini client from cfg. retriever grounds
// architectures on uploaded documents and may be nil when documents are not
// supported, in which case document-backed quizzes fail retrieval.
func NewGenerator(ctx context.Context, cfg config.LLMConfig, retriever generation.DocumentRetriever, log *slog.Logger) (*Generator, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %s", generation.ErrInvalidConfig, redact.Error(err))
	}
	return newGenerator(client.Models, cfg, retriever, log)
}

func newGenerator(models contentGenerator, cfg config.LLMConfig, retriever generation.DocumentRetriever, log *slog.Logger) (*Generator, error) {
	if log == nil {
		log = slog.Default()
	}
	p, err := loadPrompts()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", generation.ErrInvalidConfig, err)
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = retry.DefaultMaxAttempts
	}
	chunks := cfg.ContextChunks
	if chunks < 1 {
		chunks = 8
	}

	return &Generator{
		models:        models,
		model:         cfg.ModelName,
		temperature:   cfg.Temperature,
		maxAttempts:   maxAttempts,
		baseDelay:     cfg.RetryBaseDelay,
		contextChunks: chunks,
		retriever:     retriever,
		prompts:       p,
		logger:        log.With("component", "gemini_generator", "model", cfg.ModelName),
	}, nil
}

// generateJSON sends prompt and decodes the JSON answer into out, retrying
// transient failures.
func (g *Generator) generateJSON(ctx context.Context, operation string, prompt string, out any) error {
	log := logger.FromContextOrDefault(ctx, g.logger).With("operation", operation)

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		Temperature:       &g.temperature,
		ResponseMIMEType:  "application/json",
	}
	contents := []*genai.Content{{Role: "user", Parts: []*genai.Part{{Text: prompt}}}}

	attempt := 0
	_, err := retry.Execute(ctx, g.maxAttempts, func(ctx context.Context) (struct{}, error) {
		attempt++
		start := time.Now()

		resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
		if err != nil {
			err = mapAPIError(err)
			log.Warn("gemini call failed",
				"attempt", attempt,
				"error", redact.Error(err),
				"duration_ms", time.Since(start).Milliseconds())
			return struct{}{}, err
		}

		text, err := responseText(resp)
		if err != nil {
			log.Warn("gemini returned no usable content", "attempt", attempt, "error", err)
			return struct{}{}, err
		}
		if err := json.Unmarshal([]byte(stripFences(text)), out); err != nil {
			log.Warn("gemini returned malformed JSON", "attempt", attempt, "response_length", len(text))
			return struct{}{}, fmt.Errorf("%w: %s: %v", generation.ErrInvalidResponse, operation, err)
		}

		log.Debug("gemini call succeeded",
			"attempt", attempt,
			"duration_ms", time.Since(start).Milliseconds())
		return struct{}{}, nil
	}, retry.WithBaseDelay(g.baseDelay))
	if err != nil {
		var exhausted *retry.ExhaustedError
		if errors.As(err, &exhausted) {
			log.Error("gemini call exhausted retries",
				"attempts", exhausted.Attempts,
				"error", redact.Error(exhausted.Err))
		}
		return err
	}
	return nil
}

// stripFences removes a ```json fence some models wrap around JSON output.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(s, "```")
	if _, body, ok := strings.Cut(s, "\n"); ok {
		return body
	}
	return strings.TrimPrefix(s, "```")
}
