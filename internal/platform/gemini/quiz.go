package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
)

type architectPrompt struct {
	Params   domain.GenerationParams
	Language string
	Context  []string
}

type builderPrompt struct {
	Params       domain.GenerationParams
	Language     string
	Architecture string
}

// DesignArchitecture implements generation.Architect. Quizzes that name
// documents are grounded on retrieved passages; failing to retrieve any
// passage is reported as generation.ErrRetrievalFailed.
func (g *Generator) DesignArchitecture(ctx context.Context, req generation.ArchitectureRequest) (string, error) {
	log := logger.FromContextOrDefault(ctx, g.logger).With("quiz_id", req.QuizID.String())

	data := architectPrompt{
		Params:   req.Params,
		Language: languageName(req.Params.DefaultLanguage),
	}

	if req.Params.HasDocuments() {
		chunks, err := g.retrieve(ctx, req)
		if err != nil {
			log.Warn("document retrieval failed",
				"documents", len(req.Params.DocumentIDs),
				"error", redact.Error(err))
			return "", err
		}
		data.Context = chunks
		log.Debug("grounding architecture on documents", "chunks", len(chunks))
	}

	prompt, err := render(g.prompts.architect, data)
	if err != nil {
		return "", err
	}

	var out struct {
		Architecture string `json:"architecture"`
	}
	if err := g.generateJSON(ctx, "design_architecture", prompt, &out); err != nil {
		return "", err
	}

	architecture := strings.TrimSpace(out.Architecture)
	if architecture == "" {
		return "", fmt.Errorf("%w: empty architecture", generation.ErrInvalidResponse)
	}
	return architecture, nil
}

func (g *Generator) retrieve(ctx context.Context, req generation.ArchitectureRequest) ([]string, error) {
	if g.retriever == nil {
		return nil, fmt.Errorf("%w: no document retriever configured", generation.ErrRetrievalFailed)
	}

	chunks, err := g.retriever.RetrieveContext(ctx, req.UserID, req.Params.DocumentIDs, req.Params.Topic, g.contextChunks)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %s", generation.ErrRetrievalFailed, redact.Error(err))
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: no content found in %d documents", generation.ErrRetrievalFailed, len(req.Params.DocumentIDs))
	}
	return chunks, nil
}

// BuildQuestions implements generation.Builder. The content is returned as
// the model wrote it; callers normalize and validate it.
func (g *Generator) BuildQuestions(ctx context.Context, req generation.BuildRequest) (*domain.DraftContent, error) {
	if strings.TrimSpace(req.Architecture) == "" {
		return nil, domain.ErrArchitectureMissing
	}

	prompt, err := render(g.prompts.builder, builderPrompt{
		Params:       req.Params,
		Language:     languageName(req.Params.DefaultLanguage),
		Architecture: req.Architecture,
	})
	if err != nil {
		return nil, err
	}

	var content domain.DraftContent
	if err := g.generateJSON(ctx, "build_questions", prompt, &content); err != nil {
		return nil, err
	}
	if len(content.Questions) == 0 {
		return nil, fmt.Errorf("%w: no questions in response", generation.ErrInvalidResponse)
	}

	logger.FromContextOrDefault(ctx, g.logger).Debug("questions built",
		"quiz_id", req.QuizID.String(),
		"questions", len(content.Questions),
		"requested", req.Params.QuestionCount)
	return &content, nil
}
