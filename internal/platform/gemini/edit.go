package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
)

type editPrompt struct {
	Scope        string
	Language     string
	Architecture string
	QuestionJSON string
	OptionID     string
	TargetType   string
	Instruction  string
}

type translatePrompt struct {
	Language    string
	ContentJSON string
}

// EditScoped implements generation.Editor.
func (g *Generator) EditScoped(ctx context.Context, req generation.EditRequest) (*generation.EditFragment, error) {
	question, err := json.MarshalIndent(req.Question, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode question: %w", err)
	}

	prompt, err := render(g.prompts.edit, editPrompt{
		Scope:        string(req.Scope),
		Language:     languageName(req.Language),
		Architecture: req.Architecture,
		QuestionJSON: string(question),
		OptionID:     req.OptionID,
		TargetType:   string(req.TargetType),
		Instruction:  strings.TrimSpace(req.Instruction),
	})
	if err != nil {
		return nil, err
	}

	var out struct {
		Text     string           `json:"text"`
		Option   *domain.Option   `json:"option"`
		Question *domain.Question `json:"question"`
	}
	if err := g.generateJSON(ctx, "edit_"+string(req.Scope), prompt, &out); err != nil {
		return nil, err
	}
	return &generation.EditFragment{Text: out.Text, Option: out.Option, Question: out.Question}, nil
}

// Translate implements generation.Translator. Languages are translated
// concurrently; the first failure cancels the rest.
func (g *Generator) Translate(ctx context.Context, languages []string, content domain.DraftContent) (map[string]domain.DraftContent, error) {
	source, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode draft content: %w", err)
	}

	var (
		mu  sync.Mutex
		out = make(map[string]domain.DraftContent, len(languages))
	)

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(DefaultTranslationConcurrency)
	for _, lang := range languages {
		eg.Go(func() error {
			prompt, err := render(g.prompts.translate, translatePrompt{Language: lang, ContentJSON: string(source)})
			if err != nil {
				return err
			}

			var translated domain.DraftContent
			if err := g.generateJSON(egCtx, "translate", prompt, &translated); err != nil {
				return fmt.Errorf("translation to %s failed: %w", lang, err)
			}
			aligned, err := alignTranslation(content, translated)
			if err != nil {
				return fmt.Errorf("translation to %s failed: %w", lang, err)
			}

			mu.Lock()
			out[lang] = aligned
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	logger.FromContextOrDefault(ctx, g.logger).Debug("draft translated", "languages", len(out))
	return out, nil
}

// alignTranslation keeps the structure of source and takes only texts from
// translated, so a model cannot change ids, types or correctness.
func alignTranslation(source, translated domain.DraftContent) (domain.DraftContent, error) {
	if len(translated.Questions) != len(source.Questions) {
		return domain.DraftContent{}, fmt.Errorf("%w: expected %d questions, got %d",
			generation.ErrInvalidResponse, len(source.Questions), len(translated.Questions))
	}

	out, err := source.Clone()
	if err != nil {
		return domain.DraftContent{}, err
	}
	for i := range out.Questions {
		q, t := &out.Questions[i], translated.Questions[i]
		if len(t.Options) != len(q.Options) {
			return domain.DraftContent{}, fmt.Errorf("%w: question %d has %d options, expected %d",
				generation.ErrInvalidResponse, i, len(t.Options), len(q.Options))
		}
		if text := strings.TrimSpace(t.Text); text != "" {
			q.Text = text
		}
		if expl := strings.TrimSpace(t.Explanation); expl != "" {
			q.Explanation = expl
		}
		for j := range q.Options {
			if text := strings.TrimSpace(t.Options[j].Text); text != "" {
				q.Options[j].Text = text
			}
		}
	}
	return out, nil
}
