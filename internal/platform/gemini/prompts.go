package gemini

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

const systemInstruction = `You write assessment content for teachers. Always answer with a single JSON document that matches the requested shape and nothing else.`

const architectTemplate = `Design the blueprint of a quiz.

Topic: {{.Params.Topic}}
Number of questions: {{.Params.QuestionCount}}
Difficulty: {{.Params.Difficulty}}
{{- if .Params.QuestionTypes}}
Allowed question types: {{join .Params.QuestionTypes}}
{{- else}}
Allowed question types: true_false, single_choice, multiple_choice
{{- end}}
Language: {{.Language}}
{{- if .Params.AdditionalInstructions}}
Additional instructions: {{.Params.AdditionalInstructions}}
{{- end}}
{{- if .Context}}

Ground every question in the following source passages. Do not introduce facts they do not support.
{{- range $i, $c := .Context}}
[{{inc $i}}] {{$c}}
{{- end}}
{{- end}}

For each question give its type, the concept it tests and the expected correct answer.
Answer as {"architecture": "<the blueprint as plain text>"}.`

const builderTemplate = `Write the questions of a quiz from its blueprint.

Blueprint:
{{.Architecture}}

Write exactly {{.Params.QuestionCount}} questions at {{.Params.Difficulty}} difficulty in {{.Language}}.
Rules:
- true_false questions have the options "True" and "False" with exactly one correct.
- single_choice questions have 3 to 5 options with exactly one correct.
- multiple_choice questions have 3 to 5 options with at least two correct.
{{- if .Params.AdditionalInstructions}}
- {{.Params.AdditionalInstructions}}
{{- end}}

Answer as {"questions": [{"type": "...", "text": "...", "options": [{"text": "...", "isCorrect": true}], "explanation": "..."}]}.`

const editTemplate = `Revise one part of a quiz question written in {{.Language}}.
{{- if .Architecture}}

Quiz blueprint for context:
{{.Architecture}}
{{- end}}

Current question:
{{.QuestionJSON}}

{{if eq .Scope "question_text" -}}
Rewrite only the question text.{{if .Instruction}} Instruction: {{.Instruction}}{{end}}
Answer as {"text": "..."}.
{{- else if eq .Scope "single_option" -}}
Rewrite only the option with id "{{.OptionID}}". Keep whether it is correct.{{if .Instruction}} Instruction: {{.Instruction}}{{end}}
Answer as {"option": {"text": "..."}}.
{{- else if eq .Scope "change_type" -}}
Convert the question to the {{.TargetType}} type, keeping its subject.
Answer as {"question": {"type": "{{.TargetType}}", "text": "...", "options": [{"text": "...", "isCorrect": true}], "explanation": "..."}}.
{{- else -}}
Write one new plausible but incorrect option that differs from every existing option.
Answer as {"option": {"text": "..."}}.
{{- end}}`

const translateTemplate = `Translate the quiz below into {{.Language}}.
Keep every "id", "type" and "isCorrect" value unchanged and keep the order of questions and options. Translate only "text" and "explanation".

Quiz:
{{.ContentJSON}}

Answer with the translated quiz in the same shape: {"questions": [...]}.`

type prompts struct {
	architect *template.Template
	builder   *template.Template
	edit      *template.Template
	translate *template.Template
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"join": func(types []domain.QuestionType) string {
		parts := make([]string, len(types))
		for i, t := range types {
			parts[i] = string(t)
		}
		return strings.Join(parts, ", ")
	},
}

func loadPrompts() (*prompts, error) {
	parse := func(name, text string) (*template.Template, error) {
		t, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s prompt template: %w", name, err)
		}
		return t, nil
	}

	var (
		p   prompts
		err error
	)
	if p.architect, err = parse("architect", architectTemplate); err != nil {
		return nil, err
	}
	if p.builder, err = parse("builder", builderTemplate); err != nil {
		return nil, err
	}
	if p.edit, err = parse("edit", editTemplate); err != nil {
		return nil, err
	}
	if p.translate, err = parse("translate", translateTemplate); err != nil {
		return nil, err
	}
	return &p, nil
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute %s prompt template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// languageName falls back to English when no language was requested.
func languageName(code string) string {
	if code == "" {
		return "en"
	}
	return code
}
