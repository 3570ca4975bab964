package domain

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MinionScope names the kind of scoped edit a minion job performs.
type MinionScope string

// Supported minion scopes.
const (
	ScopeQuestionText  MinionScope = "question_text"
	ScopeSingleOption  MinionScope = "single_option"
	ScopeChangeType    MinionScope = "change_type"
	ScopeAddDistractor MinionScope = "add_distractor"
)

// MinionEditResult is the content fragment a minion job hands back to the
// editor. Only the fields relevant to the scope are set.
type MinionEditResult struct {
	Scope      MinionScope `json:"scope"`
	QuestionID string      `json:"questionId"`
	Text       *string     `json:"text,omitempty"`
	Option     *Option     `json:"option,omitempty"`
	Question   *Question   `json:"question,omitempty"`
}

// MinionHandler executes one scoped edit. It has one method per scope so
// every new scope must be handled by every implementation.
type MinionHandler interface {
	QuestionText(ctx context.Context, edit *QuestionTextEdit) (*MinionEditResult, error)
	SingleOption(ctx context.Context, edit *SingleOptionEdit) (*MinionEditResult, error)
	ChangeType(ctx context.Context, edit *ChangeTypeEdit) (*MinionEditResult, error)
	AddDistractor(ctx context.Context, edit *AddDistractorEdit) (*MinionEditResult, error)
}

// MinionEdit is the tagged union of minion payloads.
type MinionEdit interface {
	Scope() MinionScope
	Validate() error
	Dispatch(ctx context.Context, h MinionHandler) (*MinionEditResult, error)
}

// DecodeMinionEdit decodes the payload for scope.
func DecodeMinionEdit(scope MinionScope, payload json.RawMessage) (MinionEdit, error) {
	var edit MinionEdit
	switch scope {
	case ScopeQuestionText:
		edit = &QuestionTextEdit{}
	case ScopeSingleOption:
		edit = &SingleOptionEdit{}
	case ScopeChangeType:
		edit = &ChangeTypeEdit{}
	case ScopeAddDistractor:
		edit = &AddDistractorEdit{}
	default:
		return nil, NewValidationError("scope", fmt.Sprintf("%q is not supported", scope), ErrValidation)
	}

	if len(payload) == 0 {
		return nil, NewValidationError("payload", "is required", ErrValidation)
	}
	if err := json.Unmarshal(payload, edit); err != nil {
		return nil, NewValidationError("payload", "is malformed", ErrValidation)
	}
	if err := edit.Validate(); err != nil {
		return nil, err
	}
	return edit, nil
}

func validateTarget(q Question) error {
	if strings.TrimSpace(q.ID) == "" {
		return NewValidationError("question.id", "is required", ErrInvalidID)
	}
	if !q.Type.Valid() {
		return NewValidationError("question.type", "is not supported", ErrValidation)
	}
	if strings.TrimSpace(q.Text) == "" {
		return NewValidationError("question.text", "is required", ErrValidation)
	}
	return nil
}

// QuestionTextEdit rewrites the stem of one question.
type QuestionTextEdit struct {
	Question    Question `json:"question"`
	Instruction string   `json:"instruction,omitempty"`
}

func (e *QuestionTextEdit) Scope() MinionScope { return ScopeQuestionText }

func (e *QuestionTextEdit) Validate() error { return validateTarget(e.Question) }

func (e *QuestionTextEdit) Dispatch(ctx context.Context, h MinionHandler) (*MinionEditResult, error) {
	return h.QuestionText(ctx, e)
}

// SingleOptionEdit rewrites the text of one option.
type SingleOptionEdit struct {
	Question    Question `json:"question"`
	OptionID    string   `json:"optionId"`
	Instruction string   `json:"instruction,omitempty"`
}

func (e *SingleOptionEdit) Scope() MinionScope { return ScopeSingleOption }

func (e *SingleOptionEdit) Validate() error {
	if err := validateTarget(e.Question); err != nil {
		return err
	}
	if e.Question.Type == QuestionTrueFalse {
		return NewValidationError("question.type", "true/false options cannot be rewritten", ErrValidation)
	}
	if e.Question.FindOption(e.OptionID) < 0 {
		return fmt.Errorf("%w: %q", ErrOptionNotFound, e.OptionID)
	}
	return nil
}

func (e *SingleOptionEdit) Dispatch(ctx context.Context, h MinionHandler) (*MinionEditResult, error) {
	return h.SingleOption(ctx, e)
}

// Target returns the option being rewritten.
func (e *SingleOptionEdit) Target() Option {
	return e.Question.Options[e.Question.FindOption(e.OptionID)]
}

// ChangeTypeEdit converts a question to another type.
type ChangeTypeEdit struct {
	Question   Question     `json:"question"`
	TargetType QuestionType `json:"targetType"`
}

func (e *ChangeTypeEdit) Scope() MinionScope { return ScopeChangeType }

func (e *ChangeTypeEdit) Validate() error {
	if err := validateTarget(e.Question); err != nil {
		return err
	}
	if !e.TargetType.Valid() {
		return NewValidationError("targetType", "is not supported", ErrValidation)
	}
	return nil
}

func (e *ChangeTypeEdit) Dispatch(ctx context.Context, h MinionHandler) (*MinionEditResult, error) {
	return h.ChangeType(ctx, e)
}

// AddDistractorEdit generates one more incorrect option.
type AddDistractorEdit struct {
	Question    Question `json:"question"`
	Instruction string   `json:"instruction,omitempty"`
}

func (e *AddDistractorEdit) Scope() MinionScope { return ScopeAddDistractor }

func (e *AddDistractorEdit) Validate() error {
	if err := validateTarget(e.Question); err != nil {
		return err
	}
	if e.Question.Type == QuestionTrueFalse || len(e.Question.Options) >= MaxChoiceOptions {
		return fmt.Errorf("%w: question %q", ErrOptionLimit, e.Question.ID)
	}
	return nil
}

func (e *AddDistractorEdit) Dispatch(ctx context.Context, h MinionHandler) (*MinionEditResult, error) {
	return h.AddDistractor(ctx, e)
}
