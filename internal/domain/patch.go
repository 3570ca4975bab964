package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// PatchOp names a draft patch operation.
type PatchOp string

// Supported draft patch operations.
const (
	OpUpdateQuestion   PatchOp = "update_question"
	OpUpdateOption     PatchOp = "update_option"
	OpAddQuestion      PatchOp = "add_question"
	OpDeleteQuestion   PatchOp = "delete_question"
	OpReorderQuestions PatchOp = "reorder_questions"
	OpReplaceOption    PatchOp = "replace_option"
	OpAddOption        PatchOp = "add_option"
)

// Patch is a pure transformation of draft content. Apply mutates the content
// it is given, so callers pass a copy of the current draft.
type Patch interface {
	Op() PatchOp
	Apply(content *DraftContent) error
}

// DecodePatch reads the "op" discriminator and decodes the operation fields.
func DecodePatch(data []byte) (Patch, error) {
	var head struct {
		Op PatchOp `json:"op"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, NewValidationError("body", "is not valid JSON", ErrValidation)
	}

	var p Patch
	switch head.Op {
	case OpUpdateQuestion:
		p = &UpdateQuestionPatch{}
	case OpUpdateOption:
		p = &UpdateOptionPatch{}
	case OpAddQuestion:
		p = &AddQuestionPatch{}
	case OpDeleteQuestion:
		p = &DeleteQuestionPatch{}
	case OpReorderQuestions:
		p = &ReorderQuestionsPatch{}
	case OpReplaceOption:
		p = &ReplaceOptionPatch{}
	case OpAddOption:
		p = &AddOptionPatch{}
	case "":
		return nil, NewValidationError("op", "is required", ErrValidation)
	default:
		return nil, NewValidationError("op", fmt.Sprintf("%q is not supported", head.Op), ErrValidation)
	}

	if err := json.Unmarshal(data, p); err != nil {
		return nil, NewValidationError(string(head.Op), "has malformed fields", ErrValidation)
	}
	return p, nil
}

// UpdateQuestionPatch changes the text, type or explanation of one question.
type UpdateQuestionPatch struct {
	QuestionID  string        `json:"questionId"            validate:"required,max=64"`
	Text        *string       `json:"text,omitempty"        validate:"omitempty,min=1,max=2000"`
	Type        *QuestionType `json:"type,omitempty"        validate:"omitempty,oneof=true_false single_choice multiple_choice"`
	Explanation *string       `json:"explanation,omitempty" validate:"omitempty,max=4000"`
}

func (p *UpdateQuestionPatch) Op() PatchOp { return OpUpdateQuestion }

func (p *UpdateQuestionPatch) Apply(c *DraftContent) error {
	if p.Text == nil && p.Type == nil && p.Explanation == nil {
		return NewValidationError(string(OpUpdateQuestion), "has nothing to update", ErrValidation)
	}
	q, err := questionAt(c, p.QuestionID)
	if err != nil {
		return err
	}

	if p.Text != nil {
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return NewValidationError("text", "cannot be blank", ErrValidation)
		}
		q.Text = text
	}
	if p.Explanation != nil {
		q.Explanation = strings.TrimSpace(*p.Explanation)
	}
	if p.Type != nil && *p.Type != q.Type {
		if !p.Type.Valid() {
			return NewValidationError("type", "is not supported", ErrValidation)
		}
		prior := *q
		q.Type = *p.Type
		*q = EnforceQuestionInvariants(*q, &prior)
	}
	return nil
}

// UpdateOptionPatch changes the text or correctness of one option.
type UpdateOptionPatch struct {
	QuestionID string  `json:"questionId"          validate:"required,max=64"`
	OptionID   string  `json:"optionId"            validate:"required,max=64"`
	Text       *string `json:"text,omitempty"      validate:"omitempty,min=1,max=1000"`
	IsCorrect  *bool   `json:"isCorrect,omitempty"`
}

func (p *UpdateOptionPatch) Op() PatchOp { return OpUpdateOption }

func (p *UpdateOptionPatch) Apply(c *DraftContent) error {
	if p.Text == nil && p.IsCorrect == nil {
		return NewValidationError(string(OpUpdateOption), "has nothing to update", ErrValidation)
	}
	q, err := questionAt(c, p.QuestionID)
	if err != nil {
		return err
	}
	idx := q.FindOption(p.OptionID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrOptionNotFound, p.OptionID)
	}

	if p.Text != nil {
		if q.Type == QuestionTrueFalse {
			return NewValidationError("text", "of a true/false option cannot change", ErrValidation)
		}
		text := strings.TrimSpace(*p.Text)
		if text == "" {
			return NewValidationError("text", "cannot be blank", ErrValidation)
		}
		q.Options[idx].Text = text
	}
	if p.IsCorrect != nil {
		setCorrect(q, idx, *p.IsCorrect)
	}
	return nil
}

// AddQuestionPatch inserts a new question. Any ids supplied by the caller
// are replaced with server-minted ones.
type AddQuestionPatch struct {
	Question Question `json:"question"`
	Position *int     `json:"position,omitempty" validate:"omitempty,min=0"`
}

func (p *AddQuestionPatch) Op() PatchOp { return OpAddQuestion }

func (p *AddQuestionPatch) Apply(c *DraftContent) error {
	if !p.Question.Type.Valid() {
		return NewValidationError("question.type", "is not supported", ErrValidation)
	}
	if strings.TrimSpace(p.Question.Text) == "" {
		return NewValidationError("question.text", "is required", ErrValidation)
	}

	q := p.Question
	q.Options = make([]Option, len(p.Question.Options))
	for i, o := range p.Question.Options {
		o.ID = ""
		q.Options[i] = o
	}
	q = EnforceQuestionInvariants(q, nil)
	q.ID = NewQuestionID()

	pos := len(c.Questions)
	if p.Position != nil && *p.Position < pos {
		pos = *p.Position
	}
	c.Questions = append(c.Questions, Question{})
	copy(c.Questions[pos+1:], c.Questions[pos:])
	c.Questions[pos] = q
	return nil
}

// DeleteQuestionPatch removes one question.
type DeleteQuestionPatch struct {
	QuestionID string `json:"questionId" validate:"required,max=64"`
}

func (p *DeleteQuestionPatch) Op() PatchOp { return OpDeleteQuestion }

func (p *DeleteQuestionPatch) Apply(c *DraftContent) error {
	idx := c.FindQuestion(p.QuestionID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrQuestionNotFound, p.QuestionID)
	}
	c.Questions = append(c.Questions[:idx], c.Questions[idx+1:]...)
	return nil
}

// ReorderQuestionsPatch sets the question order. Ids that are not in the
// draft are dropped, and questions missing from Order keep their relative
// order after the listed ones.
type ReorderQuestionsPatch struct {
	Order []string `json:"order" validate:"required,min=1,max=200,dive,required,max=64"`
}

func (p *ReorderQuestionsPatch) Op() PatchOp { return OpReorderQuestions }

func (p *ReorderQuestionsPatch) Apply(c *DraftContent) error {
	byID := make(map[string]Question, len(c.Questions))
	for _, q := range c.Questions {
		byID[q.ID] = q
	}

	placed := make(map[string]struct{}, len(c.Questions))
	ordered := make([]Question, 0, len(c.Questions))
	for _, id := range p.Order {
		q, ok := byID[id]
		if !ok {
			continue
		}
		if _, dup := placed[id]; dup {
			continue
		}
		placed[id] = struct{}{}
		ordered = append(ordered, q)
	}
	for _, q := range c.Questions {
		if _, ok := placed[q.ID]; !ok {
			ordered = append(ordered, q)
		}
	}

	c.Questions = ordered
	return nil
}

// ReplaceOptionPatch replaces the content of one option while keeping its id.
type ReplaceOptionPatch struct {
	QuestionID string `json:"questionId" validate:"required,max=64"`
	OptionID   string `json:"optionId"   validate:"required,max=64"`
	Option     Option `json:"option"`
}

func (p *ReplaceOptionPatch) Op() PatchOp { return OpReplaceOption }

func (p *ReplaceOptionPatch) Apply(c *DraftContent) error {
	q, err := questionAt(c, p.QuestionID)
	if err != nil {
		return err
	}
	if q.Type == QuestionTrueFalse {
		return NewValidationError(string(OpReplaceOption), "is not allowed on true/false questions", ErrValidation)
	}
	idx := q.FindOption(p.OptionID)
	if idx < 0 {
		return fmt.Errorf("%w: %q", ErrOptionNotFound, p.OptionID)
	}
	text := strings.TrimSpace(p.Option.Text)
	if text == "" {
		return NewValidationError("option.text", "is required", ErrValidation)
	}

	q.Options[idx].Text = text
	setCorrect(q, idx, p.Option.IsCorrect)
	return nil
}

// AddOptionPatch appends an option with a server-minted id.
type AddOptionPatch struct {
	QuestionID string `json:"questionId" validate:"required,max=64"`
	Option     Option `json:"option"`
}

func (p *AddOptionPatch) Op() PatchOp { return OpAddOption }

func (p *AddOptionPatch) Apply(c *DraftContent) error {
	q, err := questionAt(c, p.QuestionID)
	if err != nil {
		return err
	}
	if q.Type == QuestionTrueFalse || len(q.Options) >= MaxChoiceOptions {
		return fmt.Errorf("%w: question %q", ErrOptionLimit, q.ID)
	}
	text := strings.TrimSpace(p.Option.Text)
	if text == "" {
		return NewValidationError("option.text", "is required", ErrValidation)
	}

	q.Options = append(q.Options, Option{ID: NewOptionID(), Text: text})
	setCorrect(q, len(q.Options)-1, p.Option.IsCorrect)
	return nil
}

func questionAt(c *DraftContent, id string) (*Question, error) {
	idx := c.FindQuestion(id)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrQuestionNotFound, id)
	}
	return &c.Questions[idx], nil
}

// setCorrect marks one option. Single-answer types behave like radio buttons.
func setCorrect(q *Question, idx int, correct bool) {
	if correct && q.Type != QuestionMultipleChoice {
		for i := range q.Options {
			q.Options[i].IsCorrect = false
		}
	}
	q.Options[idx].IsCorrect = correct
	if q.Type == QuestionTrueFalse && len(q.Options) == 2 {
		q.Options[1-idx].IsCorrect = !correct
	}
}
