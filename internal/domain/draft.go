package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

// QuestionType identifies the answer structure of a question.
type QuestionType string

// Supported question types.
const (
	QuestionTrueFalse      QuestionType = "true_false"
	QuestionSingleChoice   QuestionType = "single_choice"
	QuestionMultipleChoice QuestionType = "multiple_choice"
)

// Option bounds for choice questions.
const (
	MinChoiceOptions = 3
	MaxChoiceOptions = 5
)

// Valid reports whether t is a supported question type.
func (t QuestionType) Valid() bool {
	switch t {
	case QuestionTrueFalse, QuestionSingleChoice, QuestionMultipleChoice:
		return true
	default:
		return false
	}
}

// Option is one answer of a question.
type Option struct {
	ID        string `json:"id"                 validate:"omitempty,max=64"`
	Text      string `json:"text"               validate:"required,max=1000"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is one item of a draft.
type Question struct {
	ID          string       `json:"id"                    validate:"omitempty,max=64"`
	Type        QuestionType `json:"type"                  validate:"required,oneof=true_false single_choice multiple_choice"`
	Text        string       `json:"text"                  validate:"required,max=2000"`
	Options     []Option     `json:"options"               validate:"max=5,dive"`
	Explanation string       `json:"explanation,omitempty" validate:"max=4000"`
}

// FindOption returns the index of the option with the given id, or -1.
func (q *Question) FindOption(id string) int {
	for i := range q.Options {
		if q.Options[i].ID == id {
			return i
		}
	}
	return -1
}

// CorrectCount returns how many options are marked correct.
func (q *Question) CorrectCount() int {
	n := 0
	for _, o := range q.Options {
		if o.IsCorrect {
			n++
		}
	}
	return n
}

// DraftContent is the question list stored in a draft snapshot.
type DraftContent struct {
	Questions []Question `json:"questions"`
}

// FindQuestion returns the index of the question with the given id, or -1.
func (c *DraftContent) FindQuestion(id string) int {
	for i := range c.Questions {
		if c.Questions[i].ID == id {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the content.
func (c DraftContent) Clone() (DraftContent, error) {
	var out DraftContent
	if err := copier.CopyWithOption(&out, &c, copier.Option{DeepCopy: true}); err != nil {
		return DraftContent{}, fmt.Errorf("failed to copy draft content: %w", err)
	}
	if out.Questions == nil {
		out.Questions = []Question{}
	}
	return out, nil
}

// Validate checks the structural invariants of the content: every question
// has a unique, non-empty id and a known type, every option id is unique
// within its question, option counts stay within the type's bounds, and
// each type carries its number of correct answers.
func (c DraftContent) Validate() error {
	seen := make(map[string]struct{}, len(c.Questions))
	for i, q := range c.Questions {
		if strings.TrimSpace(q.ID) == "" {
			return NewValidationError(fmt.Sprintf("questions[%d].id", i), "is required", ErrInvalidID)
		}
		if _, dup := seen[q.ID]; dup {
			return fmt.Errorf("%w: question %q", ErrDuplicateID, q.ID)
		}
		seen[q.ID] = struct{}{}

		if !q.Type.Valid() {
			return NewValidationError(fmt.Sprintf("questions[%d].type", i), "is not supported", ErrValidation)
		}
		if strings.TrimSpace(q.Text) == "" {
			return NewValidationError(fmt.Sprintf("questions[%d].text", i), "is required", ErrValidation)
		}

		switch q.Type {
		case QuestionTrueFalse:
			if len(q.Options) != 2 {
				return fmt.Errorf("%w: true_false question %q must have 2 options", ErrOptionLimit, q.ID)
			}
		default:
			if len(q.Options) < MinChoiceOptions || len(q.Options) > MaxChoiceOptions {
				return fmt.Errorf("%w: question %q has %d options", ErrOptionLimit, q.ID, len(q.Options))
			}
		}
		if err := validateCorrectCount(i, q); err != nil {
			return err
		}

		optionIDs := make(map[string]struct{}, len(q.Options))
		for j, o := range q.Options {
			if strings.TrimSpace(o.ID) == "" {
				return NewValidationError(fmt.Sprintf("questions[%d].options[%d].id", i, j), "is required", ErrInvalidID)
			}
			if _, dup := optionIDs[o.ID]; dup {
				return fmt.Errorf("%w: option %q in question %q", ErrDuplicateID, o.ID, q.ID)
			}
			optionIDs[o.ID] = struct{}{}
		}
	}
	return nil
}

func validateCorrectCount(i int, q Question) error {
	field := fmt.Sprintf("questions[%d].options", i)
	n := q.CorrectCount()
	switch q.Type {
	case QuestionMultipleChoice:
		if n < 2 {
			return NewValidationError(field, "must have at least two correct answers", ErrValidation)
		}
	default:
		if n != 1 {
			return NewValidationError(field, "must have exactly one correct answer", ErrValidation)
		}
	}
	return nil
}

// AssignMissingIDs mints ids for questions and options that have none or
// that collide with an earlier sibling.
func (c *DraftContent) AssignMissingIDs() {
	seen := make(map[string]struct{}, len(c.Questions))
	for i := range c.Questions {
		q := &c.Questions[i]
		if _, dup := seen[q.ID]; strings.TrimSpace(q.ID) == "" || dup {
			q.ID = NewQuestionID()
		}
		seen[q.ID] = struct{}{}
		assignOptionIDs(q)
	}
}

func assignOptionIDs(q *Question) {
	seen := make(map[string]struct{}, len(q.Options))
	for j := range q.Options {
		o := &q.Options[j]
		if _, dup := seen[o.ID]; strings.TrimSpace(o.ID) == "" || dup {
			o.ID = NewOptionID()
		}
		seen[o.ID] = struct{}{}
	}
}

// NewQuestionID mints a server-side question id.
func NewQuestionID() string {
	return "q_" + uuid.NewString()
}

// NewOptionID mints a server-side option id.
func NewOptionID() string {
	return "o_" + uuid.NewString()
}

// Draft is an immutable snapshot of quiz content. Every mutation inserts a
// new Draft; the latest one by creation time is the current content.
type Draft struct {
	ID        uuid.UUID    `json:"id"`
	QuizID    uuid.UUID    `json:"quizId"`
	Content   DraftContent `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
}

// NewDraft validates content and wraps it in a new snapshot.
func NewDraft(quizID uuid.UUID, content DraftContent) (*Draft, error) {
	if quizID == uuid.Nil {
		return nil, NewValidationError("quizId", "is required", ErrInvalidID)
	}
	if content.Questions == nil {
		content.Questions = []Question{}
	}
	if err := content.Validate(); err != nil {
		return nil, err
	}

	return &Draft{
		ID:        uuid.New(),
		QuizID:    quizID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}, nil
}
