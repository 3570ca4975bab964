package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Difficulty is the requested difficulty of a generated quiz.
type Difficulty string

// Supported difficulties.
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// DefaultLanguage is used when a quiz is created without one.
const DefaultLanguage = "en"

// Limits applied to generation parameters.
const (
	MinQuestionCount = 1
	MaxQuestionCount = 50
)

// GenerationParams are the user-supplied inputs of a generation job.
type GenerationParams struct {
	Topic                  string         `json:"topic"                            validate:"required,min=2,max=200"`
	QuestionCount          int            `json:"questionCount"                    validate:"required,min=1,max=50"`
	Difficulty             Difficulty     `json:"difficulty"                       validate:"required,oneof=easy medium hard"`
	QuestionTypes          []QuestionType `json:"questionTypes,omitempty"          validate:"omitempty,dive,oneof=true_false single_choice multiple_choice"`
	DefaultLanguage        string         `json:"defaultLanguage,omitempty"        validate:"omitempty,min=2,max=12"`
	Languages              []string       `json:"languages,omitempty"              validate:"omitempty,max=20,dive,min=2,max=12"`
	AdditionalInstructions string         `json:"additionalInstructions,omitempty" validate:"max=2000"`
	DocumentIDs            []uuid.UUID    `json:"documentIds,omitempty"            validate:"omitempty,max=20"`
}

// Normalize fills defaults and trims free text.
func (p *GenerationParams) Normalize() {
	p.Topic = strings.TrimSpace(p.Topic)
	p.AdditionalInstructions = strings.TrimSpace(p.AdditionalInstructions)
	p.DefaultLanguage = strings.ToLower(strings.TrimSpace(p.DefaultLanguage))
	if p.DefaultLanguage == "" {
		p.DefaultLanguage = DefaultLanguage
	}
	if len(p.QuestionTypes) == 0 {
		p.QuestionTypes = []QuestionType{QuestionSingleChoice, QuestionMultipleChoice, QuestionTrueFalse}
	}
}

// HasDocuments reports whether the quiz should be grounded on uploaded documents.
func (p GenerationParams) HasDocuments() bool {
	return len(p.DocumentIDs) > 0
}

// Validate checks the parameters without relying on struct tags so that
// workers can re-check payloads read back from a queue.
func (p GenerationParams) Validate() error {
	if len(p.Topic) < 2 {
		return NewValidationError("topic", "is required", ErrValidation)
	}
	if p.QuestionCount < MinQuestionCount || p.QuestionCount > MaxQuestionCount {
		return NewValidationError("questionCount", "is out of range", ErrValidation)
	}
	switch p.Difficulty {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
	default:
		return NewValidationError("difficulty", "is not supported", ErrValidation)
	}
	for _, qt := range p.QuestionTypes {
		if !qt.Valid() {
			return NewValidationError("questionTypes", "contains an unsupported type", ErrValidation)
		}
	}
	return nil
}

// Quiz is the aggregate root of a generated quiz.
type Quiz struct {
	ID           uuid.UUID        `json:"id"`
	UserID       uuid.UUID        `json:"userId"`
	Params       GenerationParams `json:"params"`
	Status       QuizStatus       `json:"status"`
	ErrorMessage *string          `json:"errorMessage,omitempty"`
	Architecture *string          `json:"-"`
	CreatedAt    time.Time        `json:"createdAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

// NewQuiz creates a queued quiz for the given user.
func NewQuiz(userID uuid.UUID, params GenerationParams) (*Quiz, error) {
	if userID == uuid.Nil {
		return nil, NewValidationError("userId", "is required", ErrInvalidID)
	}

	params.Normalize()
	if err := params.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Quiz{
		ID:        uuid.New(),
		UserID:    userID,
		Params:    params,
		Status:    StatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Validate checks that the quiz is internally consistent.
func (q *Quiz) Validate() error {
	if q.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrInvalidID)
	}
	if q.UserID == uuid.Nil {
		return NewValidationError("userId", "is required", ErrInvalidID)
	}
	if !q.Status.Valid() {
		return NewValidationError("status", "is not a known status", ErrValidation)
	}
	return q.Params.Validate()
}

// HasArchitecture reports whether the design stage output has been persisted.
func (q *Quiz) HasArchitecture() bool {
	return q.Architecture != nil && strings.TrimSpace(*q.Architecture) != ""
}

// IsOwnedBy reports whether userID owns the quiz.
func (q *Quiz) IsOwnedBy(userID uuid.UUID) bool {
	return q.UserID == userID
}
