package generation

import (
	"context"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// ArchitectureRequest is the input of the design stage.
type ArchitectureRequest struct {
	QuizID uuid.UUID
	UserID uuid.UUID
	Params domain.GenerationParams
}

// Architect produces the architecture text that the build stage expands
// into questions. Implementations return ErrRetrievalFailed when documents
// were supplied but could not be retrieved.
type Architect interface {
	DesignArchitecture(ctx context.Context, req ArchitectureRequest) (string, error)
}

// BuildRequest is the input of the build stage.
type BuildRequest struct {
	QuizID       uuid.UUID
	Architecture string
	Params       domain.GenerationParams
	DocumentIDs  []uuid.UUID
}

// Builder turns an architecture into draft content.
type Builder interface {
	BuildQuestions(ctx context.Context, req BuildRequest) (*domain.DraftContent, error)
}

// EditRequest describes one scoped rewrite.
type EditRequest struct {
	Scope        domain.MinionScope
	Question     domain.Question
	OptionID     string
	TargetType   domain.QuestionType
	Instruction  string
	Architecture string
	Language     string
}

// EditFragment is the raw output of a scoped rewrite. Which field is set
// depends on the scope; workers validate and normalize it before use.
type EditFragment struct {
	Text     string
	Option   *domain.Option
	Question *domain.Question
}

// Editor rewrites one piece of a question.
type Editor interface {
	EditScoped(ctx context.Context, req EditRequest) (*EditFragment, error)
}

// Translator translates draft content into each requested language.
type Translator interface {
	Translate(ctx context.Context, languages []string, content domain.DraftContent) (map[string]domain.DraftContent, error)
}

// DocumentRetriever returns text passages from the user's documents that are
// relevant to query.
type DocumentRetriever interface {
	RetrieveContext(ctx context.Context, userID uuid.UUID, documentIDs []uuid.UUID, query string, limit int) ([]string, error)
}
