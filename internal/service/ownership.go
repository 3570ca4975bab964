package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// validate checks request and patch structs against their tags.
var validate = validator.New()

// QuizReader loads quizzes by id.
type QuizReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Quiz, error)
}

// loadOwnedQuiz returns the quiz when userID owns it.
func loadOwnedQuiz(ctx context.Context, quizzes QuizReader, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	if quizID == uuid.Nil {
		return nil, domain.NewValidationError("quizId", "is required", domain.ErrInvalidID)
	}
	quiz, err := quizzes.GetByID(ctx, quizID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return nil, store.ErrQuizNotFound
		}
		return nil, fmt.Errorf("failed to load quiz: %w", err)
	}
	if !quiz.IsOwnedBy(userID) {
		return nil, ErrNotOwned
	}
	return quiz, nil
}

// structError turns a validator failure into a domain validation error
// naming the first offending field.
func structError(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Namespace(), fmt.Sprintf("failed the %q rule", fe.Tag()), domain.ErrValidation)
	}
	return domain.NewValidationError("body", "is invalid", domain.ErrValidation)
}
