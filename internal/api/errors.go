package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api/shared"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service/auth"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal error types to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound):
		return http.StatusNotFound

	// Conflicts are checked before validation: an illegal transition is
	// also a validation error.
	case errors.Is(err, domain.ErrIllegalTransition),
		errors.Is(err, service.ErrNotEditable),
		errors.Is(err, service.ErrNotRegenerable),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	case errors.Is(err, generation.ErrQuotaExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, generation.ErrContentBlocked):
		return http.StatusUnprocessableEntity
	case errors.Is(err, generation.ErrInvalidConfig):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidResponse):
		return http.StatusBadGateway

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a user-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var verr *domain.ValidationError
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Authentication required"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this quiz"

	case errors.Is(err, store.ErrQuizNotFound):
		return "Quiz not found"
	case errors.Is(err, store.ErrDraftNotFound):
		return "Draft not found"
	case errors.Is(err, domain.ErrQuestionNotFound):
		return "Question not found"
	case errors.Is(err, domain.ErrOptionNotFound):
		return "Option not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, domain.ErrIllegalTransition):
		return "The quiz cannot change to that status"
	case errors.Is(err, service.ErrNotEditable):
		return "The quiz draft cannot be edited right now"
	case errors.Is(err, service.ErrNotRegenerable):
		return "The quiz draft cannot be regenerated right now"

	case errors.Is(err, domain.ErrOptionLimit):
		return generation.MsgOptionLimit
	case errors.As(err, &verr):
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	case errors.Is(err, domain.ErrValidation):
		return "Validation error"

	case errors.Is(err, generation.ErrQuotaExceeded):
		return generation.MsgQuotaExceeded
	case errors.Is(err, generation.ErrContentBlocked):
		return generation.MsgContentBlocked
	case errors.Is(err, generation.ErrInvalidConfig):
		return generation.MsgServiceConfig
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, generation.ErrTransientFailure),
		errors.Is(err, generation.ErrInvalidResponse):
		return generation.MsgTranslationFailed

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the mapped status and sanitized message for err.
// A non-empty message replaces the default one.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, message string) {
	status := MapErrorToStatusCode(err)
	if message == "" {
		message = GetSafeErrorMessage(err)
	}
	shared.RespondWithErrorAndLog(w, r, status, message, err)
}
