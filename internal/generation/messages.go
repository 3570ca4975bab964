package generation

import (
	"errors"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// User-safe messages. These are the only error strings ever persisted on a
// quiz or published to observers.
const (
	MsgRetrievalFailed   = "We couldn't retrieve the documents attached to this quiz. Please re-upload them or try again without documents."
	MsgServiceConfig     = "The quiz generator is temporarily unavailable. Please contact support if this keeps happening."
	MsgQuotaExceeded     = "The quiz generator has reached its usage limit. Please try again later."
	MsgContentBlocked    = "This request was blocked by the content policy. Please adjust the topic or instructions."
	MsgTimedOut          = "Generation took too long and was stopped. Please try again."
	MsgNotFound          = "The quiz or question could not be found."
	MsgInvalidRequest    = "The request was invalid. Please check your input and try again."
	MsgGenerationFailed  = "Something went wrong while generating your quiz. Please try again."
	MsgEditFailed        = "The edit could not be completed. Please try again."
	MsgOptionLimit       = "This question already has the maximum number of options."
	MsgResultTimedOut    = "The edit is taking longer than expected. Please try again."
	MsgTranslationFailed = "The translation could not be completed. Please try again."
)

// UserMessage returns the sanitized message for a failed generation job.
// hasDocuments tells whether the quiz was grounded on uploaded documents,
// since a retrieval failure without documents is reported generically.
func UserMessage(err error, hasDocuments bool) string {
	switch {
	case errors.Is(err, ErrRetrievalFailed):
		if hasDocuments {
			return MsgRetrievalFailed
		}
		return MsgGenerationFailed
	case errors.Is(err, ErrInvalidConfig):
		return MsgServiceConfig
	case errors.Is(err, ErrQuotaExceeded):
		return MsgQuotaExceeded
	case errors.Is(err, ErrContentBlocked):
		return MsgContentBlocked
	case IsTimeout(err):
		return MsgTimedOut
	}

	switch Classify(err) {
	case KindNotFound:
		return MsgNotFound
	case KindValidation:
		return MsgInvalidRequest
	default:
		return MsgGenerationFailed
	}
}

// EditMessage returns the sanitized message for a failed minion edit.
func EditMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrOptionLimit):
		return MsgOptionLimit
	case errors.Is(err, ErrInvalidConfig):
		return MsgServiceConfig
	case errors.Is(err, ErrQuotaExceeded):
		return MsgQuotaExceeded
	case errors.Is(err, ErrContentBlocked):
		return MsgContentBlocked
	case IsTimeout(err):
		return MsgResultTimedOut
	}

	switch Classify(err) {
	case KindNotFound:
		return MsgNotFound
	case KindValidation:
		return MsgInvalidRequest
	default:
		return MsgEditFailed
	}
}
