package generation

import (
	"context"
	"errors"
	"fmt"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
)

// Common errors returned by generation capabilities.
var (
	// ErrUnrecoverable is the parent of every error that retrying cannot fix.
	ErrUnrecoverable = errors.New("unrecoverable generation error")

	// ErrInvalidConfig is returned when credentials or model configuration are rejected.
	ErrInvalidConfig = fmt.Errorf("%w: invalid generator configuration", ErrUnrecoverable)

	// ErrQuotaExceeded is returned when the provider quota is exhausted.
	ErrQuotaExceeded = fmt.Errorf("%w: quota exhausted", ErrUnrecoverable)

	// ErrContentBlocked is returned when the provider blocks the request on policy grounds.
	ErrContentBlocked = fmt.Errorf("%w: content blocked by safety policy", ErrUnrecoverable)

	// ErrRetrievalFailed is returned by the design stage when supplied documents
	// could not be retrieved.
	ErrRetrievalFailed = fmt.Errorf("%w: RETRIEVAL_FAILED", ErrUnrecoverable)

	// ErrGenerationFailed is returned when generation fails for any general reason.
	ErrGenerationFailed = errors.New("generation failed")

	// ErrInvalidResponse is returned when a model response cannot be parsed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrTransientFailure is returned for errors that may resolve on retry,
	// such as rate limiting or provider outages.
	ErrTransientFailure = errors.New("transient generation failure")
)

// Kind is the error taxonomy used to decide retries and user messaging.
type Kind int

// Error kinds.
const (
	KindTransient Kind = iota
	KindUnrecoverable
	KindValidation
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindUnrecoverable:
		return "unrecoverable"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	default:
		return "transient"
	}
}

// Classify maps an error onto the taxonomy. Anything not recognised is
// treated as transient.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return KindTransient
	case errors.Is(err, ErrUnrecoverable):
		return KindUnrecoverable
	case errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrOptionNotFound),
		store.IsNotFoundError(err):
		return KindNotFound
	case errors.Is(err, domain.ErrValidation):
		return KindValidation
	default:
		return KindTransient
	}
}

// IsUnrecoverable reports whether retrying err is pointless.
func IsUnrecoverable(err error) bool {
	return errors.Is(err, ErrUnrecoverable)
}

// IsTimeout reports whether err came from an expired deadline.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded)
}
