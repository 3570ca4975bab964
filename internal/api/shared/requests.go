package shared

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// MaxBodyBytes bounds request bodies.
const MaxBodyBytes = 1 << 20

var validate = validator.New()

// ReadBody reads the request body up to MaxBodyBytes.
func ReadBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		return nil, domain.NewValidationError("body", "could not be read", domain.ErrValidation)
	}
	return body, nil
}

// DecodeJSON decodes the request body into v. Decoding failures are
// reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return domain.NewValidationError("body", "is not valid JSON", domain.ErrValidation)
	}
	return nil
}

// ValidateRequest validates v with its struct tags, or with its own
// Validate method when it has one.
func ValidateRequest(v any) error {
	if val, ok := v.(interface{ Validate() error }); ok {
		return val.Validate()
	}
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Field(), tagMessage(fe.Tag()), domain.ErrValidation)
	}
	return domain.NewValidationError("body", "is invalid", domain.ErrValidation)
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return "is too short or too small"
	case "max":
		return "is too long or too large"
	case "oneof":
		return "has an unsupported value"
	default:
		return "failed validation"
	}
}
