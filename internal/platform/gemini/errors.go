package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
)

// ErrEmptyResponse is returned when a candidate carries no text.
var ErrEmptyResponse = fmt.Errorf("%w: empty response", generation.ErrInvalidResponse)

// mapAPIError translates a provider error into the generation taxonomy.
func mapAPIError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	code, message, ok := apiErrorDetails(err)
	if !ok {
		return fmt.Errorf("%w: %w", generation.ErrTransientFailure, err)
	}

	switch {
	case code == http.StatusUnauthorized || code == http.StatusForbidden || code == http.StatusNotFound:
		return fmt.Errorf("%w: provider returned %d", generation.ErrInvalidConfig, code)
	case code == http.StatusTooManyRequests && strings.Contains(strings.ToLower(message), "quota"):
		return fmt.Errorf("%w: provider returned %d", generation.ErrQuotaExceeded, code)
	case code == http.StatusBadRequest && strings.Contains(strings.ToLower(message), "api key"):
		return fmt.Errorf("%w: provider rejected the api key", generation.ErrInvalidConfig)
	case code == http.StatusBadRequest:
		return fmt.Errorf("%w: provider rejected the request: %s", generation.ErrUnrecoverable, message)
	default:
		return fmt.Errorf("%w: provider returned %d: %w", generation.ErrTransientFailure, code, err)
	}
}

func apiErrorDetails(err error) (int, string, bool) {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code, apiErr.Message, true
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return apiErrPtr.Code, apiErrPtr.Message, true
	}
	return 0, "", false
}

// responseText returns the concatenated text of the first candidate, or an
// error when the response was blocked or is empty.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked (%s)", generation.ErrContentBlocked, resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", ErrEmptyResponse
	}

	cand := resp.Candidates[0]
	switch cand.FinishReason {
	case genai.FinishReasonSafety, genai.FinishReasonProhibitedContent, genai.FinishReasonBlocklist:
		return "", fmt.Errorf("%w: finish reason %s", generation.ErrContentBlocked, cand.FinishReason)
	}
	if cand.Content == nil {
		return "", ErrEmptyResponse
	}

	var b strings.Builder
	for _, part := range cand.Content.Parts {
		if part != nil && !part.Thought {
			b.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}
