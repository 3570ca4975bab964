package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api/shared"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
)

// TranslationHandler translates a quiz's latest draft on demand.
type TranslationHandler struct {
	translationService service.TranslationService
}

func NewTranslationHandler(translationService service.TranslationService) *TranslationHandler {
	return &TranslationHandler{translationService: translationService}
}

// Translate handles POST /api/quizzes/{id}/translations. An empty body
// translates into the quiz's configured languages.
func (h *TranslationHandler) Translate(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	body, err := shared.ReadBody(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid request format")
		return
	}
	var req TranslateRequest
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			HandleAPIError(w, r, domain.NewValidationError("body", "is not valid JSON", domain.ErrValidation), "Invalid request format")
			return
		}
	}
	if err := shared.ValidateRequest(req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	translations, err := h.translationService.Translate(r.Context(), userID, quizID, req.Languages)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, TranslateResponse{Translations: translations})
}
