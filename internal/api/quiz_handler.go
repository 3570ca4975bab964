package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api/shared"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/stream"
)

// StatusStreamer follows one quiz's generation status.
type StatusStreamer interface {
	Stream(ctx context.Context, quizID uuid.UUID, em stream.Emitter) error
}

// QuizHandler handles quiz lifecycle requests.
type QuizHandler struct {
	quizService service.QuizService
	statuses    StatusStreamer
}

// NewQuizHandler creates a new QuizHandler.
func NewQuizHandler(quizService service.QuizService, statuses StatusStreamer) *QuizHandler {
	return &QuizHandler{quizService: quizService, statuses: statuses}
}

// CreateQuiz handles POST /api/quizzes. Generation runs in the background,
// so the response is 202 with the queued quiz and its job id.
func (h *QuizHandler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateQuizRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "Invalid request format")
		return
	}

	quiz, jobID, err := h.quizService.CreateQuiz(r.Context(), userID, req.GenerationParams)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, CreateQuizResponse{
		Quiz:  quizToResponse(quiz),
		JobID: jobID,
	})
}

// ListQuizzes handles GET /api/quizzes?limit=&offset=.
func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit", service.DefaultListLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	switch {
	case limit == 0:
		limit = service.DefaultListLimit
	case limit > service.MaxListLimit:
		limit = service.MaxListLimit
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	quizzes, err := h.quizService.ListQuizzes(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := QuizListResponse{Quizzes: make([]QuizResponse, 0, len(quizzes)), Limit: limit, Offset: offset}
	for _, q := range quizzes {
		resp.Quizzes = append(resp.Quizzes, quizToResponse(q))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetQuiz handles GET /api/quizzes/{id}.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.GetQuiz(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, quizToResponse(quiz))
}

// DeleteQuiz handles DELETE /api/quizzes/{id}.
func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if err := h.quizService.DeleteQuiz(r.Context(), userID, quizID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PublishQuiz handles POST /api/quizzes/{id}/publish.
func (h *QuizHandler) PublishQuiz(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.PublishQuiz(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, quizToResponse(quiz))
}

// ArchiveQuiz handles POST /api/quizzes/{id}/archive.
func (h *QuizHandler) ArchiveQuiz(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	quiz, err := h.quizService.ArchiveQuiz(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, quizToResponse(quiz))
}

// StreamStatus handles GET /api/quizzes/{id}/status/stream. Ownership is
// checked before the event stream opens so failures still get a JSON error.
func (h *QuizHandler) StreamStatus(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	if _, err := h.quizService.GetQuiz(r.Context(), userID, quizID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		HandleAPIError(w, r, err, "Streaming is not supported")
		return
	}

	if err := h.statuses.Stream(r.Context(), quizID, sse); err != nil {
		logger.FromContext(r.Context()).Warn("status stream ended with error",
			slog.String("quiz_id", quizID.String()),
			slog.String("error", redact.Error(err)))
	}
}
