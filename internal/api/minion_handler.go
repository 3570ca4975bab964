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

// ResultStreamer waits for the result of one edit job.
type ResultStreamer interface {
	Stream(ctx context.Context, jobID uuid.UUID, em stream.Emitter) error
}

// MinionHandler dispatches scoped AI edits and streams their results.
type MinionHandler struct {
	minionService service.MinionService
	results       ResultStreamer
}

func NewMinionHandler(minionService service.MinionService, results ResultStreamer) *MinionHandler {
	return &MinionHandler{minionService: minionService, results: results}
}

// EnqueueEdit handles POST /api/quizzes/{id}/minions.
func (h *MinionHandler) EnqueueEdit(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	var req service.MinionRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "Invalid request format")
		return
	}

	jobID, err := h.minionService.EnqueueEdit(r.Context(), userID, quizID, req)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobResponse{JobID: jobID})
}

// StreamResult handles GET /api/minions/{jobId}/stream. The job id is only
// known to the caller that enqueued the edit.
func (h *MinionHandler) StreamResult(w http.ResponseWriter, r *http.Request) {
	_, jobID, ok := handleUserIDAndPathUUID(w, r, "jobId")
	if !ok {
		return
	}

	sse, err := stream.NewSSEWriter(w)
	if err != nil {
		HandleAPIError(w, r, err, "Streaming is not supported")
		return
	}

	if err := h.results.Stream(r.Context(), jobID, sse); err != nil {
		logger.FromContext(r.Context()).Warn("result stream ended with error",
			slog.String("job_id", jobID.String()),
			slog.String("error", redact.Error(err)))
	}
}
