package api

import (
	"net/http"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api/shared"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
)

// DraftHandler serves draft snapshots and applies structural edits.
type DraftHandler struct {
	draftService service.DraftService
	quizService  service.QuizService
}

func NewDraftHandler(draftService service.DraftService, quizService service.QuizService) *DraftHandler {
	return &DraftHandler{draftService: draftService, quizService: quizService}
}

// GetLatestDraft handles GET /api/quizzes/{id}/draft.
func (h *DraftHandler) GetLatestDraft(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	draft, err := h.draftService.GetLatestDraft(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, draftToResponse(draft))
}

// ListDrafts handles GET /api/quizzes/{id}/drafts?limit=.
func (h *DraftHandler) ListDrafts(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}
	limit, err := queryInt(r, "limit", service.DefaultHistoryLimit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	drafts, err := h.draftService.ListDrafts(r.Context(), userID, quizID, limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := DraftListResponse{Drafts: make([]DraftResponse, 0, len(drafts))}
	for _, d := range drafts {
		resp.Drafts = append(resp.Drafts, draftToResponse(d))
	}
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// PatchDraft handles PATCH /api/quizzes/{id}/draft. The body is a single
// patch operation; the new snapshot id is returned.
func (h *DraftHandler) PatchDraft(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	body, err := shared.ReadBody(w, r)
	if err != nil {
		HandleAPIError(w, r, err, "Invalid request format")
		return
	}

	draft, err := h.draftService.ApplyPatch(r.Context(), userID, quizID, body)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, PatchDraftResponse{DraftID: draft.ID})
}

// RegenerateDraft handles POST /api/quizzes/{id}/draft/regenerate.
func (h *DraftHandler) RegenerateDraft(w http.ResponseWriter, r *http.Request) {
	userID, quizID, ok := handleUserIDAndPathUUID(w, r, "id")
	if !ok {
		return
	}

	jobID, err := h.quizService.RegenerateDraft(r.Context(), userID, quizID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusAccepted, JobResponse{JobID: jobID})
}
