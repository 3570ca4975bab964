package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
)

// CreateQuizRequest is the body of POST /api/quizzes.
type CreateQuizRequest struct {
	domain.GenerationParams
}

// QuizResponse is the public view of a quiz.
type QuizResponse struct {
	ID           uuid.UUID               `json:"id"`
	Params       domain.GenerationParams `json:"params"`
	Status       domain.QuizStatus       `json:"status"`
	Step         int                     `json:"step"`
	ErrorMessage *string                 `json:"errorMessage,omitempty"`
	CreatedAt    time.Time               `json:"createdAt"`
	UpdatedAt    time.Time               `json:"updatedAt"`
}

// CreateQuizResponse is returned when generation has been queued.
type CreateQuizResponse struct {
	Quiz  QuizResponse `json:"quiz"`
	JobID uuid.UUID    `json:"jobId"`
}

// QuizListResponse wraps a page of quizzes.
type QuizListResponse struct {
	Quizzes []QuizResponse `json:"quizzes"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}

// DraftResponse is the public view of a draft snapshot.
type DraftResponse struct {
	ID        uuid.UUID           `json:"id"`
	QuizID    uuid.UUID           `json:"quizId"`
	Content   domain.DraftContent `json:"content"`
	CreatedAt time.Time           `json:"createdAt"`
}

// DraftListResponse lists draft snapshots, newest first.
type DraftListResponse struct {
	Drafts []DraftResponse `json:"drafts"`
}

// PatchDraftResponse is returned after a draft patch.
type PatchDraftResponse struct {
	DraftID uuid.UUID `json:"draftId"`
}

// JobResponse is returned when a job has been queued.
type JobResponse struct {
	JobID uuid.UUID `json:"jobId"`
}

// TranslateRequest is the body of POST /api/quizzes/{id}/translations.
type TranslateRequest struct {
	Languages []string `json:"languages" validate:"omitempty,max=20,dive,min=2,max=12"`
}

// TranslateResponse maps language codes to translated content.
type TranslateResponse struct {
	Translations map[string]domain.DraftContent `json:"translations"`
}

func quizToResponse(q *domain.Quiz) QuizResponse {
	return QuizResponse{
		ID:           q.ID,
		Params:       q.Params,
		Status:       q.Status,
		Step:         q.Status.Step(),
		ErrorMessage: q.ErrorMessage,
		CreatedAt:    q.CreatedAt,
		UpdatedAt:    q.UpdatedAt,
	}
}

func draftToResponse(d *domain.Draft) DraftResponse {
	return DraftResponse{
		ID:        d.ID,
		QuizID:    d.QuizID,
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
}
