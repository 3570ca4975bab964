package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api/shared"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/domain"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/events"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/stream"
)

// fakeQuizService embeds the interface so tests only stub what they call.
type fakeQuizService struct {
	service.QuizService
	createFn     func(ctx context.Context, userID uuid.UUID, params domain.GenerationParams) (*domain.Quiz, uuid.UUID, error)
	getFn        func(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error)
	listFn       func(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error)
	regenerateFn func(ctx context.Context, userID, quizID uuid.UUID) (uuid.UUID, error)
}

func (f *fakeQuizService) CreateQuiz(ctx context.Context, userID uuid.UUID, params domain.GenerationParams) (*domain.Quiz, uuid.UUID, error) {
	return f.createFn(ctx, userID, params)
}

func (f *fakeQuizService) GetQuiz(ctx context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
	return f.getFn(ctx, userID, quizID)
}

func (f *fakeQuizService) ListQuizzes(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*domain.Quiz, error) {
	return f.listFn(ctx, userID, limit, offset)
}

func (f *fakeQuizService) RegenerateDraft(ctx context.Context, userID, quizID uuid.UUID) (uuid.UUID, error) {
	return f.regenerateFn(ctx, userID, quizID)
}

type fakeDraftService struct {
	service.DraftService
	patchFn func(ctx context.Context, userID, quizID uuid.UUID, body []byte) (*domain.Draft, error)
}

func (f *fakeDraftService) ApplyPatch(ctx context.Context, userID, quizID uuid.UUID, body []byte) (*domain.Draft, error) {
	return f.patchFn(ctx, userID, quizID, body)
}

type fakeTranslationService struct {
	languages []string
	err       error
}

func (f *fakeTranslationService) Translate(_ context.Context, _, _ uuid.UUID, languages []string) (map[string]domain.DraftContent, error) {
	f.languages = languages
	if f.err != nil {
		return nil, f.err
	}
	out := make(map[string]domain.DraftContent, len(languages))
	for _, l := range languages {
		out[l] = domain.DraftContent{}
	}
	return out, nil
}

type fakeMinionService struct {
	req   service.MinionRequest
	jobID uuid.UUID
}

func (f *fakeMinionService) EnqueueEdit(_ context.Context, _, _ uuid.UUID, req service.MinionRequest) (uuid.UUID, error) {
	f.req = req
	return f.jobID, nil
}

// streamFunc adapts a function to StatusStreamer and ResultStreamer.
type streamFunc func(ctx context.Context, id uuid.UUID, em stream.Emitter) error

func (f streamFunc) Stream(ctx context.Context, id uuid.UUID, em stream.Emitter) error {
	return f(ctx, id, em)
}

// serve routes one request through chi so path parameters resolve, with
// userID already authenticated when non-nil.
func serve(pattern, method string, h http.HandlerFunc, userID uuid.UUID, req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Method(method, pattern, h)
	if userID != uuid.Nil {
		req = req.WithContext(shared.WithUserID(req.Context(), userID))
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func sampleQuiz(t *testing.T, owner uuid.UUID) *domain.Quiz {
	t.Helper()
	quiz, err := domain.NewQuiz(owner, domain.GenerationParams{Topic: "Osmosis", QuestionCount: 3, Difficulty: domain.DifficultyEasy})
	require.NoError(t, err)
	return quiz
}

func TestCreateQuiz(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	jobID := uuid.New()
	var got domain.GenerationParams
	quizzes := &fakeQuizService{createFn: func(_ context.Context, userID uuid.UUID, params domain.GenerationParams) (*domain.Quiz, uuid.UUID, error) {
		got = params
		return sampleQuiz(t, userID), jobID, nil
	}}
	h := NewQuizHandler(quizzes, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes",
		strings.NewReader(`{"topic":"Osmosis","questionCount":3,"difficulty":"easy","languages":["fr"]}`))
	rec := serve("/api/quizzes", http.MethodPost, h.CreateQuiz, owner, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "Osmosis", got.Topic)
	assert.Equal(t, []string{"fr"}, got.Languages)

	var resp CreateQuizResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, jobID, resp.JobID)
	assert.Equal(t, domain.StatusQueued, resp.Quiz.Status)
	assert.Equal(t, 0, resp.Quiz.Step)
}

func TestCreateQuiz_Errors(t *testing.T) {
	t.Parallel()

	t.Run("unauthenticated", func(t *testing.T) {
		t.Parallel()
		h := NewQuizHandler(&fakeQuizService{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{}`))
		rec := serve("/api/quizzes", http.MethodPost, h.CreateQuiz, uuid.Nil, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()
		h := NewQuizHandler(&fakeQuizService{}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"topic":`))
		rec := serve("/api/quizzes", http.MethodPost, h.CreateQuiz, uuid.New(), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid request format", errorBody(t, rec))
	})

	t.Run("invalid params", func(t *testing.T) {
		t.Parallel()
		h := NewQuizHandler(&fakeQuizService{createFn: func(context.Context, uuid.UUID, domain.GenerationParams) (*domain.Quiz, uuid.UUID, error) {
			return nil, uuid.Nil, domain.NewValidationError("questionCount", "must be at least 1", domain.ErrValidation)
		}}, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/quizzes", strings.NewReader(`{"topic":"Osmosis"}`))
		rec := serve("/api/quizzes", http.MethodPost, h.CreateQuiz, uuid.New(), req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid questionCount: must be at least 1", errorBody(t, rec))
	})
}

func TestListQuizzes_Pagination(t *testing.T) {
	t.Parallel()
	var gotLimit, gotOffset int
	h := NewQuizHandler(&fakeQuizService{listFn: func(_ context.Context, _ uuid.UUID, limit, offset int) ([]*domain.Quiz, error) {
		gotLimit, gotOffset = limit, offset
		return nil, nil
	}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/quizzes?limit=5&offset=10", nil)
	rec := serve("/api/quizzes", http.MethodGet, h.ListQuizzes, uuid.New(), req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, gotLimit)
	assert.Equal(t, 10, gotOffset)
	assert.JSONEq(t, `{"quizzes":[],"limit":5,"offset":10}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/quizzes?limit=-1", nil)
	rec = serve("/api/quizzes", http.MethodGet, h.ListQuizzes, uuid.New(), req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetQuiz_PathAndOwnership(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	quiz := sampleQuiz(t, owner)
	h := NewQuizHandler(&fakeQuizService{getFn: func(_ context.Context, userID, quizID uuid.UUID) (*domain.Quiz, error) {
		switch {
		case quizID != quiz.ID:
			return nil, store.ErrQuizNotFound
		case userID != owner:
			return nil, service.ErrNotOwned
		}
		return quiz, nil
	}}, nil)

	tests := []struct {
		name   string
		path   string
		user   uuid.UUID
		status int
	}{
		{"owner", "/api/quizzes/" + quiz.ID.String(), owner, http.StatusOK},
		{"stranger", "/api/quizzes/" + quiz.ID.String(), uuid.New(), http.StatusForbidden},
		{"missing", "/api/quizzes/" + uuid.NewString(), owner, http.StatusNotFound},
		{"bad id", "/api/quizzes/not-a-uuid", owner, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := serve("/api/quizzes/{id}", http.MethodGet, h.GetQuiz, tt.user, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestStreamStatus(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	quiz := sampleQuiz(t, owner)
	quizzes := &fakeQuizService{getFn: func(_ context.Context, userID, _ uuid.UUID) (*domain.Quiz, error) {
		if userID != owner {
			return nil, service.ErrNotOwned
		}
		return quiz, nil
	}}
	statuses := streamFunc(func(_ context.Context, id uuid.UUID, em stream.Emitter) error {
		assert.Equal(t, quiz.ID, id)
		return em.Emit(stream.EventStatus, events.StatusEvent{Status: domain.StatusDraft, Step: 3})
	})
	h := NewQuizHandler(quizzes, statuses)
	path := "/api/quizzes/" + quiz.ID.String() + "/status/stream"

	rec := serve("/api/quizzes/{id}/status/stream", http.MethodGet, h.StreamStatus, owner, httptest.NewRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.Equal(t, "event: status\ndata: {\"status\":\"draft\",\"step\":3}\n\n", rec.Body.String())

	// ownership is checked before the stream opens
	rec = serve("/api/quizzes/{id}/status/stream", http.MethodGet, h.StreamStatus, uuid.New(), httptest.NewRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestPatchDraft(t *testing.T) {
	t.Parallel()
	owner := uuid.New()
	quizID := uuid.New()
	draftID := uuid.New()
	var gotBody string
	drafts := &fakeDraftService{patchFn: func(_ context.Context, _, _ uuid.UUID, body []byte) (*domain.Draft, error) {
		gotBody = string(body)
		if strings.Contains(gotBody, "missing") {
			return nil, domain.ErrQuestionNotFound
		}
		return &domain.Draft{ID: draftID, QuizID: quizID}, nil
	}}
	h := NewDraftHandler(drafts, &fakeQuizService{})
	path := "/api/quizzes/" + quizID.String() + "/draft"

	body := `{"op":"update_question","questionId":"q1","text":"New text"}`
	rec := serve("/api/quizzes/{id}/draft", http.MethodPatch, h.PatchDraft, owner,
		httptest.NewRequest(http.MethodPatch, path, strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, body, gotBody)
	assert.JSONEq(t, `{"draftId":"`+draftID.String()+`"}`, rec.Body.String())

	rec = serve("/api/quizzes/{id}/draft", http.MethodPatch, h.PatchDraft, owner,
		httptest.NewRequest(http.MethodPatch, path, strings.NewReader(`{"op":"delete_question","questionId":"missing"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Question not found", errorBody(t, rec))
}

func TestRegenerateDraft_Conflict(t *testing.T) {
	t.Parallel()
	h := NewDraftHandler(&fakeDraftService{}, &fakeQuizService{regenerateFn: func(context.Context, uuid.UUID, uuid.UUID) (uuid.UUID, error) {
		return uuid.Nil, service.NewServiceError("quiz", "regenerate", "quiz is building", service.ErrNotRegenerable)
	}})
	path := "/api/quizzes/" + uuid.NewString() + "/draft/regenerate"
	rec := serve("/api/quizzes/{id}/draft/regenerate", http.MethodPost, h.RegenerateDraft, uuid.New(),
		httptest.NewRequest(http.MethodPost, path, nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestEnqueueEdit(t *testing.T) {
	t.Parallel()
	minions := &fakeMinionService{jobID: uuid.New()}
	h := NewMinionHandler(minions, nil)
	path := "/api/quizzes/" + uuid.NewString() + "/minions"

	rec := serve("/api/quizzes/{id}/minions", http.MethodPost, h.EnqueueEdit, uuid.New(),
		httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"scope":"add_distractor","payload":{"question":{"id":"q1"}}}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, domain.ScopeAddDistractor, minions.req.Scope)
	assert.JSONEq(t, `{"question":{"id":"q1"}}`, string(minions.req.Payload))
	assert.JSONEq(t, `{"jobId":"`+minions.jobID.String()+`"}`, rec.Body.String())
}

func TestStreamResult(t *testing.T) {
	t.Parallel()
	jobID := uuid.New()
	results := streamFunc(func(_ context.Context, id uuid.UUID, em stream.Emitter) error {
		assert.Equal(t, jobID, id)
		return em.Emit(stream.EventResult, events.MinionFailure(generation.MsgOptionLimit))
	})
	h := NewMinionHandler(&fakeMinionService{}, results)

	rec := serve("/api/minions/{jobId}/stream", http.MethodGet, h.StreamResult, uuid.New(),
		httptest.NewRequest(http.MethodGet, "/api/minions/"+jobID.String()+"/stream", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "event: result\n")
	assert.Contains(t, rec.Body.String(), generation.MsgOptionLimit)
}

func TestTranslate(t *testing.T) {
	t.Parallel()
	path := "/api/quizzes/" + uuid.NewString() + "/translations"

	t.Run("empty body uses quiz languages", func(t *testing.T) {
		t.Parallel()
		translations := &fakeTranslationService{}
		h := NewTranslationHandler(translations)
		rec := serve("/api/quizzes/{id}/translations", http.MethodPost, h.Translate, uuid.New(),
			httptest.NewRequest(http.MethodPost, path, nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Nil(t, translations.languages)
		assert.JSONEq(t, `{"translations":{}}`, rec.Body.String())
	})

	t.Run("explicit languages", func(t *testing.T) {
		t.Parallel()
		translations := &fakeTranslationService{}
		h := NewTranslationHandler(translations)
		rec := serve("/api/quizzes/{id}/translations", http.MethodPost, h.Translate, uuid.New(),
			httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"languages":["fr","de"]}`)))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"fr", "de"}, translations.languages)
	})

	t.Run("invalid language", func(t *testing.T) {
		t.Parallel()
		h := NewTranslationHandler(&fakeTranslationService{})
		rec := serve("/api/quizzes/{id}/translations", http.MethodPost, h.Translate, uuid.New(),
			httptest.NewRequest(http.MethodPost, path, strings.NewReader(`{"languages":["x"]}`)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("provider timeout", func(t *testing.T) {
		t.Parallel()
		h := NewTranslationHandler(&fakeTranslationService{err: context.DeadlineExceeded})
		rec := serve("/api/quizzes/{id}/translations", http.MethodPost, h.Translate, uuid.New(),
			httptest.NewRequest(http.MethodPost, path, nil))
		assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
		assert.Equal(t, generation.MsgTranslationFailed, errorBody(t, rec))
	})
}

