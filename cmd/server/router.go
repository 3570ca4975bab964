package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/api"
	apiMiddleware "github.com/Abdoul54/ai-quizzer-sub000/internal/api/middleware"
)

const serviceName = "ai-quizzer-api"

// setupRouter registers every route on a chi router wrapped with HTTP
// tracing.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	quizHandler := api.NewQuizHandler(app.quizService, app.statusBridge)
	draftHandler := api.NewDraftHandler(app.draftService, app.quizService)
	minionHandler := api.NewMinionHandler(app.minionService, app.resultBridge)
	translationHandler := api.NewTranslationHandler(app.translationService)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Post("/quizzes", quizHandler.CreateQuiz)
			r.Get("/quizzes", quizHandler.ListQuizzes)
			r.Get("/quizzes/{id}", quizHandler.GetQuiz)
			r.Delete("/quizzes/{id}", quizHandler.DeleteQuiz)
			r.Post("/quizzes/{id}/publish", quizHandler.PublishQuiz)
			r.Post("/quizzes/{id}/archive", quizHandler.ArchiveQuiz)

			r.Get("/quizzes/{id}/draft", draftHandler.GetLatestDraft)
			r.Get("/quizzes/{id}/drafts", draftHandler.ListDrafts)
			r.Patch("/quizzes/{id}/draft", draftHandler.PatchDraft)
			r.Post("/quizzes/{id}/draft/regenerate", draftHandler.RegenerateDraft)

			r.Post("/quizzes/{id}/minions", minionHandler.EnqueueEdit)
			r.Post("/quizzes/{id}/translations", translationHandler.Translate)
		})

		// EventSource cannot set headers, so streams also accept the token
		// as a query parameter.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthenticateStream)

			r.Get("/quizzes/{id}/status/stream", quizHandler.StreamStatus)
			r.Get("/minions/{jobId}/stream", minionHandler.StreamResult)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return otelhttp.NewHandler(r, serviceName,
		otelhttp.WithFilter(func(r *http.Request) bool { return r.URL.Path != "/health" }))
}
