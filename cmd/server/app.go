package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/config"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/generation"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/gemini"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/postgres"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/redact"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/service/auth"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/store"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/stream"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/task"
)

// backendDrainDelay lets in-flight publishes land before the backend closes.
const backendDrainDelay = 250 * time.Millisecond

// capabilities are the generation capabilities the workers and services use.
type capabilities struct {
	architect  generation.Architect
	builder    generation.Builder
	editor     generation.Editor
	translator generation.Translator
}

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	backend *backend
	quizzes store.QuizStore
	drafts  store.DraftStore

	jwtService         auth.JWTService
	quizService        service.QuizService
	draftService       service.DraftService
	minionService      service.MinionService
	translationService service.TranslationService

	statusBridge *stream.StatusBridge
	resultBridge *stream.ResultBridge

	generationPool *task.WorkerPool
	minionPool     *task.WorkerPool
}

// newApplication builds the production dependency graph on db.
func newApplication(ctx context.Context, cfg *config.Config, log *slog.Logger, db *sql.DB) (*application, error) {
	be, err := newBackend(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	documents := postgres.NewDocumentStore(db, log)
	generator, err := gemini.NewGenerator(ctx, cfg.LLM, documents, log)
	if err != nil {
		_ = be.Close()
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	log.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	app := &application{
		config:  cfg,
		logger:  log,
		db:      db,
		backend: be,
		quizzes: postgres.NewPostgresQuizStore(db, log),
		drafts:  postgres.NewPostgresDraftStore(db, log),
	}
	caps := capabilities{architect: generator, builder: generator, editor: generator, translator: generator}
	if err := app.wire(caps); err != nil {
		_ = be.Close()
		return nil, err
	}
	return app, nil
}

// wire builds the services, bridges and worker pools on the stores and
// backend already set on app.
func (app *application) wire(caps capabilities) error {
	cfg, log := app.config, app.logger

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize JWT service: %w", err)
	}

	reporter := task.NewStatusReporter(app.quizzes, app.drafts, app.backend.broker, log)
	generationPolicy := task.GenerationEnqueueOptions(cfg.Jobs.GenerationMaxAttempts, cfg.Jobs.GenerationBackoff)

	if app.quizService, err = service.NewQuizService(app.quizzes, reporter, app.backend.jobs, generationPolicy, log); err != nil {
		return fmt.Errorf("failed to create quiz service: %w", err)
	}
	if app.draftService, err = service.NewDraftService(app.quizzes, app.drafts, log); err != nil {
		return fmt.Errorf("failed to create draft service: %w", err)
	}
	if app.minionService, err = service.NewMinionService(app.quizzes, app.backend.jobs, task.EnqueueOptions{}, log); err != nil {
		return fmt.Errorf("failed to create minion service: %w", err)
	}
	if app.translationService, err = service.NewTranslationService(app.quizzes, app.drafts, caps.translator, cfg.Jobs.GenerationTimeout, log); err != nil {
		return fmt.Errorf("failed to create translation service: %w", err)
	}

	app.statusBridge = stream.NewStatusBridge(app.quizzes, app.backend.broker,
		cfg.Stream.StatusTimeout, cfg.Stream.HeartbeatInterval, log)
	app.resultBridge = stream.NewResultBridge(app.backend.cache, app.backend.broker,
		cfg.Stream.ResultTimeout, cfg.Stream.HeartbeatInterval, log)

	generationTask, err := task.NewGenerationTask(app.quizzes, app.drafts, caps.architect, caps.builder,
		reporter, cfg.Jobs.GenerationTimeout, log)
	if err != nil {
		return fmt.Errorf("failed to create generation task: %w", err)
	}
	minionTask, err := task.NewMinionTask(app.quizzes, caps.editor, app.backend.broker, app.backend.cache,
		cfg.Jobs.MinionTimeout, cfg.Stream.ResultTTL, log)
	if err != nil {
		return fmt.Errorf("failed to create minion task: %w", err)
	}

	app.generationPool = task.NewWorkerPool(app.backend.jobs, generationTask,
		app.poolConfig(task.QueueGeneration, cfg.Jobs.GenerationWorkers), log)
	app.minionPool = task.NewWorkerPool(app.backend.jobs, minionTask,
		app.poolConfig(task.QueueMinion, cfg.Jobs.MinionWorkers), log)

	log.Info("application initialized",
		"jobs_backend", app.backend.name,
		"generation_workers", cfg.Jobs.GenerationWorkers,
		"minion_workers", cfg.Jobs.MinionWorkers)
	return nil
}

func (app *application) poolConfig(queue string, workers int) task.WorkerPoolConfig {
	pc := task.DefaultWorkerPoolConfig(queue)
	pc.WorkerCount = workers
	pc.PollInterval = app.config.Jobs.PollInterval
	pc.StaleAfter = app.config.Jobs.StaleAfter
	pc.StaleCheckInterval = app.config.Jobs.StaleCheckInterval
	pc.DrainTimeout = app.config.Jobs.DrainTimeout
	return pc
}

// Run starts the worker pools and serves HTTP until ctx is cancelled, then
// shuts everything down in dependency order.
func (app *application) Run(ctx context.Context) error {
	app.generationPool.Start()
	app.minionPool.Start()

	err := app.startHTTPServer(ctx, app.setupRouter())
	app.cleanup()
	if err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup stops the pools before closing the backend and the database they
// depend on.
func (app *application) cleanup() {
	app.generationPool.Stop()
	app.minionPool.Stop()

	time.Sleep(backendDrainDelay)
	if err := app.backend.Close(); err != nil {
		app.logger.Error("error closing job backend", "error", redact.Error(err))
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", redact.Error(err))
		}
	}
	app.logger.Info("application shutdown completed")
}
