package main

import (
	"fmt"
	"log/slog"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/config"
	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/logger"
)

// loadAppConfig loads configuration from path, or from ./config.yaml and the
// environment when path is empty.
func loadAppConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// setupAppLogger installs the default logger and logs the non-secret parts
// of the configuration.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"jobs_backend", cfg.Jobs.Backend,
		"model", cfg.LLM.ModelName,
		"tracing_enabled", cfg.Tracing.Enabled)
	log.Debug("secrets present",
		"database_url", cfg.Database.URL != "",
		"jwt_secret", cfg.Auth.JWTSecret != "",
		"gemini_api_key", cfg.LLM.GeminiAPIKey != "")
	return log, nil
}
