package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/Abdoul54/ai-quizzer-sub000/internal/platform/postgres"
)

// runMigrations applies one goose command to the embedded migrations.
func runMigrations(ctx context.Context, db *sql.DB, command string, log *slog.Logger) error {
	if err := postgres.Migrate(ctx, db, command, log); err != nil {
		return fmt.Errorf("migration %q failed: %w", command, err)
	}
	return nil
}
