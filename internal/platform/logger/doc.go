// Package logger configures structured logging with log/slog and carries
// request- and job-scoped loggers through context.Context.
package logger
