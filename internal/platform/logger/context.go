package logger

import (
	"context"
	"log/slog"
)

// contextKey is a private type for context keys defined in this package.
type contextKey int

// loggerKey is the context key under which a request- or task-scoped
// logger is stored.
const loggerKey contextKey = iota

// WithLogger returns a new context carrying the provided logger.
// Downstream code retrieves it with FromContext, so per-request or
// per-task attributes (trace IDs, task IDs) follow the call chain.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext retrieves the logger stored in the context by WithLogger.
// If the context carries no logger, the process default logger is
// returned so callers never need to nil-check.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
