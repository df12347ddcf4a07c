package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

var defaultLogger *slog.Logger

// Initialize sets up the global logger writing to stdout.
func Initialize(level, format string) {
	InitializeWithWriter(level, format, os.Stdout)
}

// InitializeWithWriter sets up the global logger writing to w. Tests use it to
// capture output.
func InitializeWithWriter(level, format string, w io.Writer) {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	defaultLogger = slog.New(handler).With("app", "estatehub")
	slog.SetDefault(defaultLogger)
}

// ParseLevel maps a config level name to a slog level; unknown names are info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Get returns the default logger
func Get() *slog.Logger {
	if defaultLogger == nil {
		Initialize("info", "text")
	}
	return defaultLogger
}

func Debug(msg string, args ...any) { Get().Debug(msg, args...) }
func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any) {
	Get().InfoContext(ctx, msg, args...)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	Get().WarnContext(ctx, msg, args...)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	Get().ErrorContext(ctx, msg, args...)
}

// WithComponent returns a logger tagged with a component name (engine,
// occupancy, ledger, maintenance, http, jobs).
func WithComponent(name string) *slog.Logger {
	return Get().With("component", name)
}

// WithActor returns a logger tagged with the acting person.
func WithActor(actorID string) *slog.Logger {
	return Get().With("actor_id", actorID)
}

// EnterMethod logs method entry (process tracking)
func EnterMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "enter"}, args...)
	Get().Debug("→ Method entered", allArgs...)
}

// ExitMethod logs method exit (process tracking)
func ExitMethod(methodName string, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit"}, args...)
	Get().Debug("← Method exited", allArgs...)
}

// ExitMethodWithError logs a failed exit. Expected business failures are
// logged at warn so that error level stays reserved for faults.
func ExitMethodWithError(methodName string, err error, expected bool, args ...any) {
	allArgs := append([]any{"method", methodName, "event", "exit", "error", err}, args...)
	if expected {
		Get().Warn("← Method rejected", allArgs...)
		return
	}
	Get().Error("← Method exited with error", allArgs...)
}

// Transition records a committed status change of a workflow record.
func Transition(entity, id string, from, to any, args ...any) {
	allArgs := append([]any{"entity", entity, "id", id, "from", from, "to", to}, args...)
	Get().Info("State transition", allArgs...)
}

// DatabaseCall logs database operation (debug log for external resources)
func DatabaseCall(operation, query string, args ...any) {
	allArgs := append([]any{"operation", operation, "query", query}, args...)
	Get().Debug("→ Database call", allArgs...)
}

// DatabaseResult logs a database write result. A zero-row conditional update
// is a lost optimistic race, not a failure, and is logged at debug.
func DatabaseResult(operation string, rowsAffected int64, err error, args ...any) {
	allArgs := append([]any{"operation", operation, "rows_affected", rowsAffected}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Error("← Database call failed", allArgs...)
		return
	}
	Get().Debug("← Database call succeeded", allArgs...)
}

// ExternalServiceCall logs external service call (debug log for external resources)
func ExternalServiceCall(service, operation string, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	Get().Debug("→ External service call", allArgs...)
}

// ExternalServiceResult logs external service result (debug log for external resources)
func ExternalServiceResult(service, operation string, err error, args ...any) {
	allArgs := append([]any{"service", service, "operation", operation}, args...)
	if err != nil {
		allArgs = append(allArgs, "error", err)
		Get().Error("← External service call failed", allArgs...)
		return
	}
	Get().Debug("← External service call succeeded", allArgs...)
}
