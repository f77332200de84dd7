package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
)

var defaultLogger *slog.Logger

func init() {
	defaultLogger = New(os.Getenv("ENV"), os.Stdout)
	slog.SetDefault(defaultLogger)
}

// New builds a JSON logger for production and a debug-level text logger otherwise.
func New(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler
	if env == "production" {
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// Setup replaces the process-wide logger once config is loaded.
func Setup(env string) *slog.Logger {
	defaultLogger = New(env, os.Stdout)
	slog.SetDefault(defaultLogger)
	return defaultLogger
}

func Logger() *slog.Logger {
	return defaultLogger
}

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	userIDKey    contextKey = "user_id"
	ruleIDKey    contextKey = "rule_id"
	jobKey       contextKey = "job"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// WithRuleID tags log lines emitted while a recurring rule is executed.
func WithRuleID(ctx context.Context, ruleID string) context.Context {
	return context.WithValue(ctx, ruleIDKey, ruleID)
}

// WithJob tags log lines with the scheduler job that produced them.
func WithJob(ctx context.Context, job string) context.Context {
	return context.WithValue(ctx, jobKey, job)
}

// FromContext returns the default logger enriched with context values.
func FromContext(ctx context.Context) *slog.Logger {
	return Enrich(ctx, defaultLogger)
}

// Enrich adds the context values to base.
func Enrich(ctx context.Context, base *slog.Logger) *slog.Logger {
	l := base
	for _, key := range []contextKey{jobKey, requestIDKey, userIDKey, ruleIDKey} {
		if v, ok := ctx.Value(key).(string); ok && v != "" {
			l = l.With(string(key), v)
		}
	}
	return l
}
