// Package logging provides structured logging for the indexing pipeline.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Format selects the handler used to render log records.
type Format string

// Format values.
const (
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// ContextKey avoids collisions on context values set by this package.
type ContextKey string

// RunIDKey tags log lines with the indexing run that produced them.
const RunIDKey ContextKey = "run_id"

// Logger wraps slog.Logger with the pipeline's conventions.
type Logger struct {
	handler slog.Handler
	logger  *slog.Logger
}

// New builds a Logger writing to stdout in the given format/level.
func New(format Format, level string) *Logger {
	return NewWithWriter(os.Stdout, format, level)
}

// NewWithWriter builds a Logger writing to an arbitrary writer, primarily
// for tests that need to assert on output.
func NewWithWriter(w io.Writer, format Format, level string) *Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}

	var handler slog.Handler
	switch format {
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = newTerminalHandler(w, opts)
	}

	return &Logger{handler: handler, logger: slog.New(handler)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Slog returns the underlying slog.Logger.
func (l *Logger) Slog() *slog.Logger {
	return l.logger
}

// With returns a derived Logger carrying additional attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{handler: l.handler, logger: l.logger.With(args...)}
}

// WithContext attaches a run id found on ctx, if any.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if id, ok := ctx.Value(RunIDKey).(string); ok && id != "" {
		return l.With("run_id", id)
	}
	return l
}

func (l *Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// WithRunID returns a context tagged with the given indexing run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

var defaultLogger = New(FormatPretty, "info")

// Default returns the package-level default logger.
func Default() *Logger {
	return defaultLogger
}

// SetDefault replaces the package-level default logger.
func SetDefault(l *Logger) {
	defaultLogger = l
}
