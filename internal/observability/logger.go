// Package observability provides the structured logger shared by the
// storage core. Logger wraps log/slog with a persistent component field so
// every line names the backend or subsystem that emitted it.
package observability

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger wraps slog with a component name.
type Logger struct {
	inner     *slog.Logger
	component string
}

// NewLogger creates a JSON logger for component writing to w at level.
// Output defaults to os.Stderr if w is nil.
func NewLogger(component string, w io.Writer, level slog.Level) *Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{inner: slog.New(handler), component: component}
}

// NewLoggerWithHandler creates a logger with a custom slog handler.
func NewLoggerWithHandler(component string, h slog.Handler) *Logger {
	return &Logger{inner: slog.New(h), component: component}
}

// Discard returns a logger that drops everything. Used as the default when
// callers do not supply one.
func Discard() *Logger {
	return NewLoggerWithHandler("", slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config string to a slog level. Unknown values mean Info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Named returns a logger for a sub-component sharing the same handler.
func (l *Logger) Named(component string) *Logger {
	if l == nil {
		return Discard()
	}
	return &Logger{inner: l.inner, component: component}
}

// With returns a new Logger with an additional persistent field.
func (l *Logger) With(key string, value any) *Logger {
	return &Logger{inner: l.inner.With(slog.Any(key, value)), component: l.component}
}

func (l *Logger) attrs(args []any) []any {
	return append([]any{slog.String("component", l.component)}, args...)
}

// Debug logs at DEBUG level.
func (l *Logger) Debug(msg string, args ...any) {
	l.inner.Debug(msg, l.attrs(args)...)
}

// Info logs at INFO level.
func (l *Logger) Info(msg string, args ...any) {
	l.inner.Info(msg, l.attrs(args)...)
}

// Warn logs at WARN level.
func (l *Logger) Warn(msg string, args ...any) {
	l.inner.Warn(msg, l.attrs(args)...)
}

// Error logs at ERROR level.
func (l *Logger) Error(msg string, args ...any) {
	l.inner.Error(msg, l.attrs(args)...)
}

// Migration logs a migration phase event.
func (l *Logger) Migration(id, phase string, percent int, args ...any) {
	all := append([]any{
		slog.String("migration_id", id),
		slog.String("phase", phase),
		slog.Int("percent", percent),
	}, args...)
	l.inner.Info("migration", l.attrs(all)...)
}

// Component returns the component name associated with this logger.
func (l *Logger) Component() string {
	return l.component
}
