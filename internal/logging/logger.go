// Package logging provides the leveled, structured logger difftrack
// components use for diagnostics. It is a thin facade over log/slog that
// fixes the output format to JSON, tags every entry with the difftrack
// component, and defaults to a discarding logger so the library stays
// silent unless the host process opts in via New.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Field is a structured attribute attached to a log entry.
type Field = slog.Attr

// String returns a string field.
func String(key, value string) Field { return slog.String(key, value) }

// Int returns an int field.
func Int(key string, value int) Field { return slog.Int(key, value) }

// Bool returns a bool field.
func Bool(key string, value bool) Field { return slog.Bool(key, value) }

// Err returns an error field.
func Err(err error) Field { return slog.Any("error", err) }

// Logger emits JSON-formatted structured log entries.
type Logger struct {
	base *slog.Logger
}

// New constructs a JSON logger writing to stdout at the given level and
// installs it as the global fallback.
func New(level string) (*Logger, error) {
	parsed, err := parseLevel(level)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stdout, parsed)
	ReplaceGlobals(logger)
	return logger, nil
}

// NewTestLogger returns a logger that discards output, suitable for tests.
func NewTestLogger() *Logger {
	return newLogger(io.Discard, slog.LevelDebug)
}

func newLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{base: slog.New(handler).With(slog.String("component", "difftrack"))}
}

func parseLevel(raw string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", raw)
	}
}

var (
	globalMu     sync.RWMutex
	globalLogger = NewTestLogger()
)

// ReplaceGlobals swaps the fallback logger used when no logger is passed
// explicitly.
func ReplaceGlobals(logger *Logger) {
	if logger == nil {
		return
	}
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// L returns the current global logger.
func L() *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// With returns a logger that attaches the given fields to every entry.
func (l *Logger) With(fields ...Field) *Logger {
	if l == nil {
		return L().With(fields...)
	}
	args := make([]any, len(fields))
	for i, field := range fields {
		args[i] = field
	}
	return &Logger{base: l.base.With(args...)}
}

// Debug logs a debug message.
func (l *Logger) Debug(message string, fields ...Field) {
	l.log(slog.LevelDebug, message, fields)
}

// Info logs an informational message.
func (l *Logger) Info(message string, fields ...Field) {
	l.log(slog.LevelInfo, message, fields)
}

// Warn logs a warning message.
func (l *Logger) Warn(message string, fields ...Field) {
	l.log(slog.LevelWarn, message, fields)
}

// Error logs an error message.
func (l *Logger) Error(message string, fields ...Field) {
	l.log(slog.LevelError, message, fields)
}

func (l *Logger) log(level slog.Level, message string, fields []Field) {
	if l == nil {
		L().log(level, message, fields)
		return
	}
	l.base.LogAttrs(context.Background(), level, message, fields...)
}
