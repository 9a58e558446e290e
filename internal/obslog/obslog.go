// Package obslog wraps log/slog in a small struct carrying a *slog.Logger,
// switched between a text handler for interactive stderr output and a JSON
// handler writing to a rotating file for long-lived processes.
package obslog

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured, leveled logger threaded through the storage,
// append, projection, and fork engines.
type Logger struct {
	logger *slog.Logger
}

// NewInteractive builds a text-handler logger writing to stderr, for CLI
// invocations.
func NewInteractive(level slog.Level) Logger {
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return Logger{logger: slog.New(h)}
}

// NewFile builds a JSON-handler logger writing to a lumberjack-rotated file,
// for long-lived processes (the fsnotify watcher, a future daemon).
func NewFile(path string, level slog.Level) Logger {
	w := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	h := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return Logger{logger: slog.New(h)}
}

// Discard returns a Logger that drops everything, for tests.
func Discard() Logger {
	return Logger{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func (l Logger) With(args ...any) Logger {
	return Logger{logger: l.logger.With(args...)}
}

func (l Logger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l Logger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l Logger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l Logger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

// Slog exposes the underlying *slog.Logger for callers (e.g. cobra command
// wiring) that want to pass it to library code expecting the stdlib type.
func (l Logger) Slog() *slog.Logger { return l.logger }
