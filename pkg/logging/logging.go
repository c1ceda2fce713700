// Package logging provides a small abstraction over slog so Skuld packages
// depend on a minimal interface while callers can plug any structured
// logger. It also includes a NoOp logger for tests and an adapter that
// satisfies Badger's logger interface so storage logs flow through the same
// sink.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Logger is the minimal logging interface used throughout Skuld.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config controls logger construction.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Defaults to "info".
	Level string
	// Format is "json" or "text". Defaults to "json".
	Format string
	// Output defaults to os.Stderr.
	Output io.Writer
}

// New builds a slog-backed Logger from cfg.
//
// Example:
//
//	logger := logging.New(logging.Config{Level: "debug", Format: "text"})
//	logger.Info("engine registered", "device_id", id, "cohort", cohort)
func New(cfg Config) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level)}
	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &slogAdapter{logger: slog.New(handler)}
}

// Default returns an info-level JSON logger writing to stderr.
func Default() Logger {
	return New(Config{})
}

func slogLevel(level string) slog.Level {
	switch level {
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

type slogAdapter struct {
	logger *slog.Logger
}

func (s *slogAdapter) Debug(msg string, args ...any) { s.logger.Debug(msg, args...) }
func (s *slogAdapter) Info(msg string, args ...any)  { s.logger.Info(msg, args...) }
func (s *slogAdapter) Warn(msg string, args ...any)  { s.logger.Warn(msg, args...) }
func (s *slogAdapter) Error(msg string, args ...any) { s.logger.Error(msg, args...) }

// NoOp discards all log messages. Useful for tests.
type NoOp struct{}

// Debug discards the message.
func (NoOp) Debug(string, ...any) {}

// Info discards the message.
func (NoOp) Info(string, ...any) {}

// Warn discards the message.
func (NoOp) Warn(string, ...any) {}

// Error discards the message.
func (NoOp) Error(string, ...any) {}

// BadgerAdapter exposes a Logger through Badger's printf-style interface so
// the aggregate store's internal logging shares the application sink.
type BadgerAdapter struct {
	L Logger
}

// Errorf logs at error level.
func (b BadgerAdapter) Errorf(format string, args ...any) {
	b.L.Error(fmt.Sprintf(format, args...))
}

// Warningf logs at warn level.
func (b BadgerAdapter) Warningf(format string, args ...any) {
	b.L.Warn(fmt.Sprintf(format, args...))
}

// Infof logs at info level.
func (b BadgerAdapter) Infof(format string, args ...any) {
	b.L.Info(fmt.Sprintf(format, args...))
}

// Debugf logs at debug level.
func (b BadgerAdapter) Debugf(format string, args ...any) {
	b.L.Debug(fmt.Sprintf(format, args...))
}
