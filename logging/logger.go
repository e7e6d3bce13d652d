// Package logging defines the four-method Logger interface the pipeline
// components log through, backed by log/slog. Constructors default to
// NoOpLogger, so logging is opt-in per component.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// Logger is what pipeline components log through. Args are alternating
// key/value pairs, slog style.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// LogLevel selects the minimum severity a constructed logger emits.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// slogLogger adapts a *slog.Logger to the Logger interface.
type slogLogger struct {
	l *slog.Logger
}

func (s slogLogger) Debug(msg string, args ...any) { s.l.Debug(msg, args...) }
func (s slogLogger) Info(msg string, args ...any)  { s.l.Info(msg, args...) }
func (s slogLogger) Warn(msg string, args ...any)  { s.l.Warn(msg, args...) }
func (s slogLogger) Error(msg string, args ...any) { s.l.Error(msg, args...) }

// FromSlog wraps an existing *slog.Logger.
func FromSlog(l *slog.Logger) Logger {
	return slogLogger{l: l}
}

// NewSlogLogger builds a Logger emitting structured records at or above
// level to w (stdout if nil). Format "text" selects the text handler,
// anything else JSON.
func NewSlogLogger(level LogLevel, format string, w io.Writer) Logger {
	if w == nil {
		w = os.Stdout
	}
	opts := &slog.HandlerOptions{Level: level.slog()}
	var h slog.Handler
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return FromSlog(slog.New(h))
}

// WithRun stamps the run identifier onto every record of a slog-backed
// Logger. Custom Logger implementations pass through unchanged; they are
// expected to manage their own attribution.
func WithRun(l Logger, runID string) Logger {
	if s, ok := l.(slogLogger); ok {
		return slogLogger{l: s.l.With("run_id", runID)}
	}
	return l
}

// NoOpLogger drops everything. It is the default in every constructor that
// takes a Logger option.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}
