package server

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"
)

// Logger interface for structured logging
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// DefaultLogger writes key=value lines through log/slog.
type DefaultLogger struct {
	logger *slog.Logger
}

// NewDefaultLogger logs at info level to stdout.
func NewDefaultLogger() *DefaultLogger {
	return NewLogger(os.Stdout, slog.LevelInfo)
}

func NewLogger(w io.Writer, level slog.Level) *DefaultLogger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &DefaultLogger{logger: slog.New(h)}
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(strings.TrimSpace(s)))
	return level, err
}

func (l *DefaultLogger) Debug(msg string, fields ...Field) {
	l.log(slog.LevelDebug, msg, fields...)
}

func (l *DefaultLogger) Info(msg string, fields ...Field) {
	l.log(slog.LevelInfo, msg, fields...)
}

func (l *DefaultLogger) Warn(msg string, fields ...Field) {
	l.log(slog.LevelWarn, msg, fields...)
}

func (l *DefaultLogger) Error(msg string, fields ...Field) {
	l.log(slog.LevelError, msg, fields...)
}

func (l *DefaultLogger) log(level slog.Level, msg string, fields ...Field) {
	ctx := context.Background()
	if !l.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields))
	for _, f := range fields {
		attrs = append(attrs, slog.Any(f.Key, sanitizeValue(f.Value)))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

const maxLogValueLen = 100

// sanitizeValue truncates long strings on a rune boundary. Targets and header values come
// straight from the client.
func sanitizeValue(v interface{}) interface{} {
	s, ok := v.(string)
	if !ok || len(s) <= maxLogValueLen {
		return v
	}

	cut := maxLogValueLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "...[truncated]"
}

// NullLogger discards all logs (for testing)
type NullLogger struct{}

func (n *NullLogger) Debug(msg string, fields ...Field) {}
func (n *NullLogger) Info(msg string, fields ...Field)  {}
func (n *NullLogger) Warn(msg string, fields ...Field)  {}
func (n *NullLogger) Error(msg string, fields ...Field) {}
