// Package telemetry provides structured logging for chat sessions.
package telemetry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
)

type contextKey string

const sessionIDKey contextKey = "session_id"

// NewLogger creates a structured JSON logger with default fields.
// Logs go to stderr by default; stdout carries the conversation itself.
func NewLogger(w io.Writer, level slog.Level) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
	})
	return slog.New(handler)
}

// WithSessionID adds a session ID to the context.
// If id is empty, a new random ID is generated.
func WithSessionID(ctx context.Context, id string) context.Context {
	if id == "" {
		b := make([]byte, 16)
		_, _ = rand.Read(b)
		id = hex.EncodeToString(b)
	}
	return context.WithValue(ctx, sessionIDKey, id)
}

// SessionID retrieves the session ID from context.
func SessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey).(string); ok {
		return id
	}
	return ""
}

// SessionLogger returns a logger with session-scoped fields.
func SessionLogger(logger *slog.Logger, ctx context.Context, model string) *slog.Logger {
	attrs := []any{
		slog.String("model", model),
	}
	if id := SessionID(ctx); id != "" {
		attrs = append(attrs, slog.String("session_id", id))
	}
	return logger.With(attrs...)
}
