// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logging configures structured JSON logging for ollama-ui.
//
// The TUI owns the terminal, so log records always go to a file. Each
// component gets its own child logger tagged with a "component" attribute.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// Logger is a structured logger for one ollama-ui component.
type Logger struct {
	*slog.Logger
}

// Setup opens (appending) the log file at path, installs a JSON handler at
// level as the slog default and returns the file so the caller can close it
// on exit. An empty path discards all records.
func Setup(path string, level slog.Level) (io.Closer, error) {
	if path == "" {
		slog.SetDefault(slog.New(slog.NewJSONHandler(io.Discard, nil)))
		return io.NopCloser(nil), nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	slog.SetDefault(New(f, level))
	return f, nil
}

// New builds a JSON logger writing to w.
func New(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(handler).With(slog.String("system", "ollama-ui"))
}

// For returns a child of the default logger for component.
func For(component string) *Logger {
	return &Logger{Logger: slog.Default().With(slog.String("component", component))}
}

// WithSession returns a logger with session-specific fields
func (l *Logger) WithSession(chatID int) *Logger {
	return &Logger{Logger: l.Logger.With(slog.Int("chat_id", chatID))}
}

// WithRequest returns a logger tagged with a stream request id
func (l *Logger) WithRequest(requestID string) *Logger {
	return &Logger{Logger: l.Logger.With(slog.String("request_id", requestID))}
}

// RequestStarted logs the start of a streamed model request.
func (l *Logger) RequestStarted(model string, promptLen int) {
	l.Info("request started",
		slog.String("model", model),
		slog.Int("prompt_len", promptLen),
	)
}

// RequestFinished logs the end of a streamed model request. err is nil
// for a stream that ran to completion.
func (l *Logger) RequestFinished(fragments, responseLen int, elapsed time.Duration, err error) {
	attrs := []any{
		slog.Int("fragments", fragments),
		slog.Int("response_len", responseLen),
		slog.Duration("elapsed", elapsed),
	}
	if err != nil {
		l.Warn("request ended early", append(attrs, slog.String("error", err.Error()))...)
		return
	}
	l.Info("request finished", attrs...)
}
