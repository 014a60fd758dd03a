// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/ui/styles"
)

// HealthChecker reports whether the model service is reachable.
// *ollama.Client implements it.
type HealthChecker interface {
	CheckRunning(ctx context.Context) error
}

// listenCmd reads one fragment from src. Update issues the next listenCmd
// only after applying this one's result.
func listenCmd(turnID string, src conversation.Source) tea.Cmd {
	return func() tea.Msg {
		text, err := src.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = nil
			}
			return StreamEndMsg{TurnID: turnID, Err: err}
		}
		return FragmentMsg{TurnID: turnID, Text: text}
	}
}

// checkOllamaCmd runs the health check.
func checkOllamaCmd(h HealthChecker) tea.Cmd {
	if h == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return OllamaStatusMsg{Err: h.CheckRunning(ctx)}
	}
}

// waitForThemeCmd blocks until the watcher produces the next reload.
func waitForThemeCmd(w *styles.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		r, ok := <-w.Reloads()
		if !ok {
			return nil
		}
		return ThemeReloadedMsg{Reload: r}
	}
}
