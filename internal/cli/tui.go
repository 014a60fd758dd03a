// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/ollama"
	"github.com/jeranaias/ollama-ui/internal/ui/chat"
	"github.com/jeranaias/ollama-ui/internal/ui/styles"
)

// themeDebounce coalesces the burst of events an editor save produces.
const themeDebounce = 150 * time.Millisecond

func newTUICmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Start the full-screen chat (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(g)
		},
	}
}

// runTUI runs the full-screen chat until the user quits.
func runTUI(g *globalFlags) error {
	a, err := openApp(g.cfg)
	if err != nil {
		return err
	}

	log := logging.For("cli")

	theme, err := styles.LoadTheme(a.cfg.UI.ThemePath)
	if err != nil {
		log.Warn("theme file ignored", "path", a.cfg.UI.ThemePath, "error", err)
		theme = styles.NewTheme()
	}

	var watcher *styles.Watcher
	if a.cfg.UI.DevMode {
		watcher, err = startThemeWatcher(a.cfg.UI.ThemePath)
		if err != nil {
			log.Warn("theme hot reload disabled", "error", err)
		} else {
			defer watcher.Close()
		}
	}

	m := chat.New(chat.Options{
		Controller:   a.ctrl,
		Sidebar:      a.bar,
		Health:       a.client,
		ModelName:    a.cfg.Ollama.Model,
		Theme:        theme,
		ThemeWatcher: watcher,
		Markdown:     a.cfg.UI.Markdown,
		SidebarWidth: a.cfg.UI.SidebarWidth,
	})

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	commitAbandoned(final, a.ctrl)
	if err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}

// commitAbandoned commits a response still streaming when the program
// exited, whether it quit normally or was killed.
func commitAbandoned(final tea.Model, ctrl *conversation.Controller) {
	if m, ok := final.(chat.Model); ok {
		m.Shutdown()
	}
	if ctrl.Busy() {
		if _, err := ctrl.Finish(ollama.ErrStreamAborted); err != nil {
			logging.For("cli").Error("failed to save response on exit", "error", err)
		}
	}
}

func startThemeWatcher(path string) (*styles.Watcher, error) {
	w, err := styles.NewWatcher(path, themeDebounce)
	if err != nil {
		return nil, err
	}
	if err := w.Watch(); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}
