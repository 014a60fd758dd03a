// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/ollama"
)

// Update handles every message for the chat screen.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.layout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case FragmentMsg:
		return m.handleFragment(msg)

	case StreamEndMsg:
		return m.handleStreamEnd(msg)

	case spinner.TickMsg:
		if !m.ctrl.Busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case OllamaStatusMsg:
		if msg.Err != nil {
			m.conn, m.connErr = connDown, msg.Err
			m.log.Warn("ollama health check failed", "error", msg.Err)
		} else {
			m.conn, m.connErr = connOK, nil
		}
		return m, nil

	case ThemeReloadedMsg:
		if msg.Err == nil && msg.Theme != nil {
			m.theme = msg.Theme
			m.applyTheme()
			m.refresh()
		}
		return m, waitForThemeCmd(m.watcher)
	}

	var cmd tea.Cmd
	if !m.ctrl.Busy() && m.focus == focusInput {
		m.input, cmd = m.input.Update(msg)
	}
	return m, cmd
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.Shutdown()
		return m, tea.Quit

	case key.Matches(msg, m.keys.NewChat):
		return m.newChat("")

	case key.Matches(msg, m.keys.Focus):
		if m.focus == focusInput {
			m.focus = focusSidebar
			m.input.Blur()
		} else {
			m.focus = focusInput
			if !m.ctrl.Busy() {
				m.input.Focus()
			}
		}
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == focusSidebar {
		return m.handleSidebarKey(msg)
	}

	// input is disabled for the whole request
	if m.ctrl.Busy() {
		return m, nil
	}

	if key.Matches(msg, m.keys.Submit) {
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) handleSidebarKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		m.bar.CursorUp()
	case key.Matches(msg, m.keys.Down):
		m.bar.CursorDown()
	case key.Matches(msg, m.keys.Open):
		if err := m.bar.SelectCursor(); err != nil {
			m.setNotice(err)
			return m, nil
		}
		m.notice = ""
		m.focus = focusInput
		m.input.Focus()
		m.refresh()
		m.viewport.GotoBottom()
	}
	return m, nil
}

// =============================================================================
// REQUEST LIFECYCLE
// =============================================================================

// submit sends the input line, or runs "/new [title]".
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()

	if title, ok := parseNewCommand(text); ok {
		m.input.Reset()
		return m.newChat(title)
	}

	src, err := m.ctrl.Submit(m.ctx, text)
	if err != nil {
		m.setNotice(err)
		return m, nil
	}
	if src == nil {
		// blank input
		return m, nil
	}

	m.src = src
	m.notice = ""
	m.input.Reset()
	m.input.Blur()
	m.refresh()
	m.viewport.GotoBottom()

	turn := m.ctrl.Turn()
	return m, tea.Batch(listenCmd(turn.ID, src), m.spinner.Tick)
}

// handleFragment applies one fragment, then asks for the next.
func (m Model) handleFragment(msg FragmentMsg) (tea.Model, tea.Cmd) {
	turn := m.ctrl.Turn()
	if turn == nil || turn.ID != msg.TurnID {
		return m, nil
	}

	atBottom := m.viewport.AtBottom()
	m.ctrl.Append(msg.Text)
	m.refresh()
	if atBottom {
		m.viewport.GotoBottom()
	}
	return m, listenCmd(turn.ID, m.src)
}

// handleStreamEnd commits the exchange and re-enables input.
func (m Model) handleStreamEnd(msg StreamEndMsg) (tea.Model, tea.Cmd) {
	turn := m.ctrl.Turn()
	if turn == nil || turn.ID != msg.TurnID {
		return m, nil
	}

	if _, err := m.ctrl.Finish(msg.Err); err != nil {
		m.setNotice(err)
	}
	conversation.CloseSource(m.src)
	m.src = nil

	m.input.Reset()
	if m.focus == focusInput {
		m.input.Focus()
	}
	m.refresh()
	m.viewport.GotoBottom()
	return m, nil
}

// Shutdown commits the response in flight, if any, as an aborted stream and
// closes its connection. The program calls it on quit; it is a no-op when
// idle.
func (m *Model) Shutdown() {
	if m.ctrl == nil || !m.ctrl.Busy() {
		return
	}
	conversation.CloseSource(m.src)
	m.src = nil
	if _, err := m.ctrl.Finish(ollama.ErrStreamAborted); err != nil {
		m.log.Error("failed to save response on quit", "error", err)
	}
}

// newChat creates a session and switches the view to it.
func (m Model) newChat(title string) (tea.Model, tea.Cmd) {
	if _, err := m.bar.NewChat(title); err != nil {
		m.setNotice(err)
		return m, nil
	}
	m.notice = ""
	m.focus = focusInput
	m.input.Focus()
	m.refresh()
	return m, nil
}

func (m *Model) setNotice(err error) {
	switch {
	case errors.Is(err, conversation.ErrBusy):
		m.notice = "Wait for the current response to finish."
	default:
		m.notice = err.Error()
		m.log.Error("tui action failed", "error", err)
	}
}

// parseNewCommand recognises "/new" and "/new <title>".
func parseNewCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "/new" {
		return "", true
	}
	if strings.HasPrefix(text, "/new ") {
		return strings.TrimSpace(strings.TrimPrefix(text, "/new ")), true
	}
	return "", false
}
