// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/ollama-ui/internal/util"
)

// View renders the chat screen.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderSidebar(),
		m.theme.Conversation.Render(m.viewport.View()),
	)

	return lipgloss.JoinVertical(lipgloss.Left,
		m.renderHeader(),
		body,
		m.renderInput(),
		m.renderHelp(),
	)
}

// refresh rebuilds the conversation content from the controller.
func (m *Model) refresh() {
	if m.ctrl == nil {
		return
	}
	m.viewport.SetContent(m.renderConversation(m.viewport.Width - 2))
}

// =============================================================================
// HEADER AND FOOTER
// =============================================================================

func (m Model) renderHeader() string {
	title := m.theme.HeaderTitle.Render(WindowTitle)
	model := m.theme.HeaderModel.Render(m.modelName)

	var conn string
	switch m.conn {
	case connOK:
		conn = m.theme.StatusOK.Render("● connected")
	case connDown:
		conn = m.theme.StatusError.Render("● " + util.TruncateWidth(m.connErr.Error(), 40))
	default:
		conn = m.theme.HeaderModel.Render("○ checking")
	}

	sess := m.ctrl.Session()
	left := title + "  " + model + "  " + conn
	right := m.theme.HeaderModel.Render(util.TruncateWidth(sess.Title, 30))

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return m.theme.Header.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderInput() string {
	if m.ctrl.Busy() {
		return m.theme.InputDisabled.Width(m.width - 2).Render(m.spinner.View() + " waiting for response...")
	}
	style := m.theme.Input
	if m.focus != focusInput {
		style = m.theme.InputDisabled
	}
	return style.Width(m.width - 2).Render(m.input.View())
}

func (m Model) renderHelp() string {
	if m.notice != "" {
		return m.theme.StatusError.Render(" " + m.notice)
	}
	if m.focus == focusSidebar {
		return m.theme.Help.Render(" " + helpLine(m.keys.SidebarHelp()))
	}
	return m.theme.Help.Render(" " + helpLine(m.keys.ShortHelp()))
}

// =============================================================================
// SIDEBAR
// =============================================================================

func (m Model) renderSidebar() string {
	inner := m.sidebarWidth - 4 // border + padding
	height := m.viewport.Height - 2
	var b strings.Builder
	b.WriteString(m.theme.SidebarTitle.Render("Sessions"))
	b.WriteString("\n")

	// title and its margin take two rows
	entries := m.bar.Entries()
	start, end := visibleWindow(len(entries), m.bar.Cursor(), height-2)

	for i := start; i < end; i++ {
		e := entries[i]
		count := strconv.Itoa(e.Exchanges)
		title := util.TruncateWidth(util.SingleLine(e.Title), inner-len(count)-3)
		row := title + strings.Repeat(" ", max(1, inner-lipgloss.Width(title)-len(count)-2)) + m.theme.SidebarCount.Render(count)

		style := m.theme.SidebarItem
		marker := "  "
		if e.Active {
			style = m.theme.SidebarActive
			marker = "▸ "
		}
		line := style.Render(marker + row)
		if m.focus == focusSidebar && i == m.bar.Cursor() {
			line = m.theme.SidebarCursor.Render(line)
		}
		b.WriteString(line + "\n")
	}

	return m.theme.Sidebar.
		Width(m.sidebarWidth - 2).
		Height(height).
		MaxHeight(height + 2).
		Render(strings.TrimSuffix(b.String(), "\n"))
}

// visibleWindow returns the [start, end) range of n rows that fits in
// rows lines and keeps cursor on screen.
func visibleWindow(n, cursor, rows int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if n <= rows {
		return 0, n
	}
	start := cursor - rows + 1
	if start < 0 {
		start = 0
	}
	return start, start + rows
}

// =============================================================================
// CONVERSATION
// =============================================================================

// renderConversation renders committed exchanges, then the request in flight.
func (m *Model) renderConversation(width int) string {
	if width < 10 {
		width = 10
	}
	wrap := lipgloss.NewStyle().Width(width)

	sess := m.ctrl.Session()
	var b strings.Builder

	if len(sess.Exchanges) == 0 && m.ctrl.Turn() == nil {
		b.WriteString(m.theme.Help.Render("No messages yet. Type a question below."))
		return b.String()
	}

	for i, ex := range sess.Exchanges {
		b.WriteString(m.theme.UserLabel.Render("You") + "\n")
		b.WriteString(m.theme.UserText.Render(wrap.Render(ex.Prompt)) + "\n\n")
		b.WriteString(m.theme.AssistantLabel.Render("Assistant") + "\n")
		b.WriteString(m.renderResponse(renderKey{session: sess.ID, index: i}, ex.Response, width) + "\n\n")
	}

	if turn := m.ctrl.Turn(); turn != nil {
		b.WriteString(m.theme.UserLabel.Render("You") + "\n")
		b.WriteString(m.theme.UserText.Render(wrap.Render(turn.Prompt)) + "\n\n")
		b.WriteString(m.theme.AssistantLabel.Render("Assistant") + " " + m.spinner.View() + "\n")
		lines := turn.Lines()
		b.WriteString(m.theme.AssistantText.Render(wrap.Render(strings.Join(lines, "\n"))))
	}

	return strings.TrimRight(b.String(), "\n")
}

// renderResponse renders a committed response, as Markdown when enabled.
func (m *Model) renderResponse(k renderKey, text string, width int) string {
	if !m.markdown {
		return m.theme.AssistantText.Render(lipgloss.NewStyle().Width(width).Render(text))
	}
	if m.rendererWidth != width {
		m.renderer = nil
		m.rendered = make(map[renderKey]string)
	}
	if out, ok := m.rendered[k]; ok {
		return out
	}

	if m.renderer == nil {
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(m.theme.GlamourStyle()),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			m.log.Warn("markdown renderer unavailable", "error", err)
			m.markdown = false
			return m.renderResponse(k, text, width)
		}
		m.renderer, m.rendererWidth = r, width
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		out = text
	}
	out = strings.Trim(out, "\n")
	m.rendered[k] = out
	return out
}
