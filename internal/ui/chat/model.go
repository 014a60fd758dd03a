// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/session"
	"github.com/jeranaias/ollama-ui/internal/ui/styles"
)

// WindowTitle is shown in the header and set as the terminal title.
const WindowTitle = "Ollama UI"

// focusArea is the pane receiving key presses.
type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// connStatus is the result of the startup health check.
type connStatus int

const (
	connUnknown connStatus = iota
	connOK
	connDown
)

// =============================================================================
// OPTIONS
// =============================================================================

// Options configures a chat Model.
type Options struct {
	Controller *conversation.Controller
	Sidebar    *session.Sidebar

	// Health, when set, is checked once at startup for the status line.
	Health HealthChecker

	ModelName string
	Theme     *styles.Theme

	// ThemeWatcher, when set, hot-reloads Theme.
	ThemeWatcher *styles.Watcher

	// Markdown renders finished responses with glamour.
	Markdown bool

	// SidebarWidth is the session list width in columns.
	SidebarWidth int
}

// =============================================================================
// CHAT MODEL
// =============================================================================

// Model is the Bubble Tea model for the chat screen.
type Model struct {
	ctrl    *conversation.Controller
	bar     *session.Sidebar
	health  HealthChecker
	watcher *styles.Watcher
	ctx     context.Context

	modelName    string
	theme        *styles.Theme
	markdown     bool
	sidebarWidth int
	keys         KeyMap

	// UI components
	viewport viewport.Model
	input    textinput.Model
	spinner  spinner.Model

	// src is the stream of the request in flight
	src conversation.Source

	focus  focusArea
	width  int
	height int
	ready  bool

	conn    connStatus
	connErr error
	notice  string

	// rendered caches glamour output for committed responses
	renderer      *glamour.TermRenderer
	rendererWidth int
	rendered      map[renderKey]string

	log *logging.Logger
}

type renderKey struct {
	session int
	index   int
}

// New creates the chat model.
func New(opts Options) Model {
	theme := opts.Theme
	if theme == nil {
		theme = styles.NewTheme()
	}
	width := opts.SidebarWidth
	if width <= 0 {
		width = 28
	}

	in := textinput.New()
	in.Placeholder = "Ask something..."
	in.Prompt = "> "
	in.CharLimit = 0
	in.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	m := Model{
		ctrl:         opts.Controller,
		bar:          opts.Sidebar,
		health:       opts.Health,
		watcher:      opts.ThemeWatcher,
		ctx:          context.Background(),
		modelName:    opts.ModelName,
		theme:        theme,
		markdown:     opts.Markdown,
		sidebarWidth: width,
		keys:         DefaultKeyMap(),
		viewport:     viewport.New(0, 0),
		input:        in,
		spinner:      sp,
		rendered:     make(map[renderKey]string),
		log:          logging.For("tui"),
	}
	m.applyTheme()
	return m
}

// Init starts the health check, the theme watcher and sets the title.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.SetWindowTitle(WindowTitle),
		textinput.Blink,
		checkOllamaCmd(m.health),
		waitForThemeCmd(m.watcher),
	)
}

// applyTheme pushes theme styles into the bubbles components.
func (m *Model) applyTheme() {
	m.input.PromptStyle = m.theme.InputPrompt
	m.spinner.Style = m.theme.Pending
	m.renderer = nil
	m.rendered = make(map[renderKey]string)
}

// layout sizes the components for the current window.
func (m *Model) layout() {
	// header (2) + input box (3) + help line (1)
	convHeight := m.height - 6
	if convHeight < 3 {
		convHeight = 3
	}
	convWidth := m.width - m.sidebarWidth - 2
	if convWidth < 20 {
		convWidth = 20
	}

	m.viewport.Width = convWidth
	m.viewport.Height = convHeight
	m.input.Width = m.width - 8
	m.refresh()
}
