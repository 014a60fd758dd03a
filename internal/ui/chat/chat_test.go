// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/session"
	"github.com/jeranaias/ollama-ui/internal/storage"
	"github.com/jeranaias/ollama-ui/internal/ui/styles"
)

// =============================================================================
// HELPERS
// =============================================================================

type fragSource struct {
	frags []string
	err   error
}

func (s *fragSource) Next() (string, error) {
	if len(s.frags) > 0 {
		f := s.frags[0]
		s.frags = s.frags[1:]
		return f, nil
	}
	if s.err != nil {
		return "", s.err
	}
	return "", io.EOF
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) CheckRunning(ctx context.Context) error { return f(ctx) }

func newTestModel(t *testing.T) (Model, *storage.Store, *conversation.Controller) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "chat_history.json"))
	require.NoError(t, err)

	first, err := session.Bootstrap(store, "New Chat Session")
	require.NoError(t, err)

	open := func(ctx context.Context, prompt string) (conversation.Source, error) {
		return &fragSource{frags: []string{"unused"}}, nil
	}
	ctrl := conversation.NewController(store, open, first)
	bar := session.NewSidebar(store, ctrl, "New Chat Session", first.ID)

	m := New(Options{
		Controller:   ctrl,
		Sidebar:      bar,
		ModelName:    "onecern",
		SidebarWidth: 24,
	})
	m = send(m, tea.WindowSizeMsg{Width: 100, Height: 30})
	return m, store, ctrl
}

func send(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func typeText(m Model, text string) Model {
	return send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func enter(m Model) Model {
	return send(m, tea.KeyMsg{Type: tea.KeyEnter})
}

// =============================================================================
// TESTS
// =============================================================================

func TestView_LoadingBeforeSize(t *testing.T) {
	m := New(Options{})
	assert.Equal(t, "Loading...", m.View())
}

func TestView_ShowsHeaderAndSidebar(t *testing.T) {
	m, _, _ := newTestModel(t)
	view := m.View()

	assert.Contains(t, view, WindowTitle)
	assert.Contains(t, view, "onecern")
	assert.Contains(t, view, "Sessions")
	assert.Contains(t, view, "New Chat")
}

func TestSubmit_StreamsAndCommits(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m = typeText(m, "What is Go?")
	m = enter(m)
	require.True(t, ctrl.Busy())
	turn := ctrl.Turn()
	require.NotNil(t, turn)
	assert.Equal(t, "What is Go?", turn.Prompt)

	m = send(m, FragmentMsg{TurnID: turn.ID, Text: "Go is "})
	m = send(m, FragmentMsg{TurnID: turn.ID, Text: "\na language."})
	assert.Equal(t, "Go is a language.", ctrl.Turn().Response())
	assert.Contains(t, m.View(), "Go is a language.")

	m = send(m, StreamEndMsg{TurnID: turn.ID})
	assert.False(t, ctrl.Busy())
	assert.Empty(t, m.input.Value())

	s, err := store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	require.Len(t, s.Exchanges, 1)
	assert.Equal(t, storage.Exchange{Prompt: "What is Go?", Response: "Go is a language."}, s.Exchanges[0])
}

func TestSubmit_BlankInputIsNoop(t *testing.T) {
	m, _, ctrl := newTestModel(t)

	m = typeText(m, "   ")
	_ = enter(m)
	assert.False(t, ctrl.Busy())
}

func TestStreamEnd_ErrorCommitsPartial(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m = enter(typeText(m, "hi"))
	turn := ctrl.Turn()
	m = send(m, FragmentMsg{TurnID: turn.ID, Text: "partial"})
	m = send(m, StreamEndMsg{TurnID: turn.ID, Err: errors.New("connection reset")})

	assert.False(t, ctrl.Busy())
	assert.Empty(t, m.notice)
	s, err := store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	require.Len(t, s.Exchanges, 1)
	assert.Equal(t, "partial", s.Exchanges[0].Response)
}

func TestStaleTurnIgnored(t *testing.T) {
	m, _, ctrl := newTestModel(t)

	m = enter(typeText(m, "hi"))
	m = send(m, FragmentMsg{TurnID: "stale", Text: "nope"})
	m = send(m, StreamEndMsg{TurnID: "stale"})

	assert.True(t, ctrl.Busy())
	assert.Empty(t, ctrl.Turn().Response())
}

func TestKeysIgnoredWhileBusy(t *testing.T) {
	m, _, ctrl := newTestModel(t)

	m = enter(typeText(m, "first"))
	turn := ctrl.Turn()
	m = typeText(m, "second")
	m = enter(m)

	assert.Equal(t, turn.ID, ctrl.Turn().ID)
	assert.Empty(t, m.input.Value())
	assert.Contains(t, m.View(), "waiting for response")
}

func TestNewCommand_CreatesSession(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m = enter(typeText(m, "/new Permits"))
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, "Permits", ctrl.Session().Title)
	assert.Empty(t, m.input.Value())
	assert.False(t, ctrl.Busy())
}

func TestNewChat_RejectedWhileBusy(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m = enter(typeText(m, "hi"))
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlN})

	assert.Equal(t, 1, store.Len())
	assert.True(t, ctrl.Busy())
	assert.Equal(t, "Wait for the current response to finish.", m.notice)
}

func TestSidebar_SwitchSession(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	first := ctrl.Session().ID
	require.NoError(t, store.AppendExchange(first, "old question", "old answer"))
	m = send(m, tea.KeyMsg{Type: tea.KeyCtrlN})
	require.NotEqual(t, first, ctrl.Session().ID)

	m = send(m, tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, focusSidebar, m.focus)

	// the new session is highlighted; move up to the older one and open it
	m = send(m, tea.KeyMsg{Type: tea.KeyUp})
	m = send(m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, first, ctrl.Session().ID)
	assert.Equal(t, focusInput, m.focus)
	assert.Contains(t, m.View(), "old answer")
}

func TestParseNewCommand(t *testing.T) {
	tests := []struct {
		in    string
		title string
		ok    bool
	}{
		{"/new", "", true},
		{"  /new  ", "", true},
		{"/new Trip planning", "Trip planning", true},
		{"/newer", "", false},
		{"tell me about /new", "", false},
	}

	for _, tc := range tests {
		title, ok := parseNewCommand(tc.in)
		if title != tc.title || ok != tc.ok {
			t.Errorf("parseNewCommand(%q) = (%q, %v), want (%q, %v)", tc.in, title, ok, tc.title, tc.ok)
		}
	}
}

func TestListenCmd(t *testing.T) {
	src := &fragSource{frags: []string{"a"}, err: errors.New("boom")}

	msg := listenCmd("t1", src)()
	assert.Equal(t, FragmentMsg{TurnID: "t1", Text: "a"}, msg)

	end, ok := listenCmd("t1", src)().(StreamEndMsg)
	require.True(t, ok)
	assert.EqualError(t, end.Err, "boom")

	done := listenCmd("t2", &fragSource{})()
	assert.Equal(t, StreamEndMsg{TurnID: "t2"}, done)
}

func TestOllamaStatus(t *testing.T) {
	m, _, _ := newTestModel(t)

	msg := checkOllamaCmd(healthFunc(func(ctx context.Context) error {
		return errors.New("ollama is not running")
	}))()
	m = send(m, msg)
	assert.Equal(t, connDown, m.conn)
	assert.Contains(t, m.View(), "ollama is not running")

	m = send(m, OllamaStatusMsg{})
	assert.Equal(t, connOK, m.conn)
	assert.Nil(t, checkOllamaCmd(nil))
}

func TestThemeReload(t *testing.T) {
	m, _, _ := newTestModel(t)

	p := styles.DefaultPalette()
	p.Accent.Dark = "#ff0000"
	theme := styles.NewThemeWithPalette(p)

	m = send(m, ThemeReloadedMsg{Reload: styles.Reload{Theme: theme}})
	assert.Same(t, theme, m.theme)

	// a failed reload keeps the current theme
	m = send(m, ThemeReloadedMsg{Reload: styles.Reload{Err: errors.New("bad toml")}})
	assert.Same(t, theme, m.theme)
}

func TestMarkdownRendering(t *testing.T) {
	m, store, ctrl := newTestModel(t)
	m.markdown = true

	require.NoError(t, store.AppendExchange(ctrl.Session().ID, "q", "some **bold** text"))
	s, err := store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	require.NoError(t, ctrl.SwitchTo(s))

	m.refresh()
	view := m.View()
	assert.Contains(t, view, "bold")
	assert.False(t, strings.Contains(view, "**bold**"), "emphasis markers should be rendered")
	assert.Len(t, m.rendered, 1)
}

func TestVisibleWindow(t *testing.T) {
	tests := []struct {
		n, cursor, rows int
		start, end      int
	}{
		{3, 0, 10, 0, 3},
		{20, 0, 5, 0, 5},
		{20, 4, 5, 0, 5},
		{20, 12, 5, 8, 13},
		{20, 19, 5, 15, 20},
		{4, 2, 0, 2, 3},
	}

	for _, tc := range tests {
		start, end := visibleWindow(tc.n, tc.cursor, tc.rows)
		if start != tc.start || end != tc.end {
			t.Errorf("visibleWindow(%d, %d, %d) = [%d, %d), want [%d, %d)",
				tc.n, tc.cursor, tc.rows, start, end, tc.start, tc.end)
		}
	}
}

type closingSource struct {
	fragSource
	closed bool
}

func (c *closingSource) Close() error {
	c.closed = true
	return nil
}

func TestQuit_WhileStreamingCommitsPartial(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m = enter(typeText(m, "hi"))
	turn := ctrl.Turn()
	m = send(m, FragmentMsg{TurnID: turn.ID, Text: "partial"})

	src := &closingSource{}
	m.src = src

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.False(t, ctrl.Busy())
	assert.True(t, src.closed)
	assert.Nil(t, next.(Model).src)

	s, err := store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	assert.Equal(t, []storage.Exchange{{Prompt: "hi", Response: "partial"}}, s.Exchanges)

	// a late end of the aborted stream changes nothing
	next, _ = next.Update(StreamEndMsg{TurnID: turn.ID})
	s, err = store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	assert.Len(t, s.Exchanges, 1)
	_ = next
}

func TestShutdown_IdleIsNoop(t *testing.T) {
	m, store, ctrl := newTestModel(t)

	m.Shutdown()
	assert.False(t, ctrl.Busy())
	s, err := store.Get(ctrl.Session().ID)
	require.NoError(t, err)
	assert.Empty(t, s.Exchanges)

	var zero Model
	zero.Shutdown()
}
