// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/session"
	"github.com/jeranaias/ollama-ui/internal/storage"
)

// =============================================================================
// HELPERS
// =============================================================================

// isolate points HOME at a temp dir and clears overrides, so nothing
// touches the developer's real config, history or log.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("NO_COLOR", "1")
	for _, k := range []string{
		"OLLAMA_UI_URL", "OLLAMA_HOST", "OLLAMA_UI_MODEL",
		"OLLAMA_UI_HISTORY", "OLLAMA_UI_DEV_MODE", "OLLAMA_UI_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
	return home
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func historyArgs(t *testing.T, home string) (string, []string) {
	path := filepath.Join(home, "chats.json")
	return path, []string{"--config", filepath.Join(home, "absent.toml"), "--history", path}
}

// ollamaServer streams fragments for /api/chat and lists one model.
func ollamaServer(t *testing.T, fragments ...string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			w.Header().Set("Content-Type", "application/x-ndjson")
			enc := json.NewEncoder(w)
			for _, f := range fragments {
				enc.Encode(map[string]any{
					"model":   "onecern",
					"message": map[string]string{"role": "assistant", "content": f},
					"done":    false,
				})
			}
			enc.Encode(map[string]any{"model": "onecern", "done": true, "eval_count": len(fragments)})
		case "/api/tags":
			io.WriteString(w, `{"models":[{"name":"onecern","size":4000000000,"details":{"parameter_size":"8B"}},{"name":"llama3","size":100}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

// =============================================================================
// COMMAND TREE
// =============================================================================

func TestRootCmd_Structure(t *testing.T) {
	root := NewRootCmd()

	for _, name := range []string{"tui", "chat", "sessions", "models"} {
		cmd, _, err := root.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, cmd.Name())
	}
	for _, flag := range []string{"config", "model", "url", "history", "dev"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), flag)
	}
}

func TestInvalidURLFlag(t *testing.T) {
	home := isolate(t)
	_, args := historyArgs(t, home)

	_, err := run(t, "", append(args, "--url", "not a url", "sessions")...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ollama.url")
}

// =============================================================================
// SESSIONS
// =============================================================================

func TestSessions_NewListShow(t *testing.T) {
	home := isolate(t)
	_, args := historyArgs(t, home)

	out, err := run(t, "", append(args, "sessions", "new", "Trip", "planning")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created session 1: Trip planning")

	out, err = run(t, "", append(args, "sessions", "new")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Created session 2: New Chat Session")

	out, err = run(t, "", append(args, "sessions", "list")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Trip planning")
	assert.Contains(t, out, "* 2")

	out, err = run(t, "", append(args, "sessions", "show", "1", "--format", "json")...)
	require.NoError(t, err)
	assert.JSONEq(t, `{"chat_id":1,"message":"Trip planning","content":[]}`, out)

	out, err = run(t, "", append(args, "sessions", "show", "1")...)
	require.NoError(t, err)
	assert.Contains(t, out, "# Trip planning")
}

func TestSessions_ShowErrors(t *testing.T) {
	home := isolate(t)
	_, args := historyArgs(t, home)

	_, err := run(t, "", append(args, "sessions", "show", "9")...)
	assert.True(t, errors.Is(err, storage.ErrSessionNotFound), "got %v", err)

	_, err = run(t, "", append(args, "sessions", "show", "abc")...)
	assert.Error(t, err)

	_, err = run(t, "", append(args, "sessions", "new", "x")...)
	require.NoError(t, err)
	_, err = run(t, "", append(args, "sessions", "show", "1", "--format", "yaml")...)
	assert.ErrorContains(t, err, "unknown format")
}

func TestSessions_MalformedHistoryUntouched(t *testing.T) {
	home := isolate(t)
	path, args := historyArgs(t, home)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := run(t, "", append(args, "sessions", "list")...)
	require.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrMalformedHistory))
	assert.Contains(t, err.Error(), "left unchanged")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "{not json", string(data))
}

// =============================================================================
// MODELS
// =============================================================================

func TestModels(t *testing.T) {
	home := isolate(t)
	_, args := historyArgs(t, home)
	srv := ollamaServer(t)

	out, err := run(t, "", append(args, "--url", srv.URL, "models")...)
	require.NoError(t, err)
	assert.Contains(t, out, "* onecern")
	assert.Contains(t, out, "3.7 GB")
	assert.Contains(t, out, "  llama3")
}

func TestModels_NotRunning(t *testing.T) {
	home := isolate(t)
	_, args := historyArgs(t, home)
	srv := ollamaServer(t)
	url := srv.URL
	srv.Close()

	_, err := run(t, "", append(args, "--url", url, "models")...)
	require.Error(t, err)
}

// =============================================================================
// CHAT
// =============================================================================

func TestChatCommand_StreamsAndPersists(t *testing.T) {
	home := isolate(t)
	path, args := historyArgs(t, home)
	srv := ollamaServer(t, "Hello", "\n there")

	out, err := run(t, "What's up?\n", append(args, "--url", srv.URL, "chat")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Hello there")

	store, err := storage.Open(path)
	require.NoError(t, err)
	s, ok := store.MostRecent()
	require.True(t, ok)
	require.Len(t, s.Exchanges, 1)
	assert.Equal(t, storage.Exchange{Prompt: "What's up?", Response: "Hello there"}, s.Exchanges[0])
}

type fragments struct{ list []string }

func (f *fragments) Next() (string, error) {
	if len(f.list) == 0 {
		return "", io.EOF
	}
	next := f.list[0]
	f.list = f.list[1:]
	return next, nil
}

func TestREPL_Commands(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, err)
	first, err := session.Bootstrap(store, "New Chat Session")
	require.NoError(t, err)

	open := func(ctx context.Context, prompt string) (conversation.Source, error) {
		return &fragments{list: []string{"echo: ", prompt}}, nil
	}
	ctrl := conversation.NewController(store, open, first)

	var out bytes.Buffer
	r := &repl{
		ctrl:   ctrl,
		bar:    session.NewSidebar(store, ctrl, "New Chat Session", first.ID),
		store:  store,
		out:    &out,
		render: func(s string) string { return s },
	}

	input := strings.Join([]string{
		"one",
		"/new Second",
		"two",
		"/sessions",
		"/switch 1",
		"/show",
		"/bogus",
		"/quit",
		"never sent",
	}, "\n")
	require.NoError(t, r.run(context.Background(), newPlainReader(strings.NewReader(input)), "onecern"))

	text := out.String()
	assert.Contains(t, text, "echo: one")
	assert.Contains(t, text, "Session 2: Second")
	assert.Contains(t, text, "unknown command /bogus")
	assert.Contains(t, text, "**Assistant**:\n\necho: one")
	assert.NotContains(t, text, "never sent")

	s1, err := store.Get(1)
	require.NoError(t, err)
	assert.Equal(t, []storage.Exchange{{Prompt: "one", Response: "echo: one"}}, s1.Exchanges)
	s2, err := store.Get(2)
	require.NoError(t, err)
	assert.Equal(t, []storage.Exchange{{Prompt: "two", Response: "echo: two"}}, s2.Exchanges)
	assert.Equal(t, 1, ctrl.Session().ID)
}

func TestREPL_SwitchUsage(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, err)
	first, err := session.Bootstrap(store, "New Chat Session")
	require.NoError(t, err)
	ctrl := conversation.NewController(store, nil, first)
	r := &repl{ctrl: ctrl, bar: session.NewSidebar(store, ctrl, "x", first.ID), store: store, out: io.Discard}

	_, err = r.command("/switch")
	assert.ErrorContains(t, err, "usage")

	_, err = r.command("/switch 42")
	assert.True(t, errors.Is(err, storage.ErrSessionNotFound))

	quit, err := r.command("/exit")
	assert.NoError(t, err)
	assert.True(t, quit)
}

func TestCommitAbandoned(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, err)
	first, err := session.Bootstrap(store, "New Chat Session")
	require.NoError(t, err)

	open := func(ctx context.Context, prompt string) (conversation.Source, error) {
		return &fragments{list: []string{"never read"}}, nil
	}
	ctrl := conversation.NewController(store, open, first)

	_, err = ctrl.Submit(context.Background(), "hi")
	require.NoError(t, err)
	ctrl.Append("partial")

	commitAbandoned(nil, ctrl)
	assert.False(t, ctrl.Busy())

	s, err := store.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, []storage.Exchange{{Prompt: "hi", Response: "partial"}}, s.Exchanges)

	// idle controller: nothing further is written
	commitAbandoned(nil, ctrl)
	s, err = store.Get(first.ID)
	require.NoError(t, err)
	assert.Len(t, s.Exchanges, 1)
}
