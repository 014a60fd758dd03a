// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/storage"
)

type oneShot struct{ done bool }

func (o *oneShot) Next() (string, error) {
	if o.done {
		return "", io.EOF
	}
	o.done = true
	return "reply", nil
}

func stream(ctx context.Context, prompt string) (conversation.Source, error) {
	return &oneShot{}, nil
}

func setup(t *testing.T) (*storage.Store, *conversation.Controller, *Sidebar) {
	t.Helper()
	store, err := storage.Open(filepath.Join(t.TempDir(), "chat_history.json"))
	require.NoError(t, err)

	first, err := Bootstrap(store, "New Chat Session")
	require.NoError(t, err)

	ctrl := conversation.NewController(store, stream, first)
	return store, ctrl, NewSidebar(store, ctrl, "New Chat Session", first.ID)
}

func TestBootstrap_EmptyStoreCreatesSession(t *testing.T) {
	store, _, bar := setup(t)

	require.Equal(t, 1, store.Len())
	entries := bar.Entries()
	require.Len(t, entries, 1)
	require.Equal(t, Entry{ID: 1, Title: "New Chat Session", Active: true}, entries[0])
}

func TestBootstrap_OpensMostRecent(t *testing.T) {
	store, err := storage.Open(filepath.Join(t.TempDir(), "h.json"))
	require.NoError(t, err)
	_, err = store.CreateSession("one")
	require.NoError(t, err)
	_, err = store.CreateSession("two")
	require.NoError(t, err)

	s, err := Bootstrap(store, "unused")
	require.NoError(t, err)
	require.Equal(t, 2, s.ID)
	require.Equal(t, 2, store.Len())
}

func TestNewChat_CreatesAndSwitches(t *testing.T) {
	store, ctrl, bar := setup(t)

	s, err := bar.NewChat("  Permits  ")
	require.NoError(t, err)
	require.Equal(t, 2, s.ID)
	require.Equal(t, "Permits", s.Title)
	require.Equal(t, 2, bar.Active())
	require.Equal(t, 2, ctrl.Session().ID)
	require.Equal(t, 1, bar.Cursor())

	blank, err := bar.NewChat("")
	require.NoError(t, err)
	require.Equal(t, "New Chat Session", blank.Title)

	spaces, err := bar.NewChat(" \t ")
	require.NoError(t, err)
	require.Equal(t, "New Chat Session", spaces.Title)
	require.Equal(t, 4, store.Len())
}

func TestSelect_ReplacesDisplayedExchanges(t *testing.T) {
	store, ctrl, bar := setup(t)

	_, err := ctrl.Run(context.Background(), "in first", nil)
	require.NoError(t, err)

	_, err = bar.NewChat("second")
	require.NoError(t, err)
	require.Empty(t, ctrl.Session().Exchanges)

	require.NoError(t, bar.Select(1))
	require.Equal(t, []storage.Exchange{{Prompt: "in first", Response: "reply"}}, ctrl.Session().Exchanges)

	// commits now land in session 1
	_, err = ctrl.Run(context.Background(), "again", nil)
	require.NoError(t, err)
	got, err := store.Get(1)
	require.NoError(t, err)
	require.Len(t, got.Exchanges, 2)

	entries := bar.Entries()
	require.True(t, entries[0].Active)
	require.False(t, entries[1].Active)
	require.Equal(t, 2, entries[0].Exchanges)
}

func TestSelect_UnknownID(t *testing.T) {
	_, _, bar := setup(t)
	require.ErrorIs(t, bar.Select(99), storage.ErrSessionNotFound)
	require.Equal(t, 1, bar.Active())
}

func TestSwitchRejectedWhileStreaming(t *testing.T) {
	store, ctrl, bar := setup(t)
	_, err := store.CreateSession("other")
	require.NoError(t, err)

	_, err = ctrl.Submit(context.Background(), "busy")
	require.NoError(t, err)

	require.ErrorIs(t, bar.Select(2), conversation.ErrBusy)
	_, err = bar.NewChat("nope")
	require.ErrorIs(t, err, conversation.ErrBusy)
	require.Equal(t, 2, store.Len(), "no session created while busy")
	require.Equal(t, 1, bar.Active())
}

func TestCursor(t *testing.T) {
	store, ctrl, bar := setup(t)
	_, err := store.CreateSession("b")
	require.NoError(t, err)
	_, err = store.CreateSession("c")
	require.NoError(t, err)

	bar.CursorUp()
	require.Equal(t, 0, bar.Cursor())
	bar.CursorDown()
	bar.CursorDown()
	bar.CursorDown()
	require.Equal(t, 2, bar.Cursor())

	require.NoError(t, bar.SelectCursor())
	require.Equal(t, 3, bar.Active())
	require.Equal(t, 3, ctrl.Session().ID)
}
