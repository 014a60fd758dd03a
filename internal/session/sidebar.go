// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"

	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/storage"
)

// Store is the part of *storage.Store the sidebar reads and writes.
type Store interface {
	Sessions() []storage.Session
	Get(id int) (storage.Session, error)
	CreateSession(title string) (storage.Session, error)
	MostRecent() (storage.Session, bool)
}

// Switcher receives the selected session. *conversation.Controller
// implements it.
type Switcher interface {
	Busy() bool
	SwitchTo(session storage.Session) error
}

// Entry is one row of the session list.
type Entry struct {
	ID        int
	Title     string
	Exchanges int
	Active    bool
}

// Sidebar lists sessions and switches the conversation between them.
// Like the store it reads, it belongs to one event loop.
type Sidebar struct {
	store        Store
	target       Switcher
	defaultTitle string
	active       int
	cursor       int
	log          *logging.Logger
}

// NewSidebar creates a sidebar with session active open and under the cursor.
func NewSidebar(store Store, target Switcher, defaultTitle string, active int) *Sidebar {
	b := &Sidebar{
		store:        store,
		target:       target,
		defaultTitle: defaultTitle,
		active:       active,
		log:          logging.For("sidebar"),
	}
	b.cursorTo(active)
	return b
}

// Bootstrap returns the session to open at startup: the most recent one,
// or a freshly created session titled title when the store is empty.
func Bootstrap(store Store, title string) (storage.Session, error) {
	if s, ok := store.MostRecent(); ok {
		return s, nil
	}
	return store.CreateSession(title)
}

// Entries re-reads the store and returns one entry per session in store order.
func (b *Sidebar) Entries() []Entry {
	sessions := b.store.Sessions()
	entries := make([]Entry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, Entry{
			ID:        s.ID,
			Title:     s.Title,
			Exchanges: len(s.Exchanges),
			Active:    s.ID == b.active,
		})
	}
	return entries
}

// Active returns the id of the open session.
func (b *Sidebar) Active() int {
	return b.active
}

// Select opens session id in the conversation view.
func (b *Sidebar) Select(id int) error {
	s, err := b.store.Get(id)
	if err != nil {
		return err
	}
	if err := b.target.SwitchTo(s); err != nil {
		return err
	}
	b.active = id
	b.cursorTo(id)
	return nil
}

// NewChat creates a session and opens it. A blank title uses the default.
// Nothing is created while a response is streaming.
func (b *Sidebar) NewChat(title string) (storage.Session, error) {
	if b.target.Busy() {
		return storage.Session{}, conversation.ErrBusy
	}
	title = strings.TrimSpace(title)
	if title == "" {
		title = b.defaultTitle
	}

	s, err := b.store.CreateSession(title)
	if err != nil {
		return storage.Session{}, err
	}
	if err := b.Select(s.ID); err != nil {
		return storage.Session{}, err
	}
	b.log.WithSession(s.ID).Debug("new chat opened")
	return s, nil
}

// =============================================================================
// CURSOR
// =============================================================================

// Cursor returns the index of the highlighted entry.
func (b *Sidebar) Cursor() int {
	return b.cursor
}

// CursorUp moves the highlight one entry up.
func (b *Sidebar) CursorUp() {
	if b.cursor > 0 {
		b.cursor--
	}
}

// CursorDown moves the highlight one entry down.
func (b *Sidebar) CursorDown() {
	if b.cursor < len(b.store.Sessions())-1 {
		b.cursor++
	}
}

// SelectCursor opens the highlighted session.
func (b *Sidebar) SelectCursor() error {
	sessions := b.store.Sessions()
	if b.cursor < 0 || b.cursor >= len(sessions) {
		return nil
	}
	return b.Select(sessions[b.cursor].ID)
}

func (b *Sidebar) cursorTo(id int) {
	for i, s := range b.store.Sessions() {
		if s.ID == id {
			b.cursor = i
			return
		}
	}
}
