// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/util"
)

// =============================================================================
// SESSION TYPES
// =============================================================================

// Exchange is one completed prompt/response pair.
type Exchange struct {
	Prompt   string
	Response string
}

// Session is a named, ordered list of exchanges.
type Session struct {
	ID        int
	Title     string
	Exchanges []Exchange

	// unknown keeps fields of the persisted record this program does not
	// read, so saving writes them back unchanged
	unknown *unknownFields
}

// clone returns a copy that shares no backing array with s.
func (s Session) clone() Session {
	s.Exchanges = append([]Exchange(nil), s.Exchanges...)
	return s
}

// =============================================================================
// WIRE FORMAT
// =============================================================================

// record is the persisted shape of a Session.
type record struct {
	ChatID  int              `json:"chat_id"`
	Message string           `json:"message"`
	Content []exchangeRecord `json:"content"`

	extra map[string]json.RawMessage
}

type exchangeRecord struct {
	Prompt   string `json:"prompt"`
	Response string `json:"response"`

	extra map[string]json.RawMessage
}

// unknownFields are the extra keys of one record and of each of its
// content elements, by exchange index. Loaded once and never mutated.
type unknownFields struct {
	record  map[string]json.RawMessage
	content []map[string]json.RawMessage
}

func (r *record) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := takeField(fields, "chat_id", &r.ChatID); err != nil {
		return err
	}
	if err := takeField(fields, "message", &r.Message); err != nil {
		return err
	}
	if err := takeField(fields, "content", &r.Content); err != nil {
		return err
	}
	r.extra = nonEmpty(fields)
	return nil
}

func (r record) MarshalJSON() ([]byte, error) {
	type plain record
	return marshalWithExtra(plain(r), r.extra)
}

func (e *exchangeRecord) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	if err := takeField(fields, "prompt", &e.Prompt); err != nil {
		return err
	}
	if err := takeField(fields, "response", &e.Response); err != nil {
		return err
	}
	e.extra = nonEmpty(fields)
	return nil
}

func (e exchangeRecord) MarshalJSON() ([]byte, error) {
	type plain exchangeRecord
	return marshalWithExtra(plain(e), e.extra)
}

// decodeObject splits a JSON object into its raw fields. null decodes to
// no fields.
func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// takeField decodes fields[key] into dst, if present, and removes it.
func takeField(fields map[string]json.RawMessage, key string, dst any) error {
	raw, ok := fields[key]
	if !ok {
		return nil
	}
	delete(fields, key)
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	return nil
}

func nonEmpty(fields map[string]json.RawMessage) map[string]json.RawMessage {
	if len(fields) == 0 {
		return nil
	}
	return fields
}

// marshalWithExtra encodes v and adds the extra keys it does not already set.
func marshalWithExtra(v any, extra map[string]json.RawMessage) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return data, err
	}

	fields := make(map[string]json.RawMessage, len(extra)+3)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := fields[k]; !ok {
			fields[k] = raw
		}
	}
	return json.Marshal(fields)
}

func toRecord(s Session) record {
	r := record{ChatID: s.ID, Message: s.Title, Content: make([]exchangeRecord, 0, len(s.Exchanges))}
	if s.unknown != nil {
		r.extra = s.unknown.record
	}
	for i, e := range s.Exchanges {
		er := exchangeRecord{Prompt: e.Prompt, Response: e.Response}
		if s.unknown != nil && i < len(s.unknown.content) {
			er.extra = s.unknown.content[i]
		}
		r.Content = append(r.Content, er)
	}
	return r
}

func fromRecord(r record) Session {
	s := Session{ID: r.ChatID, Title: r.Message}
	unknown := &unknownFields{record: r.extra}
	kept := r.extra != nil

	for _, e := range r.Content {
		s.Exchanges = append(s.Exchanges, Exchange{Prompt: e.Prompt, Response: e.Response})
		unknown.content = append(unknown.content, e.extra)
		kept = kept || e.extra != nil
	}
	if kept {
		s.unknown = unknown
	}
	return s
}

// =============================================================================
// STORE
// =============================================================================

// Store is the ordered list of chat sessions backed by one JSON file.
//
// A Store has exactly one writer: the event loop that owns it. It takes no
// locks, so calling its methods from more than one goroutine is a bug.
// Accessors return copies; the only way to change a session is through
// CreateSession and AppendExchange, both of which persist immediately.
type Store struct {
	path     string
	sessions []Session
	log      *logging.Logger
}

// NewStore creates an empty, unloaded store for the document at path.
func NewStore(path string) *Store {
	return &Store{path: path, log: logging.For("storage")}
}

// Open creates a store for path and loads it.
func Open(path string) (*Store, error) {
	s := NewStore(path)
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load replaces the in-memory list with the persisted document. A missing
// document is a first run: the list starts empty and is saved at once.
// A document that cannot be decoded fails with ErrMalformedHistory and
// leaves the file untouched.
func (s *Store) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.sessions = nil
		s.log.Info("history file missing, creating", "path", s.path)
		return s.Save()
	}
	if err != nil {
		return fmt.Errorf("read history: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrMalformedHistory, s.path, err)
	}

	sessions := make([]Session, 0, len(records))
	for _, r := range records {
		sessions = append(sessions, fromRecord(r))
	}
	s.sessions = sessions

	s.log.Debug("history loaded", "path", s.path, "sessions", len(sessions))
	return nil
}

// Save overwrites the document with the full in-memory list.
func (s *Store) Save() error {
	records := make([]record, 0, len(s.sessions))
	for _, sess := range s.sessions {
		records = append(records, toRecord(sess))
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	if err := util.AtomicWriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write history: %w", err)
	}
	return nil
}

// CreateSession appends a session with no exchanges and persists the list.
//
// The id is one more than the number of sessions. Sessions are never
// deleted, so this also keeps ids unique and increasing; a hand-edited
// document whose ids run ahead of its length still gets an id above the
// current maximum.
func (s *Store) CreateSession(title string) (Session, error) {
	sess := Session{ID: s.nextID(), Title: title}
	s.sessions = append(s.sessions, sess)

	if err := s.Save(); err != nil {
		s.sessions = s.sessions[:len(s.sessions)-1]
		return Session{}, err
	}

	s.log.WithSession(sess.ID).Info("session created", "title", title)
	return sess.clone(), nil
}

func (s *Store) nextID() int {
	next := len(s.sessions) + 1
	for _, sess := range s.sessions {
		if sess.ID >= next {
			next = sess.ID + 1
		}
	}
	return next
}

// AppendExchange adds a completed exchange to session id and persists the list.
func (s *Store) AppendExchange(id int, prompt, response string) error {
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}

	prev := s.sessions[i].Exchanges
	s.sessions[i].Exchanges = append(append([]Exchange(nil), prev...), Exchange{Prompt: prompt, Response: response})

	if err := s.Save(); err != nil {
		s.sessions[i].Exchanges = prev
		return err
	}

	s.log.WithSession(id).Debug("exchange saved", "exchanges", len(s.sessions[i].Exchanges))
	return nil
}

// MostRecent returns the last session in store order.
func (s *Store) MostRecent() (Session, bool) {
	if len(s.sessions) == 0 {
		return Session{}, false
	}
	return s.sessions[len(s.sessions)-1].clone(), true
}

// Get returns the session with the given id.
func (s *Store) Get(id int) (Session, error) {
	i := s.indexOf(id)
	if i < 0 {
		return Session{}, fmt.Errorf("%w: %d", ErrSessionNotFound, id)
	}
	return s.sessions[i].clone(), nil
}

// Sessions returns every session in store order.
func (s *Store) Sessions() []Session {
	out := make([]Session, len(s.sessions))
	for i, sess := range s.sessions {
		out[i] = sess.clone()
	}
	return out
}

// Len returns the number of sessions.
func (s *Store) Len() int {
	return len(s.sessions)
}

func (s *Store) indexOf(id int) int {
	for i := range s.sessions {
		if s.sessions[i].ID == id {
			return i
		}
	}
	return -1
}

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrSessionNotFound is returned when no session has the requested id.
	ErrSessionNotFound = &StoreError{Message: "session not found"}

	// ErrMalformedHistory is returned by Load when the history document
	// exists but is not a valid session list.
	ErrMalformedHistory = &StoreError{Message: "malformed chat history"}
)

// StoreError represents a storage error comparable with errors.Is.
type StoreError struct {
	Message string
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return e.Message
}

// Is implements errors.Is support for comparing store errors.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Message == t.Message
}
