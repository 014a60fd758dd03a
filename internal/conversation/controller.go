// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/ollama"
	"github.com/jeranaias/ollama-ui/internal/storage"
)

// =============================================================================
// STATE
// =============================================================================

// State is the controller's position in the request lifecycle.
type State int

const (
	// Idle accepts a new prompt.
	Idle State = iota
	// Submitting has recorded the prompt and is opening the stream.
	Submitting
	// Streaming is receiving fragments.
	Streaming
	// Committing is saving the finished exchange.
	Committing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Streaming:
		return "streaming"
	case Committing:
		return "committing"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrBusy is returned when a prompt is submitted, or the session switched,
// while a request is in flight.
var ErrBusy = errors.New("a response is still streaming")

// =============================================================================
// COLLABORATORS
// =============================================================================

// StreamFunc opens the fragment stream for one prompt.
type StreamFunc func(ctx context.Context, prompt string) (Source, error)

// OllamaStream adapts a Responder to a StreamFunc.
func OllamaStream(r *ollama.Responder) StreamFunc {
	return func(ctx context.Context, prompt string) (Source, error) {
		frags, err := r.StreamResponse(ctx, prompt)
		if err != nil {
			return nil, err
		}
		return frags, nil
	}
}

// Committer persists a finished exchange. *storage.Store implements it.
type Committer interface {
	AppendExchange(id int, prompt, response string) error
}

// failedSource reports a stream that could not be opened.
type failedSource struct{ err error }

func (f failedSource) Next() (string, error) { return "", f.err }

// CloseSource releases src when it holds a connection.
func CloseSource(src Source) {
	if c, ok := src.(io.Closer); ok {
		_ = c.Close()
	}
}

// =============================================================================
// TURN
// =============================================================================

// Turn is the request in flight: an immutable prompt and the response
// accumulated so far.
type Turn struct {
	// ID distinguishes this request's messages from those of earlier ones.
	ID     string
	Prompt string

	acc     *Accumulator
	started time.Time
}

// Response returns the partial response.
func (t *Turn) Response() string {
	return t.acc.Text()
}

// Lines returns the partial response split at newlines.
func (t *Turn) Lines() []string {
	return t.acc.Lines()
}

// =============================================================================
// CONTROLLER
// =============================================================================

// Controller runs one request at a time against the active session.
//
// It is owned by a single event loop and is not safe for concurrent use.
// At most one Turn exists at a time; Submit returns ErrBusy until the
// current one is finished.
type Controller struct {
	store  Committer
	open   StreamFunc
	model  string
	state  State
	active storage.Session
	turn   *Turn
	log    *logging.Logger
}

// NewController creates an idle controller showing session.
func NewController(store Committer, open StreamFunc, session storage.Session) *Controller {
	return &Controller{
		store:  store,
		open:   open,
		active: session,
		log:    logging.For("conversation"),
	}
}

// SetModel records the model name for log records.
func (c *Controller) SetModel(model string) {
	c.model = model
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return c.state
}

// Busy reports whether a request is in flight; input must stay disabled.
func (c *Controller) Busy() bool {
	return c.state != Idle
}

// Turn returns the request in flight, or nil when idle.
func (c *Controller) Turn() *Turn {
	return c.turn
}

// Session returns the active session with its committed exchanges.
func (c *Controller) Session() storage.Session {
	s := c.active
	s.Exchanges = append([]storage.Exchange(nil), s.Exchanges...)
	return s
}

// SwitchTo replaces the displayed exchanges with those of session and makes
// it the target of later commits.
func (c *Controller) SwitchTo(session storage.Session) error {
	if c.Busy() {
		return ErrBusy
	}
	session.Exchanges = append([]storage.Exchange(nil), session.Exchanges...)
	c.active = session
	c.log.WithSession(session.ID).Info("session switched", "title", session.Title)
	return nil
}

// Submit starts a request for input. Blank input is ignored and returns a
// nil Source with no error. Otherwise the controller moves to Streaming and
// the caller must read the returned Source, passing each fragment to Append
// and the terminal error to Finish. A stream that cannot be opened comes
// back as a Source whose first Next fails, so Finish is always reached.
func (c *Controller) Submit(ctx context.Context, input string) (Source, error) {
	prompt := strings.TrimSpace(input)
	if prompt == "" {
		return nil, nil
	}
	if c.Busy() {
		return nil, ErrBusy
	}

	c.state = Submitting
	c.turn = &Turn{
		ID:      uuid.NewString(),
		Prompt:  prompt,
		acc:     NewAccumulator(nil),
		started: time.Now(),
	}
	c.log.WithSession(c.active.ID).WithRequest(c.turn.ID).RequestStarted(c.model, len(prompt))

	src, err := c.open(ctx, prompt)
	c.state = Streaming
	if err != nil {
		return failedSource{err: err}, nil
	}
	return src, nil
}

// Append adds a fragment to the response in flight and returns the text so
// far. It is ignored outside Streaming.
func (c *Controller) Append(fragment string) string {
	if c.state != Streaming || c.turn == nil {
		return ""
	}
	return c.turn.acc.Add(fragment)
}

// Finish commits the turn with whatever response accumulated and returns
// the controller to Idle. cause is the stream's terminal error; io.EOF and
// nil both mean the response completed. The returned error is the
// commit's, never cause.
func (c *Controller) Finish(cause error) (storage.Exchange, error) {
	if c.turn == nil {
		return storage.Exchange{}, nil
	}
	if errors.Is(cause, io.EOF) {
		cause = nil
	}

	c.state = Committing
	turn := c.turn
	ex := storage.Exchange{Prompt: turn.Prompt, Response: turn.Response()}

	log := c.log.WithSession(c.active.ID).WithRequest(turn.ID)
	log.RequestFinished(turn.acc.Fragments(), len(ex.Response), time.Since(turn.started), cause)

	err := c.store.AppendExchange(c.active.ID, ex.Prompt, ex.Response)
	if err != nil {
		log.Error("failed to save exchange", "error", err)
	} else {
		c.active.Exchanges = append(c.active.Exchanges, ex)
	}

	c.turn = nil
	c.state = Idle
	return ex, err
}

// Run submits input and reads the whole response, calling onUpdate with
// the full text after each fragment. The exchange is committed on every
// path out, including a failing stream or a panicking callback.
func (c *Controller) Run(ctx context.Context, input string, onUpdate func(text string)) (ex storage.Exchange, err error) {
	src, err := c.Submit(ctx, input)
	if err != nil || src == nil {
		return storage.Exchange{}, err
	}

	var cause error
	defer func() {
		CloseSource(src)
		ex, err = c.Finish(cause)
	}()

	for {
		frag, nextErr := src.Next()
		if nextErr != nil {
			cause = nextErr
			return
		}
		text := c.Append(frag)
		if onUpdate != nil {
			onUpdate(text)
		}
	}
}
