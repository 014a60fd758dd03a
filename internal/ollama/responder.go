// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"context"
	"io"
)

// =============================================================================
// RESPONDER
// =============================================================================

// Streamer opens a streamed chat completion. *Client implements it.
type Streamer interface {
	OpenChatStream(ctx context.Context, model string, messages []Message) (*StreamReader, error)
}

// Responder turns a single prompt into a sequence of text fragments from
// one model, optionally preceded by a fixed system instruction.
type Responder struct {
	streamer Streamer
	model    string
	system   string
}

// NewResponder creates a Responder. An empty systemPrompt sends the prompt alone.
func NewResponder(s Streamer, model, systemPrompt string) *Responder {
	return &Responder{streamer: s, model: model, system: systemPrompt}
}

// Model returns the model prompts are sent to.
func (r *Responder) Model() string {
	return r.model
}

// StreamResponse issues one chat request for prompt. Failures to start the
// request are returned directly; failures after that surface from
// Fragments.Next.
func (r *Responder) StreamResponse(ctx context.Context, prompt string) (*Fragments, error) {
	messages := make([]Message, 0, 2)
	if r.system != "" {
		messages = append(messages, NewSystemMessage(r.system))
	}
	messages = append(messages, NewUserMessage(prompt))

	reader, err := r.streamer.OpenChatStream(ctx, r.model, messages)
	if err != nil {
		return nil, err
	}
	return &Fragments{reader: reader}, nil
}

// =============================================================================
// FRAGMENTS
// =============================================================================

// Fragments is the pull side of one streamed response. It is consumed by a
// single goroutine and cannot be restarted; issue a new StreamResponse for
// another attempt.
type Fragments struct {
	reader *StreamReader
	count  int
}

// Next blocks until the next non-empty text fragment arrives. It returns
// io.EOF when the response completed normally and an error matching
// ErrStreamAborted when it did not. Fragments are passed through unchanged.
func (f *Fragments) Next() (string, error) {
	for {
		chunk, err := f.reader.Next()
		if err != nil {
			return "", err
		}
		if chunk.Content != "" {
			f.count++
			return chunk.Content, nil
		}
		if chunk.Done {
			return "", io.EOF
		}
	}
}

// Count returns how many fragments have been delivered.
func (f *Fragments) Count() int {
	return f.count
}

// Stats returns the underlying stream statistics.
func (f *Fragments) Stats() *StreamStats {
	return f.reader.Stats()
}

// Close abandons the stream and releases its connection.
func (f *Fragments) Close() error {
	return f.reader.Close()
}
