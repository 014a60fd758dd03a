// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

// =============================================================================
// STREAM READER
// =============================================================================

// StreamReader handles line-by-line JSON parsing of a streamed /api/chat body.
//
// A stream ends normally only on a line with "done": true. A body that
// closes before that, an "error" line, or an undecodable line ends the
// stream abnormally with an error matching ErrStreamAborted.
type StreamReader struct {
	body   io.ReadCloser
	reader *bufio.Reader
	model  string
	done   bool
	err    error
	stats  *StreamStats
}

// NewStreamReader creates a new stream reader over a response body.
func NewStreamReader(body io.ReadCloser) *StreamReader {
	return &StreamReader{
		body:   body,
		reader: bufio.NewReader(body),
		stats:  NewStreamStats(),
	}
}

// Next returns the next chunk. It returns io.EOF after the final chunk
// and keeps returning the same terminal error once the stream has failed.
func (s *StreamReader) Next() (*StreamChunk, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.done {
		return nil, io.EOF
	}

	for {
		line, readErr := s.reader.ReadBytes('\n')
		line = bytes.TrimSpace(line)

		if len(line) > 0 {
			chunk, err := s.parse(line)
			if err != nil {
				return nil, s.fail(err)
			}
			return chunk, nil
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				readErr = io.ErrUnexpectedEOF
			}
			return nil, s.fail(readErr)
		}
		// blank keep-alive line
	}
}

// parse decodes one NDJSON line into a chunk.
func (s *StreamReader) parse(line []byte) (*StreamChunk, error) {
	var resp chatLine
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("malformed stream line: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}

	if resp.Model != "" {
		s.model = resp.Model
	}

	chunk := &StreamChunk{
		Content:    resp.Message.Content,
		Model:      s.model,
		Done:       resp.Done,
		DoneReason: resp.DoneReason,
	}

	if chunk.Content != "" {
		s.stats.RecordFirstToken()
	}

	if resp.Done {
		chunk.TotalDuration = time.Duration(resp.TotalDuration)
		chunk.EvalDuration = time.Duration(resp.EvalDuration)
		chunk.PromptTokens = resp.PromptEvalCount
		chunk.CompletionTokens = resp.EvalCount
		s.stats.Finalize(*chunk)
		s.done = true
		s.body.Close()
	}

	return chunk, nil
}

func (s *StreamReader) fail(cause error) error {
	s.err = &ClientError{Type: ErrTypeStreamAborted, Message: ErrStreamAborted.Message, Cause: cause}
	s.body.Close()
	return s.err
}

// Close releases the response body. Safe to call more than once.
func (s *StreamReader) Close() error {
	return s.body.Close()
}

// Model returns the model name reported by the stream.
func (s *StreamReader) Model() string {
	return s.model
}

// Stats returns timing collected so far; complete only after the final chunk.
func (s *StreamReader) Stats() *StreamStats {
	return s.stats
}

// =============================================================================
// STREAM STATISTICS
// =============================================================================

// StreamStats holds statistics collected during streaming.
type StreamStats struct {
	StartTime      time.Time
	FirstTokenTime time.Time
	EndTime        time.Time

	// Durations (from Ollama response)
	TotalDuration time.Duration
	EvalDuration  time.Duration

	// Token counts
	PromptTokens     int
	CompletionTokens int

	// Computed
	TTFT            time.Duration // Time to first token
	TokensPerSecond float64
}

// NewStreamStats creates a new StreamStats with start time set.
func NewStreamStats() *StreamStats {
	return &StreamStats{StartTime: time.Now()}
}

// RecordFirstToken marks the time of first token arrival.
func (s *StreamStats) RecordFirstToken() {
	if s.FirstTokenTime.IsZero() {
		s.FirstTokenTime = time.Now()
		s.TTFT = s.FirstTokenTime.Sub(s.StartTime)
	}
}

// Finalize computes final statistics from the last chunk.
func (s *StreamStats) Finalize(chunk StreamChunk) {
	s.EndTime = time.Now()
	s.TotalDuration = chunk.TotalDuration
	s.EvalDuration = chunk.EvalDuration
	s.PromptTokens = chunk.PromptTokens
	s.CompletionTokens = chunk.CompletionTokens

	if s.EvalDuration > 0 {
		s.TokensPerSecond = float64(s.CompletionTokens) / s.EvalDuration.Seconds()
	}
}

// Format returns a one-line summary for the status bar.
func (s *StreamStats) Format() string {
	total := s.TotalDuration
	if total == 0 && !s.EndTime.IsZero() {
		total = s.EndTime.Sub(s.StartTime)
	}
	return fmt.Sprintf("%s | %d tokens | %.1f tok/s | TTFT %dms",
		total.Round(time.Millisecond), s.CompletionTokens, s.TokensPerSecond, s.TTFT.Milliseconds())
}
