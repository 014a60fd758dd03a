// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package conversation

import (
	"errors"
	"io"
	"strings"
)

// Source yields response fragments until io.EOF or a failure.
// *ollama.Fragments implements it.
type Source interface {
	Next() (string, error)
}

// Normalize strips a single leading newline from a fragment. Any further
// newlines are part of the text.
func Normalize(fragment string) string {
	return strings.TrimPrefix(fragment, "\n")
}

// Accumulator concatenates normalized fragments in arrival order.
type Accumulator struct {
	text      strings.Builder
	fragments int
	onUpdate  func(text string)
}

// NewAccumulator creates an accumulator. onUpdate, when non-nil, receives
// the full text after every fragment, before the next one is read.
func NewAccumulator(onUpdate func(text string)) *Accumulator {
	return &Accumulator{onUpdate: onUpdate}
}

// Add appends one fragment and returns the full text so far.
func (a *Accumulator) Add(fragment string) string {
	a.text.WriteString(Normalize(fragment))
	a.fragments++

	full := a.text.String()
	if a.onUpdate != nil {
		a.onUpdate(full)
	}
	return full
}

// Drain reads src until it ends. It returns nil when the stream ended
// normally and the stream's error otherwise; the text gathered before a
// failure stays in the accumulator.
func (a *Accumulator) Drain(src Source) error {
	for {
		frag, err := src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		a.Add(frag)
	}
}

// Text returns the response accumulated so far.
func (a *Accumulator) Text() string {
	return a.text.String()
}

// Lines returns the text split at newlines, ready for line-wise rendering.
// An empty accumulator has one empty line.
func (a *Accumulator) Lines() []string {
	return strings.Split(a.text.String(), "\n")
}

// Fragments returns the number of fragments added.
func (a *Accumulator) Fragments() int {
	return a.fragments
}
