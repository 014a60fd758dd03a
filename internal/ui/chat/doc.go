// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat provides the full-screen chat interface for ollama-ui.

The screen has three parts: a session sidebar on the left, the scrolling
conversation on the right and an input line at the bottom. A header shows
the window title, the model and the connection status.

# Key Components

## Model (model.go)

The Bubble Tea model. It owns the conversation controller and the sidebar
and is the only code that touches them, so neither needs locking.

## Update Loop (update.go)

Keyboard handling, window resize, and the streaming messages. Each response
fragment arrives as its own FragmentMsg; the command that reads the next one
is issued only after the previous fragment has been applied, which keeps the
interface responsive for the whole response.

## View Rendering (view.go)

Header, sidebar, conversation and input. Finished responses are rendered as
Markdown with glamour; the response in flight is shown as plain text.

# Usage

	m := chat.New(chat.Options{
		Controller: ctrl,
		Sidebar:    bar,
		Health:     client,
		ModelName:  cfg.Ollama.Model,
		Theme:      theme,
		Markdown:   true,
	})
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
*/
package chat
