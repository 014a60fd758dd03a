// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the session sidebar for ollama-ui.
//
// The sidebar lists every stored session in store order, tracks which one
// is open and hands the full session to the conversation controller when
// the user picks another one or starts a new chat.
//
// # Key Types
//
//   - Sidebar: session list, cursor and switch actions
//   - Entry: one row of the list
//
// # Usage
//
//	first, err := session.Bootstrap(store, cfg.History.DefaultTitle)
//	ctrl := conversation.NewController(store, stream, first)
//	bar := session.NewSidebar(store, ctrl, cfg.History.DefaultTitle, first.ID)
//
//	if err := bar.Select(3); errors.Is(err, conversation.ErrBusy) {
//	    // still streaming; try again later
//	}
package session
