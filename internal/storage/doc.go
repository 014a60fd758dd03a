// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides chat session persistence for ollama-ui.
//
// Every session lives in one JSON document whose root is an ordered array.
// Each element is written as
//
//	{"chat_id": 1, "message": "New Chat Session", "content": [{"prompt": "hi", "response": "hello"}]}
//
// Every mutation rewrites the whole document atomically.
//
// # Key Types
//
//   - Store: ordered list of sessions backed by the JSON document
//   - Session: one named conversation (id, title, exchanges)
//   - Exchange: one prompt/response pair
//
// # Usage
//
//	store, err := storage.Open(cfg.History.Path)
//	if errors.Is(err, storage.ErrMalformedHistory) {
//	    // refuse to start rather than overwrite the user's history
//	}
//	s, err := store.CreateSession("New Chat Session")
//	err = store.AppendExchange(s.ID, "hi", "hello")
package storage
