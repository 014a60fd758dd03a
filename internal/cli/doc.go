// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli provides the ollama-ui command tree.
//
// # Commands
//
//   - (none), tui: full-screen chat with the session sidebar
//   - chat: line-oriented chat for plain terminals and pipes
//   - sessions list|new|show: inspect the history file
//   - models: list models installed on the Ollama server
//
// Global flags (--config, --model, --url, --history, --dev) override the
// config file and environment for a single run.
package cli
