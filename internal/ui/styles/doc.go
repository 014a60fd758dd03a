// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for ollama-ui.
//
// Colors come from a Palette of Lip Gloss AdaptiveColors so the UI follows
// the terminal's light or dark background. A theme file (TOML) can
// override any palette entry:
//
//	[colors]
//	accent = "#A78BFA"                              # same in light and dark
//	user   = { light = "#0891B2", dark = "#22D3EE" }
//
// In dev mode a Watcher reloads the theme file whenever it changes and the
// TUI swaps in the new Theme without restarting.
package styles
