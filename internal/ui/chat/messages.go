// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import "github.com/jeranaias/ollama-ui/internal/ui/styles"

// =============================================================================
// STREAMING MESSAGES
// =============================================================================

// FragmentMsg carries one response fragment of request TurnID.
type FragmentMsg struct {
	TurnID string
	Text   string
}

// StreamEndMsg ends request TurnID. Err is nil when the response completed.
type StreamEndMsg struct {
	TurnID string
	Err    error
}

// =============================================================================
// STATUS MESSAGES
// =============================================================================

// OllamaStatusMsg reports the result of the startup health check.
type OllamaStatusMsg struct {
	Err error
}

// ThemeReloadedMsg carries a theme file reload.
type ThemeReloadedMsg struct {
	styles.Reload
}
