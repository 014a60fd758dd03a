// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"fmt"
	"regexp"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PALETTE
// =============================================================================

// Palette is the set of colors every style is built from.
type Palette struct {
	// Accent - header title, active session, focused borders
	Accent lipgloss.AdaptiveColor
	// User - prompt label
	User lipgloss.AdaptiveColor
	// Assistant - response label
	Assistant lipgloss.AdaptiveColor
	// Text - main body text
	Text lipgloss.AdaptiveColor
	// Muted - hints, counts, disabled input
	Muted lipgloss.AdaptiveColor
	// Error - status line failures
	Error lipgloss.AdaptiveColor
	// Success - status line "connected"
	Success lipgloss.AdaptiveColor
	// Border - pane borders and separators
	Border lipgloss.AdaptiveColor
	// Selection - sidebar cursor background
	Selection lipgloss.AdaptiveColor
}

// DefaultPalette returns the built-in colors.
func DefaultPalette() Palette {
	return Palette{
		Accent:    lipgloss.AdaptiveColor{Light: "#7C3AED", Dark: "#A78BFA"},
		User:      lipgloss.AdaptiveColor{Light: "#0891B2", Dark: "#22D3EE"},
		Assistant: lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"},
		Text:      lipgloss.AdaptiveColor{Light: "#1F2937", Dark: "#CDD6F4"},
		Muted:     lipgloss.AdaptiveColor{Light: "#9CA3AF", Dark: "#6C7086"},
		Error:     lipgloss.AdaptiveColor{Light: "#E11D48", Dark: "#FB7185"},
		Success:   lipgloss.AdaptiveColor{Light: "#059669", Dark: "#34D399"},
		Border:    lipgloss.AdaptiveColor{Light: "#D4D4D4", Dark: "#45475A"},
		Selection: lipgloss.AdaptiveColor{Light: "#E5E5E5", Dark: "#313244"},
	}
}

// =============================================================================
// THEME FILE COLORS
// =============================================================================

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// colorSpec is a theme file color: a single hex string or a
// { light = "...", dark = "..." } table.
type colorSpec struct {
	Light string
	Dark  string
	set   bool
}

// UnmarshalTOML implements toml.Unmarshaler.
func (c *colorSpec) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case string:
		c.Light, c.Dark = val, val
	case map[string]any:
		light, _ := val["light"].(string)
		dark, _ := val["dark"].(string)
		if light == "" {
			light = dark
		}
		if dark == "" {
			dark = light
		}
		c.Light, c.Dark = light, dark
	default:
		return fmt.Errorf("color must be a string or {light, dark} table, got %T", v)
	}

	for _, h := range []string{c.Light, c.Dark} {
		if !hexColor.MatchString(h) {
			return fmt.Errorf("invalid hex color %q", h)
		}
	}
	c.set = true
	return nil
}

// apply replaces dst when the file set this color.
func (c colorSpec) apply(dst *lipgloss.AdaptiveColor) {
	if c.set {
		*dst = lipgloss.AdaptiveColor{Light: c.Light, Dark: c.Dark}
	}
}
