// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package styles

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Theme holds all the styled components for the application.
// It detects the terminal's color capability and adjusts accordingly.
type Theme struct {
	// Terminal capabilities
	IsDark       bool
	ColorProfile termenv.Profile

	Palette Palette

	// Source is the theme file this theme was read from, "" for built-in.
	Source string

	// ==========================================================================
	// LAYOUT STYLES
	// ==========================================================================

	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	HeaderModel lipgloss.Style
	Status      lipgloss.Style
	StatusOK    lipgloss.Style
	StatusError lipgloss.Style
	Help        lipgloss.Style

	// ==========================================================================
	// SIDEBAR STYLES
	// ==========================================================================

	Sidebar       lipgloss.Style
	SidebarTitle  lipgloss.Style
	SidebarItem   lipgloss.Style
	SidebarActive lipgloss.Style
	SidebarCursor lipgloss.Style
	SidebarCount  lipgloss.Style

	// ==========================================================================
	// CONVERSATION STYLES
	// ==========================================================================

	Conversation   lipgloss.Style
	UserLabel      lipgloss.Style
	UserText       lipgloss.Style
	AssistantLabel lipgloss.Style
	AssistantText  lipgloss.Style
	Pending        lipgloss.Style

	// ==========================================================================
	// INPUT STYLES
	// ==========================================================================

	Input         lipgloss.Style
	InputDisabled lipgloss.Style
	InputPrompt   lipgloss.Style
}

// NewTheme creates a theme from the built-in palette.
func NewTheme() *Theme {
	return NewThemeWithPalette(DefaultPalette())
}

// NewThemeWithPalette creates a theme from p.
func NewThemeWithPalette(p Palette) *Theme {
	t := &Theme{
		IsDark:       lipgloss.HasDarkBackground(),
		ColorProfile: termenv.ColorProfile(),
		Palette:      p,
	}
	t.initStyles()
	return t
}

// themeFile is the on-disk theme document.
type themeFile struct {
	Colors struct {
		Accent    colorSpec `toml:"accent"`
		User      colorSpec `toml:"user"`
		Assistant colorSpec `toml:"assistant"`
		Text      colorSpec `toml:"text"`
		Muted     colorSpec `toml:"muted"`
		Error     colorSpec `toml:"error"`
		Success   colorSpec `toml:"success"`
		Border    colorSpec `toml:"border"`
		Selection colorSpec `toml:"selection"`
	} `toml:"colors"`
}

// LoadTheme reads the theme file at path over the default palette.
// A missing file gives the built-in theme; an invalid one is an error.
func LoadTheme(path string) (*Theme, error) {
	p := DefaultPalette()

	var f themeFile
	if path != "" {
		if _, err := toml.DecodeFile(path, &f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return NewThemeWithPalette(p), nil
			}
			return nil, fmt.Errorf("theme %s: %w", path, err)
		}
	}

	c := f.Colors
	c.Accent.apply(&p.Accent)
	c.User.apply(&p.User)
	c.Assistant.apply(&p.Assistant)
	c.Text.apply(&p.Text)
	c.Muted.apply(&p.Muted)
	c.Error.apply(&p.Error)
	c.Success.apply(&p.Success)
	c.Border.apply(&p.Border)
	c.Selection.apply(&p.Selection)

	t := NewThemeWithPalette(p)
	t.Source = path
	return t, nil
}

// initStyles builds every style from the palette.
func (t *Theme) initStyles() {
	p := t.Palette

	// Layout
	t.Header = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.HeaderTitle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	t.HeaderModel = lipgloss.NewStyle().Foreground(p.Muted)
	t.Status = lipgloss.NewStyle().Foreground(p.Muted).Padding(0, 1)
	t.StatusOK = lipgloss.NewStyle().Foreground(p.Success)
	t.StatusError = lipgloss.NewStyle().Foreground(p.Error)
	t.Help = lipgloss.NewStyle().Foreground(p.Muted).Italic(true)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Border).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Foreground(p.Accent).Bold(true).MarginBottom(1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(p.Text)
	t.SidebarActive = lipgloss.NewStyle().Foreground(p.Accent).Bold(true)
	t.SidebarCursor = lipgloss.NewStyle().Background(p.Selection)
	t.SidebarCount = lipgloss.NewStyle().Foreground(p.Muted)

	// Conversation
	t.Conversation = lipgloss.NewStyle().Padding(0, 1)
	t.UserLabel = lipgloss.NewStyle().Foreground(p.User).Bold(true)
	t.UserText = lipgloss.NewStyle().Foreground(p.Text)
	t.AssistantLabel = lipgloss.NewStyle().Foreground(p.Assistant).Bold(true)
	t.AssistantText = lipgloss.NewStyle().Foreground(p.Text)
	t.Pending = lipgloss.NewStyle().Foreground(p.Accent)

	// Input
	t.Input = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(p.Accent).
		Padding(0, 1)
	t.InputDisabled = t.Input.BorderForeground(p.Muted).Foreground(p.Muted)
	t.InputPrompt = lipgloss.NewStyle().Foreground(p.User).Bold(true)
}

// GlamourStyle returns the glamour standard style name matching the background.
func (t *Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}
