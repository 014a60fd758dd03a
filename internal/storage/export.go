// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/ollama-ui/internal/util"
)

// =============================================================================
// SESSION EXPORT
// =============================================================================

// ExportMarkdown renders the session as Markdown, one section per exchange.
func (s Session) ExportMarkdown() string {
	var sb strings.Builder
	sb.WriteString("# " + s.Title + "\n\n")
	sb.WriteString("Session " + strconv.Itoa(s.ID) + ", " + strconv.Itoa(len(s.Exchanges)) + " exchanges\n\n")
	sb.WriteString("---\n\n")

	for _, e := range s.Exchanges {
		sb.WriteString("**You**:\n\n")
		sb.WriteString(e.Prompt)
		sb.WriteString("\n\n**Assistant**:\n\n")
		sb.WriteString(e.Response)
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String()
}

// ExportJSON returns the session in its persisted shape, pretty-printed.
func (s Session) ExportJSON() ([]byte, error) {
	return json.MarshalIndent(toRecord(s), "", "  ")
}

// Preview returns the first prompt on one line, or "" for an empty session.
func (s Session) Preview() string {
	for _, e := range s.Exchanges {
		if p := util.SingleLine(e.Prompt); p != "" {
			return util.TruncateWidth(p, 80)
		}
	}
	return ""
}

// =============================================================================
// SESSION LIST FORMATTING
// =============================================================================

// FormatSessionList formats sessions as a table for terminal output.
// active marks the row of the currently open session; pass 0 for none.
func FormatSessionList(sessions []Session, active int) string {
	if len(sessions) == 0 {
		return "No sessions found."
	}

	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	sb.WriteString("-----------------------------------------------------\n")
	sb.WriteString("  " + formatPadded("ID", 5) + " " + formatPadded("Title", 24) + " " + formatPadded("Turns", 6) + " Preview\n")
	sb.WriteString("-----------------------------------------------------\n")

	for _, s := range sessions {
		marker := "  "
		if s.ID == active {
			marker = "* "
		}
		sb.WriteString(marker +
			formatPadded(strconv.Itoa(s.ID), 5) + " " +
			formatPadded(util.TruncateWidth(util.SingleLine(s.Title), 24), 24) + " " +
			formatPadded(strconv.Itoa(len(s.Exchanges)), 6) + " " +
			util.TruncateWidth(s.Preview(), 30) + "\n")
	}
	return sb.String()
}

// formatPadded pads s with spaces to width display columns.
func formatPadded(s string, width int) string {
	return runewidth.FillRight(s, width)
}
