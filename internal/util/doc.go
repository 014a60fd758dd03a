// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared by the ollama-ui packages.
//
// # Key Functions
//
//   - AtomicWriteFile: crash-safe file replacement (temp file + fsync + rename)
//   - ExpandHome: resolve a leading "~" against the user's home directory
//   - TruncateWidth: display-width aware truncation for sidebar labels
//
// # Usage
//
//	err := util.AtomicWriteFile(path, data, 0600)
//	label := util.TruncateWidth(title, 24)
package util
