// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for ollama-ui.
//
// Configuration is a TOML file with defaults filled in for anything left
// unset, then environment overrides, then validation.
//
// # Key Types
//
//   - Config: complete configuration
//   - OllamaConfig: model server URL, model name, system instruction
//   - HistoryConfig: session history file and default session title
//   - UIConfig: theme file, dev-mode hot reload, markdown rendering
//   - LogConfig: structured log level and destination
//
// # Precedence
//
//   - Environment variables (OLLAMA_UI_*, OLLAMA_HOST), including values
//     from a .env file in the working directory
//   - ~/.ollama-ui/config.toml (or the path passed to Load)
//   - Built-in defaults
//
// # Usage
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    return err
//	}
//	client := ollama.NewClientWithConfig(&ollama.ClientConfig{BaseURL: cfg.Ollama.URL})
package config
