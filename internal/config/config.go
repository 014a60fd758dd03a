// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/jeranaias/ollama-ui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete ollama-ui configuration.
type Config struct {
	Ollama  OllamaConfig  `toml:"ollama"`
	History HistoryConfig `toml:"history"`
	UI      UIConfig      `toml:"ui"`
	Log     LogConfig     `toml:"log"`
}

// OllamaConfig contains the model service settings.
type OllamaConfig struct {
	// URL is the Ollama API base URL
	URL string `toml:"url"`
	// Model is the model every prompt is sent to
	Model string `toml:"model"`
	// SystemPrompt, when set, is sent as a system message ahead of each prompt
	SystemPrompt string `toml:"system_prompt"`
	// TimeoutSecs bounds non-streaming calls (health check, model list)
	TimeoutSecs int `toml:"timeout_secs"`
}

// HistoryConfig contains chat session persistence settings.
type HistoryConfig struct {
	// Path is the JSON document holding every session
	Path string `toml:"path"`
	// DefaultTitle names sessions created without an explicit title
	DefaultTitle string `toml:"default_title"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// ThemePath is the stylesheet (TOML palette) applied to the TUI
	ThemePath string `toml:"theme_path"`
	// DevMode re-applies ThemePath whenever the file changes
	DevMode bool `toml:"dev_mode"`
	// Markdown renders finished responses with glamour
	Markdown bool `toml:"markdown"`
	// SidebarWidth is the session list width in columns
	SidebarWidth int `toml:"sidebar_width"`
}

// LogConfig contains structured logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `toml:"level"`
	// Path is the log file; the TUI owns the terminal so logs never go to stdout
	Path string `toml:"path"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

const (
	// DefaultSessionTitle is the title of sessions created by "New Chat".
	DefaultSessionTitle = "New Chat Session"

	defaultURL   = "http://127.0.0.1:11434"
	defaultModel = "onecern"
)

// Default returns a Config with built-in defaults. Paths keep their "~"
// prefix; Load expands them.
func Default() *Config {
	return &Config{
		Ollama: OllamaConfig{
			URL:         defaultURL,
			Model:       defaultModel,
			TimeoutSecs: 30,
		},
		History: HistoryConfig{
			Path:         "~/.ollama-ui/chat_history.json",
			DefaultTitle: DefaultSessionTitle,
		},
		UI: UIConfig{
			ThemePath:    "~/.ollama-ui/theme.toml",
			DevMode:      false,
			Markdown:     true,
			SidebarWidth: 28,
		},
		Log: LogConfig{
			Level: "info",
			Path:  "~/.ollama-ui/ollama-ui.log",
		},
	}
}

// ConfigDir returns the ollama-ui configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".ollama-ui"), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load reads the config file at path (DefaultPath when empty), fills
// defaults, applies environment overrides and validates the result.
// A missing file yields the defaults; a malformed one is an error.
func Load(path string) (*Config, error) {
	// .env never overrides variables already present in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("ignoring unreadable .env file", "error", err)
	}

	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	cfg.fillDefaults()
	cfg.ApplyEnvOverrides()
	cfg.expandPaths()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes cfg as TOML to path with owner-only permissions.
func Save(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# ollama-ui configuration file\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return util.AtomicWriteFile(path, []byte(b.String()), 0600)
}

// fillDefaults restores defaults for fields a config file explicitly blanked.
func (c *Config) fillDefaults() {
	d := Default()

	if c.Ollama.URL == "" {
		c.Ollama.URL = d.Ollama.URL
	}
	if c.Ollama.Model == "" {
		c.Ollama.Model = d.Ollama.Model
	}
	if c.Ollama.TimeoutSecs == 0 {
		c.Ollama.TimeoutSecs = d.Ollama.TimeoutSecs
	}
	if c.History.Path == "" {
		c.History.Path = d.History.Path
	}
	if strings.TrimSpace(c.History.DefaultTitle) == "" {
		c.History.DefaultTitle = d.History.DefaultTitle
	}
	if c.UI.ThemePath == "" {
		c.UI.ThemePath = d.UI.ThemePath
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = d.UI.SidebarWidth
	}
	if c.Log.Level == "" {
		c.Log.Level = d.Log.Level
	}
	if c.Log.Path == "" {
		c.Log.Path = d.Log.Path
	}
}

func (c *Config) expandPaths() {
	c.History.Path = util.ExpandHome(c.History.Path)
	c.UI.ThemePath = util.ExpandHome(c.UI.ThemePath)
	c.Log.Path = util.ExpandHome(c.Log.Path)
}

// Timeout returns the non-streaming request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Ollama.TimeoutSecs) * time.Second
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - OLLAMA_UI_URL: overrides ollama.url (OLLAMA_HOST is used when unset)
//   - OLLAMA_UI_MODEL: overrides ollama.model
//   - OLLAMA_UI_HISTORY: overrides history.path
//   - OLLAMA_UI_DEV_MODE: "1" or "true" enables theme hot reload
//   - OLLAMA_UI_LOG_LEVEL: overrides log.level
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("OLLAMA_UI_URL"); u != "" {
		c.Ollama.URL = u
	} else if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.Ollama.URL = normalizeHost(host)
	}

	if model := os.Getenv("OLLAMA_UI_MODEL"); model != "" {
		c.Ollama.Model = model
	}

	if path := os.Getenv("OLLAMA_UI_HISTORY"); path != "" {
		c.History.Path = path
	}

	if dev := os.Getenv("OLLAMA_UI_DEV_MODE"); dev != "" {
		c.UI.DevMode = dev == "1" || strings.EqualFold(dev, "true")
	}

	if level := os.Getenv("OLLAMA_UI_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
}

// normalizeHost turns an OLLAMA_HOST value ("0.0.0.0:11434", "host") into a URL.
func normalizeHost(host string) string {
	if strings.HasPrefix(host, "http://") || strings.HasPrefix(host, "https://") {
		return strings.TrimSuffix(host, "/")
	}
	if !strings.Contains(host, ":") {
		host += ":11434"
	}
	return "http://" + host
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a single invalid setting.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the configuration and returns every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if u, err := url.Parse(c.Ollama.URL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "ollama.url",
			Message: fmt.Sprintf("invalid URL %q", c.Ollama.URL),
		})
	}

	if strings.TrimSpace(c.Ollama.Model) == "" {
		errs = append(errs, ValidationError{Field: "ollama.model", Message: "must not be empty"})
	}

	if c.Ollama.TimeoutSecs < 0 {
		errs = append(errs, ValidationError{Field: "ollama.timeout_secs", Message: "cannot be negative"})
	}

	if c.UI.SidebarWidth < 10 || c.UI.SidebarWidth > 80 {
		errs = append(errs, ValidationError{
			Field:   "ui.sidebar_width",
			Message: fmt.Sprintf("%d out of range 10-80", c.UI.SidebarWidth),
		})
	}

	if _, ok := ParseLevel(c.Log.Level); !ok {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Message: fmt.Sprintf("invalid level %q, must be one of: debug, info, warn, error", c.Log.Level),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return slog.LevelInfo, false
}
