// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollama-ui/internal/config"
	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/logging"
	"github.com/jeranaias/ollama-ui/internal/ollama"
	"github.com/jeranaias/ollama-ui/internal/session"
	"github.com/jeranaias/ollama-ui/internal/storage"
	"github.com/jeranaias/ollama-ui/internal/util"
)

// Version information (can be overridden at build time)
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// globalFlags are the persistent flags shared by every command.
type globalFlags struct {
	configPath string
	model      string
	url        string
	history    string
	dev        bool

	// set by the root command before any subcommand runs
	cfg     *config.Config
	logFile io.Closer
}

// NewRootCmd builds the command tree. Running it without a subcommand
// starts the TUI.
func NewRootCmd() *cobra.Command {
	g := &globalFlags{}

	root := &cobra.Command{
		Use:   "ollama-ui",
		Short: "Chat with a local Ollama model",
		Long: `ollama-ui is a terminal chat client for a local Ollama server.

Responses stream in as they are generated. Every exchange is saved to a
JSON history file and past sessions can be reopened from the sidebar.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return g.setup()
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			g.teardown()
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(g)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.configPath, "config", "", "config file (default ~/.ollama-ui/config.toml)")
	pf.StringVarP(&g.model, "model", "m", "", "model to chat with")
	pf.StringVar(&g.url, "url", "", "Ollama server URL")
	pf.StringVar(&g.history, "history", "", "chat history file")
	pf.BoolVar(&g.dev, "dev", false, "reload the theme file when it changes")

	root.AddCommand(
		newTUICmd(g),
		newChatCmd(g),
		newSessionsCmd(g),
		newModelsCmd(g),
	)
	return root
}

// Execute runs the command tree and returns the process exit code.
func Execute() int {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ErrorStyle.Render("Error:"), err)
		return 1
	}
	return 0
}

// setup loads the config and routes logging to the configured file.
func (g *globalFlags) setup() error {
	cfg, err := g.loadConfig()
	if err != nil {
		return err
	}
	level, _ := config.ParseLevel(cfg.Log.Level)
	logFile, err := logging.Setup(cfg.Log.Path, level)
	if err != nil {
		return err
	}
	g.cfg, g.logFile = cfg, logFile
	return nil
}

func (g *globalFlags) teardown() {
	if g.logFile != nil {
		g.logFile.Close()
		g.logFile = nil
	}
}

// loadConfig reads the config file and applies the global flags on top.
func (g *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}

	if g.model != "" {
		cfg.Ollama.Model = g.model
	}
	if g.url != "" {
		cfg.Ollama.URL = g.url
	}
	if g.history != "" {
		cfg.History.Path = util.ExpandHome(g.history)
	}
	if g.dev {
		cfg.UI.DevMode = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// APPLICATION WIRING
// =============================================================================

// app holds everything a chat frontend needs.
type app struct {
	cfg    *config.Config
	client *ollama.Client
	store  *storage.Store
	ctrl   *conversation.Controller
	bar    *session.Sidebar
}

// openStore opens the history file. A malformed file is reported without
// touching it.
func openStore(path string) (*storage.Store, error) {
	store, err := storage.Open(path)
	if errors.Is(err, storage.ErrMalformedHistory) {
		return nil, fmt.Errorf("%w (fix or move the file; it was left unchanged)", err)
	}
	return store, err
}

func newClient(cfg *config.Config) *ollama.Client {
	return ollama.NewClientWithConfig(&ollama.ClientConfig{
		BaseURL:      cfg.Ollama.URL,
		Timeout:      cfg.Timeout(),
		DefaultModel: cfg.Ollama.Model,
	})
}

// openApp opens the history and wires the controller to the most recent
// session.
func openApp(cfg *config.Config) (*app, error) {
	store, err := openStore(cfg.History.Path)
	if err != nil {
		return nil, err
	}

	active, err := session.Bootstrap(store, cfg.History.DefaultTitle)
	if err != nil {
		return nil, fmt.Errorf("failed to open a session: %w", err)
	}

	client := newClient(cfg)
	responder := ollama.NewResponder(client, cfg.Ollama.Model, cfg.Ollama.SystemPrompt)

	ctrl := conversation.NewController(store, conversation.OllamaStream(responder), active)
	ctrl.SetModel(cfg.Ollama.Model)

	logging.For("cli").Info("ollama-ui started",
		"version", Version,
		"model", cfg.Ollama.Model,
		"history", cfg.History.Path,
		"sessions", store.Len(),
	)

	return &app{
		cfg:    cfg,
		client: client,
		store:  store,
		ctrl:   ctrl,
		bar:    session.NewSidebar(store, ctrl, cfg.History.DefaultTitle, active.ID),
	}, nil
}
