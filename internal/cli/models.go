// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"fmt"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newModelsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models installed on the Ollama server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := g.cfg
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx, cancel := context.WithTimeout(ctx, cfg.Timeout())
			defer cancel()

			models, err := newClient(cfg).ListModels(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(models) == 0 {
				fmt.Fprintln(out, "No models installed. Pull one with: ollama pull <model>")
				return nil
			}

			fmt.Fprintln(out, TitleStyle.Render("Models on "+cfg.Ollama.URL))
			for _, m := range models {
				marker := "  "
				if m.Name == cfg.Ollama.Model {
					marker = "* "
				}
				fmt.Fprintf(out, "%s%s %8s  %s\n",
					marker,
					runewidth.FillRight(m.Name, 32),
					m.FormatSize(),
					DimStyle.Render(m.Details.ParameterSize),
				)
			}
			return nil
		},
	}
}
