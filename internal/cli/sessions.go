// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/ollama-ui/internal/storage"
)

func newSessionsCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "sessions",
		Aliases: []string{"session"},
		Short:   "List, create and export chat sessions",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd, g)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List sessions in history order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listSessions(cmd, g)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "new [title]",
		Short: "Create an empty session",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore(g.cfg.History.Path)
			if err != nil {
				return err
			}
			title := strings.TrimSpace(strings.Join(args, " "))
			if title == "" {
				title = g.cfg.History.DefaultTitle
			}
			s, err := store.CreateSession(title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created session %d: %s\n", s.ID, s.Title)
			return nil
		},
	})

	var format string
	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Print a session as Markdown or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid session id %q", args[0])
			}
			store, err := openStore(g.cfg.History.Path)
			if err != nil {
				return err
			}
			s, err := store.Get(id)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "markdown", "md":
				fmt.Fprintln(out, markdownRenderer(true)(s.ExportMarkdown()))
			case "json":
				data, err := s.ExportJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
			default:
				return fmt.Errorf("unknown format %q (use markdown or json)", format)
			}
			return nil
		},
	}
	show.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or json")
	cmd.AddCommand(show)

	return cmd
}

func listSessions(cmd *cobra.Command, g *globalFlags) error {
	store, err := openStore(g.cfg.History.Path)
	if err != nil {
		return err
	}
	active := 0
	if s, ok := store.MostRecent(); ok {
		active = s.ID
	}
	fmt.Fprint(cmd.OutOrStdout(), storage.FormatSessionList(store.Sessions(), active))
	return nil
}
