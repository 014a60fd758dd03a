// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/jeranaias/ollama-ui/internal/config"
	"github.com/jeranaias/ollama-ui/internal/conversation"
	"github.com/jeranaias/ollama-ui/internal/session"
	"github.com/jeranaias/ollama-ui/internal/storage"
)

func newChatCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat line by line without the full-screen UI",
		Long: `Chat line by line. Responses are printed as they stream in and every
exchange is saved to the same history as the full-screen UI.

Commands:
  /new [title]    start a new session
  /sessions       list sessions
  /switch <id>    open another session
  /show           print the open session
  /quit           exit (Ctrl+D also works)`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(g.cfg)
			if err != nil {
				return err
			}

			var in lineReader
			if cmd.InOrStdin() == os.Stdin && IsTTY() {
				in = newLinerReader()
			} else {
				in = newPlainReader(cmd.InOrStdin())
			}
			defer in.Close()

			r := &repl{
				ctrl:   a.ctrl,
				bar:    a.bar,
				store:  a.store,
				out:    cmd.OutOrStdout(),
				render: markdownRenderer(a.cfg.UI.Markdown),
			}
			return r.run(cmd.Context(), in, a.cfg.Ollama.Model)
		},
	}
}

// =============================================================================
// INPUT
// =============================================================================

// lineReader reads one line of user input. It returns io.EOF when input ends.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close()
}

// linerReader provides input history and line editing for interactive chat.
type linerReader struct {
	line        *liner.State
	historyFile string
}

func newLinerReader() *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)

	dir, err := config.ConfigDir()
	if err != nil {
		dir = os.TempDir()
	}
	r := &linerReader{line: line, historyFile: filepath.Join(dir, "input_history")}

	if f, err := os.Open(r.historyFile); err == nil {
		r.line.ReadHistory(f)
		f.Close()
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if errors.Is(err, liner.ErrPromptAborted) {
		return "", io.EOF
	}
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() {
	if err := os.MkdirAll(filepath.Dir(r.historyFile), 0700); err == nil {
		if f, err := os.OpenFile(r.historyFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600); err == nil {
			r.line.WriteHistory(f)
			f.Close()
		}
	}
	r.line.Close()
}

// plainReader reads lines from a pipe or file. It prints no prompt.
type plainReader struct {
	scanner *bufio.Scanner
}

func newPlainReader(in io.Reader) *plainReader {
	s := bufio.NewScanner(in)
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &plainReader{scanner: s}
}

func (r *plainReader) ReadLine(string) (string, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *plainReader) Close() {}

// =============================================================================
// REPL
// =============================================================================

type repl struct {
	ctrl   *conversation.Controller
	bar    *session.Sidebar
	store  *storage.Store
	out    io.Writer
	render func(string) string
}

// run reads lines until EOF or /quit.
func (r *repl) run(ctx context.Context, in lineReader, model string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s := r.ctrl.Session()
	fmt.Fprintln(r.out, TitleStyle.Render("ollama-ui")+" "+DimStyle.Render("model "+model))
	fmt.Fprintf(r.out, "%s\n", DimStyle.Render(fmt.Sprintf("Session %d: %s. Type /help for commands.", s.ID, s.Title)))

	for {
		line, err := in.ReadLine("you> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "/") {
			quit, err := r.command(line)
			if err != nil {
				fmt.Fprintln(r.out, ErrorStyle.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		if err := r.ask(ctx, line); err != nil {
			fmt.Fprintln(r.out, ErrorStyle.Render("not saved: "+err.Error()))
		}
	}
}

// ask streams one response to out as it arrives.
func (r *repl) ask(ctx context.Context, prompt string) error {
	fmt.Fprint(r.out, AssistantStyle.Render("assistant> "))

	printed := 0
	ex, err := r.ctrl.Run(ctx, prompt, func(text string) {
		fmt.Fprint(r.out, text[printed:])
		printed = len(text)
	})
	if ex.Response == "" {
		fmt.Fprint(r.out, DimStyle.Render("(no response)"))
	}
	fmt.Fprintln(r.out)
	return err
}

// command runs a slash command. quit is true for /quit.
func (r *repl) command(line string) (quit bool, err error) {
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case "/quit", "/q", "/exit":
		return true, nil

	case "/help", "/h":
		fmt.Fprintln(r.out, "/new [title]  /sessions  /switch <id>  /show  /quit")

	case "/new":
		s, err := r.bar.NewChat(arg)
		if err != nil {
			return false, err
		}
		fmt.Fprintln(r.out, SuccessStyle.Render(fmt.Sprintf("Session %d: %s", s.ID, s.Title)))

	case "/sessions", "/ls":
		fmt.Fprint(r.out, storage.FormatSessionList(r.store.Sessions(), r.bar.Active()))

	case "/switch":
		id, err := strconv.Atoi(arg)
		if err != nil {
			return false, fmt.Errorf("usage: /switch <id>")
		}
		if err := r.bar.Select(id); err != nil {
			return false, err
		}
		s := r.ctrl.Session()
		fmt.Fprintln(r.out, SuccessStyle.Render(fmt.Sprintf("Session %d: %s (%d exchanges)", s.ID, s.Title, len(s.Exchanges))))

	case "/show":
		s := r.ctrl.Session()
		fmt.Fprintln(r.out, r.render(s.ExportMarkdown()))

	default:
		return false, fmt.Errorf("unknown command %s (try /help)", name)
	}
	return false, nil
}
