package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/xsh/pkg/engine"
	"github.com/fyrsmithlabs/xsh/pkg/value"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	resultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	metaStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newReplCmd(app *App) *cobra.Command {
	var (
		varFlags  []string
		varsFiles []string
		async     bool
	)

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive xsh session",
		Long: `Start an interactive session. The scope persists across lines, so
assignments with >> stay visible.

Meta commands:
  :vars   list scope variables
  :quit   exit`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sc, err := buildScope(varsFiles, varFlags)
			if err != nil {
				return err
			}
			return runRepl(cmd, app, sc, async)
		},
	}

	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "scope variable name=value (repeatable)")
	cmd.Flags().StringArrayVar(&varsFiles, "vars", nil, "scope variable file (repeatable)")
	cmd.Flags().BoolVar(&async, "async", false, "evaluate asynchronously")
	return cmd
}

func runRepl(cmd *cobra.Command, app *App, sc engine.Scope, async bool) error {
	historyFile := ""
	if home, err := os.UserHomeDir(); err == nil {
		historyFile = filepath.Join(home, ".xsh_history")
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptStyle.Render("xsh> "),
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to start repl: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, metaStyle.Render("xsh "+Version+" — :vars lists variables, :quit exits"))

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		line = strings.TrimSpace(line)
		switch {
		case line == "":
			continue
		case line == ":quit", line == ":q":
			return nil
		case line == ":vars":
			printVars(out, sc)
			continue
		}

		result, err := app.Engine.Parse(cmd.Context(), line, sc, nil, async)
		if err == nil && async {
			result, err = value.Await(cmd.Context(), result)
		}
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render(err.Error()))
			continue
		}
		fmt.Fprintln(out, resultStyle.Render(value.ToString(result)))
	}
}

func printVars(out io.Writer, sc engine.Scope) {
	names := make([]string, 0, len(sc))
	for name := range sc {
		// Normalizer placeholders are noise here.
		if strings.HasPrefix(name, "__") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintln(out, metaStyle.Render(name+" = ")+value.ToString(sc[name]))
	}
}
