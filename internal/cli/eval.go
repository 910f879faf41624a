package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/xsh/pkg/value"
)

func newEvalCmd(app *App) *cobra.Command {
	var (
		varFlags  []string
		varsFiles []string
		async     bool
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "eval [expression]",
		Short: "Evaluate an xsh expression",
		Long: `Evaluate an xsh expression and print the result.

Examples:
  xsh eval '((1+2)*3-4)/5'
  xsh eval '$user.name' --vars vars.yaml
  echo 'concat --args 1 2 3' | xsh eval -`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			source, err := readSource(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			sc, err := buildScope(varsFiles, varFlags)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			result, err := app.Engine.Parse(ctx, source, sc, nil, async)
			if err != nil {
				return err
			}
			if async {
				result, err = value.Await(ctx, result)
				if err != nil {
					return err
				}
			}
			app.Logger.Debug("evaluated", zap.String("source", source))
			return printResult(cmd.OutOrStdout(), result, asJSON)
		},
	}

	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "scope variable name=value (repeatable)")
	cmd.Flags().StringArrayVar(&varsFiles, "vars", nil, "scope variable file (.yaml, .toml or .json; repeatable)")
	cmd.Flags().BoolVar(&async, "async", false, "evaluate asynchronously and await the result")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the result as JSON")
	return cmd
}

func readSource(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return args[0], nil
}

func printResult(w io.Writer, result any, asJSON bool) error {
	if asJSON {
		data, err := json.Marshal(value.Export(result))
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, value.ToString(result))
	return err
}

// exitError prints err and returns the process exit code.
func exitError(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "error:", err)
	return 1
}

// Execute runs the root command.
func Execute() int {
	root := NewRootCmd()
	return exitError(root.Execute())
}
