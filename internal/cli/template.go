package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/xsh/pkg/engine"
	"github.com/fyrsmithlabs/xsh/pkg/template"
)

func newTemplateCmd(app *App) *cobra.Command {
	var (
		varFlags  []string
		varsFiles []string
		typ       string
		outPath   string
		watch     bool
		async     bool
	)

	cmd := &cobra.Command{
		Use:   "template <file>",
		Short: "Render an xsh template",
		Long: `Render a template file, expanding xsh directives.

The file type selects the directive set: "js" handles //#xsh line
directives, //#xsht blocks, inline backtick directives and __XSH_*__
constants; "json" handles whole-string "#xsh ..." directives. The type is
inferred from the extension unless --type is given.

Examples:
  xsh template config.tmpl.json --out config.json
  xsh template app.js --watch`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			fileType := typ
			if fileType == "" {
				fileType = inferType(path)
			}
			render := func() error {
				sc, err := buildScope(varsFiles, varFlags)
				if err != nil {
					return err
				}
				return renderTemplate(cmd.Context(), app, path, fileType, sc, outPath, async)
			}
			if err := render(); err != nil {
				return err
			}
			if !watch {
				return nil
			}
			return watchTemplate(cmd.Context(), app, path, render)
		},
	}

	cmd.Flags().StringArrayVar(&varFlags, "var", nil, "scope variable name=value (repeatable)")
	cmd.Flags().StringArrayVar(&varsFiles, "vars", nil, "scope variable file (.yaml, .toml or .json; repeatable)")
	cmd.Flags().StringVar(&typ, "type", "", `template type: "js" or "json" (inferred from extension)`)
	cmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&watch, "watch", false, "re-render when the template file changes")
	cmd.Flags().BoolVar(&async, "async", false, "evaluate directives asynchronously")
	return cmd
}

func inferType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return template.TypeJSON
	}
	return template.TypeJS
}

func renderTemplate(ctx context.Context, app *App, path, fileType string, sc engine.Scope, outPath string, async bool) error {
	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read template: %w", err)
	}
	out, err := template.Render(ctx, app.Engine, string(source), fileType, sc, async)
	if err != nil {
		return err
	}
	if outPath == "" {
		_, err = fmt.Print(out)
		return err
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	app.Logger.Info("rendered template",
		zap.String("template", path),
		zap.String("out", outPath),
		zap.String("type", fileType))
	return nil
}

// watchTemplate re-renders on every write to the template file until the
// context is cancelled.
func watchTemplate(ctx context.Context, app *App, path string, render func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors commonly replace the file on save.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", path, err)
	}
	app.Logger.Info("watching template", zap.String("template", path))

	target := filepath.Clean(path)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if err := render(); err != nil {
				app.Logger.Error("render failed", zap.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			app.Logger.Error("watch error", zap.Error(err))
		}
	}
}
