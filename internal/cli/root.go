package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/xsh/internal/logging"
	"github.com/fyrsmithlabs/xsh/pkg/engine"
	"github.com/fyrsmithlabs/xsh/pkg/template"
)

// Version is stamped by the build.
var Version = "dev"

// App carries the shared CLI state built by the root command.
type App struct {
	Config *Config
	Logger *zap.Logger
	Engine *engine.Engine
}

// NewRootCmd builds the xsh root command.
func NewRootCmd() *cobra.Command {
	app := &App{}
	var configPath string

	root := &cobra.Command{
		Use:   "xsh",
		Short: "Evaluate xsh expressions and templates",
		Long: `xsh is a small shell-like expression language: commands, pipes and
redirects blended with arithmetic, comparisons and literals, plus a template
mode that splices results into JS-like and JSON sources.`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadConfig(configPath)
			if err != nil {
				return err
			}
			logger, err := logging.NewLogger(&cfg.Logging)
			if err != nil {
				return err
			}
			app.Config = cfg
			app.Logger = logger
			app.Engine = engine.New(
				engine.WithLogger(logger.Named("engine")),
				engine.WithGlobals(engine.StdGlobals()),
				engine.WithCacheSize(cfg.CacheSize),
			)
			if err := app.Engine.SetConfig(engine.Std()); err != nil {
				return err
			}
			return app.Engine.SetConfig(template.Plugin())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if app.Logger != nil {
				_ = logging.Sync(app.Logger)
			}
		},
	}

	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/xsh/config.yaml)")
	root.AddCommand(newEvalCmd(app))
	root.AddCommand(newTemplateCmd(app))
	root.AddCommand(newReplCmd(app))
	root.AddCommand(newVersionCmd(app))
	return root
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the xsh version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app.Logger.Debug("version requested")
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "xsh "+Version)
			return err
		},
	}
}

// buildScope merges --vars files and --var flags into one scope.
func buildScope(varsFiles []string, varFlags []string) (engine.Scope, error) {
	sc := engine.Scope{}
	for _, path := range varsFiles {
		loaded, err := LoadVarsFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range loaded {
			sc[k] = v
		}
	}
	flags, err := ParseVarFlags(varFlags)
	if err != nil {
		return nil, err
	}
	for k, v := range flags {
		sc[k] = v
	}
	return sc, nil
}
