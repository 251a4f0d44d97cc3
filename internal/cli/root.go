package cli

import (
	"log/slog"

	"github.com/alexanderramin/groundwork/internal/cli/formatter"
	"github.com/alexanderramin/groundwork/internal/config"
	"github.com/alexanderramin/groundwork/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Projects service.ProjectService
	Schedule service.ScheduleService
	Import   service.ImportService

	// Logger is the process logger; Connect sets it. Nil means slog.Default().
	Logger *slog.Logger

	// IsInteractive reports whether prompts may be shown. Nil means never.
	IsInteractive func() bool

	// Connect wires the services from the resolved configuration before any
	// command runs. Tests leave it nil and set the services directly.
	Connect func(cfg config.Config) error

	// Config is the configuration the current command runs with.
	Config config.Config
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

// NewRootCmd creates the top-level "groundwork" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "groundwork",
		Short:         "Construction schedule planner",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			app.Config = cfg
			formatter.SetColorMode(cfg.Color, cmd.OutOrStdout())
			if app.Connect == nil {
				return nil
			}
			return app.Connect(cfg)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configFile, "config", "", "config file (default .groundwork.yaml in the working or home directory)")
	flags.String("db", "", "SQLite database path")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("color", "", "color output: auto, always or never")

	root.AddCommand(
		newProjectCmd(app),
		newTaskCmd(app),
		newScheduleCmd(app),
		newImportCmd(app),
		newWatchCmd(app),
	)

	return root
}
