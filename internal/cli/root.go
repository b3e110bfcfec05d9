package cli

import (
	"fmt"
	"runtime"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"binomial-pricer/internal/config"
	"binomial-pricer/internal/logging"
	"binomial-pricer/internal/store"
)

// Version information, overridden at link time.
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
)

// App holds the application dependencies. Config and Logger are resolved
// before any subcommand runs; the store is opened on first use.
type App struct {
	Config *config.Config
	Logger zerolog.Logger

	store store.PortfolioStore
}

// Store opens the position library on first use.
func (a *App) Store() (store.PortfolioStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path, logging.WithOperation(a.Logger, "store"))
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("Position library opened")
	a.store = s
	return s, nil
}

// Close releases resources held by the app.
func (a *App) Close() error {
	if a.store == nil {
		return nil
	}
	err := a.store.Close()
	a.store = nil
	return err
}

// output returns an Output honouring the config color setting.
func (a *App) output(cmd *cobra.Command) *Output {
	out := NewOutput(cmd)
	if a.Config != nil {
		out.WithColor(a.Config.Output.ColorEnabled)
	}
	return out
}

// NewRootCmd creates the root command for the CLI. If cfg is nil the
// configuration is loaded from --config (or the default directory) before
// any subcommand runs.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	rootCmd := &cobra.Command{
		Use:   "pricer",
		Short: "Binomial option pricer",
		Long: `Pricer values European puts and calls on a recombining binomial lattice.

Options are priced either with a replicating portfolio of stock and bond or
with risk-neutral probabilities; both give the same no-arbitrage value. The
full lattice can be exported as a Graphviz graph or CSV, and payoff diagrams
of option portfolios can be tabulated or plotted.

Use 'pricer help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Config == nil {
				dir, _ := cmd.Flags().GetString("config")
				loaded, err := config.Load(dir)
				if err != nil {
					return err
				}
				app.Config = loaded

				logCfg := loaded.LogConfig()
				logCfg.Out = cmd.ErrOrStderr()
				app.Logger = logging.NewLoggerWithConfig(logCfg)
			}

			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}

			cmd.SetContext(logging.WithLogger(cmd.Context(), logging.WithOperation(app.Logger, cmd.Name())))

			app.Logger.Debug().
				Str("command", cmd.CommandPath()).
				Str("config_dir", app.Config.Dir).
				Msg("Starting command")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/binomial-pricer)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	addCoreCommands(rootCmd, app)
	addPricingCommands(rootCmd, app)
	addPayoffCommands(rootCmd, app)
	addPortfolioCommands(rootCmd, app)
	addHelpCommands(rootCmd, app)

	return rootCmd
}

// addCoreCommands adds core utility commands.
func addCoreCommands(rootCmd *cobra.Command, app *App) {
	rootCmd.AddCommand(newVersionCmd(app))
	rootCmd.AddCommand(newConfigCmd(app))
}

func newVersionCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
					"go":         runtime.Version(),
				})
			}
			output.Printf("pricer v%s\n", Version)
			output.Dim("Build date: %s, %s", BuildDate, runtime.Version())
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			path := config.Path(app.Config.Dir)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": path})
			}
			output.Println(path)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := app.output(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				return output.JSON(map[string]bool{"valid": true})
			}
			output.Success("✓ Configuration is valid")
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Pricing")
	output.Printf("  Rate:        %g\n", cfg.Pricing.Rate)
	output.Printf("  Up / Down:   %g / %g\n", cfg.Pricing.Up, cfg.Pricing.Down)
	output.Printf("  Periods:     %d (max %d)\n", cfg.Pricing.Periods, cfg.Pricing.MaxPeriods)
	output.Printf("  Method:      %s\n", cfg.Pricing.Method)
	output.Printf("  Workers:     %s\n", workersLabel(cfg.Pricing.Workers))
	output.Println()

	output.Bold("Output")
	output.Printf("  Directory:   %s\n", cfg.Output.Dir)
	output.Printf("  Samples:     %d\n", cfg.Output.Samples)
	output.Printf("  Plot size:   %gx%g in\n", cfg.Output.PlotWidth, cfg.Output.PlotHeight)
	output.Printf("  Color:       %v\n", cfg.Output.ColorEnabled)
	output.Println()

	output.Bold("Logging")
	output.Printf("  Level:       %s\n", cfg.Logging.Level)
	if cfg.Logging.File {
		output.Printf("  File:        %s\n", cfg.Logging.FilePath)
	} else {
		output.Printf("  File:        off\n")
	}
	output.Println()

	output.Bold("Store")
	output.Printf("  Path:        %s\n", cfg.Store.Path)
}

func workersLabel(n int) string {
	if n == 0 {
		return fmt.Sprintf("auto (%d)", runtime.NumCPU())
	}
	return fmt.Sprintf("%d", n)
}
