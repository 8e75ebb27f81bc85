// Package cli provides the command-line interface for the options cockpit.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"options-cockpit/internal/chain"
	"options-cockpit/internal/config"
	"options-cockpit/internal/logging"
	"options-cockpit/internal/pricing"
	"options-cockpit/internal/recommend"
	"options-cockpit/internal/store"
)

// Version information, set at build time with -ldflags.
var (
	Version   = "0.1.0"
	Commit    = "dev"
	BuildDate = "unknown"
)

// App holds the application dependencies. They are built after the
// configuration is loaded in the root command's pre-run hook.
type App struct {
	ConfigDir string
	Config    *config.Config
	Logger    zerolog.Logger

	Solver *pricing.Solver
	Chains *chain.Simulator

	dataStore store.DataStore
}

// Store opens the SQLite store on first use.
func (a *App) Store() (store.DataStore, error) {
	if a.dataStore != nil {
		return a.dataStore, nil
	}
	s, err := store.NewSQLiteStore(a.Config.Store.Path)
	if err != nil {
		return nil, err
	}
	a.Logger.Debug().Str("path", a.Config.Store.Path).Msg("SQLite store opened")
	a.dataStore = s
	return s, nil
}

// Recommender builds a recommender that logs through the app logger.
func (a *App) Recommender(cfg recommend.Config, opts ...recommend.Option) *recommend.Recommender {
	opts = append([]recommend.Option{recommend.WithLogger(a.Logger)}, opts...)
	return recommend.New(a.Chains, cfg, opts...)
}

// Close releases the store if it was opened.
func (a *App) Close() error {
	if a.dataStore == nil {
		return nil
	}
	return a.dataStore.Close()
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cockpit",
		Short: "Options cockpit - options pricing, payoff and strategy analytics",
		Long: `Options cockpit prices European options, solves implied volatility,
evaluates multi-leg payoffs at expiry and recommends simple strategies
from a synthetic option chain by Monte-Carlo simulation.

Run 'cockpit serve' to start the HTTP API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.init(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return app.Close()
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/options-cockpit)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newVersionCmd(),
		newConfigCmd(app),
		newServeCmd(app),
		newPriceCmd(app),
		newIVCmd(app),
		newGreeksCmd(app),
		newPayoffCmd(app),
		newStrategyCmd(app),
		newChainCmd(app),
		newRecommendCmd(app),
		newRiskCmd(app),
		newQuoteCmd(app),
		newSavedCmd(app),
		newTradesCmd(app),
	)
	return rootCmd
}

func (a *App) init(cmd *cobra.Command) error {
	if a.Config == nil {
		dir, _ := cmd.Flags().GetString("config")
		if dir == "" {
			dir = config.DefaultConfigDir()
		}
		cfg, err := config.Load(dir)
		if err != nil {
			return err
		}
		a.ConfigDir, a.Config = dir, cfg
		a.Logger = logging.NewLoggerWithConfig(logging.LogConfig{
			Level:      cfg.Logging.Level,
			Console:    cfg.Logging.Console,
			File:       cfg.Logging.File,
			FilePath:   cfg.Logging.FilePath,
			MaxSize:    cfg.Logging.MaxSize,
			MaxBackups: cfg.Logging.MaxBackups,
			MaxAge:     cfg.Logging.MaxAge,
			NoColor:    !cfg.UI.ColorEnabled,
			Out:        cmd.ErrOrStderr(),
		})
	}

	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		logging.SetDebugLevel()
		a.Logger = a.Logger.Level(zerolog.DebugLevel)
	}
	if a.Solver == nil {
		a.Solver = pricing.NewSolver(a.Config.ImpliedVol)
	}
	if a.Chains == nil {
		a.Chains = chain.NewSimulator()
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{
					"version":    Version,
					"commit":     Commit,
					"build_date": BuildDate,
				})
			}
			output.Printf("Options cockpit v%s (%s)\n", Version, Commit)
			output.Dim("Build date: %s", BuildDate)
			return nil
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and validate the configuration in config.toml.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(map[string]string{"path": app.ConfigDir})
			}
			output.Println(app.ConfigDir)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
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
	output.Printf("  Risk-free rate:   %.4f\n", cfg.Pricing.RiskFreeRate)
	output.Printf("  Dividend yield:   %.4f\n", cfg.Pricing.DividendYield)
	output.Printf("  Greeks rate:      %.4f\n", cfg.Pricing.GreeksRate)
	output.Println()

	output.Bold("Implied volatility")
	output.Printf("  Bracket:          [%g, %g]\n", cfg.ImpliedVol.VolLow, cfg.ImpliedVol.VolHigh)
	output.Printf("  Tolerance:        %g\n", cfg.ImpliedVol.Tolerance)
	output.Printf("  Max iterations:   %d\n", cfg.ImpliedVol.MaxIter)
	output.Println()

	output.Bold("Recommender")
	output.Printf("  Paths:            %d\n", cfg.Recommender.Paths)
	output.Printf("  Weights (EV/POP): %.2f / %.2f\n", cfg.Recommender.EVWeight, cfg.Recommender.POPWeight)
	output.Printf("  Workers:          %d\n", cfg.Recommender.Workers)
	output.Println()

	output.Bold("Server")
	output.Printf("  Address:          %s\n", cfg.Server.Addr)
	output.Printf("  Mode:             %s\n", cfg.Server.Mode)
	output.Printf("  CORS origin:      %s\n", cfg.Server.CORSOrigin)
	output.Printf("  Store:            %s\n", cfg.Store.Path)
	output.Println()

	output.Bold("Market feed")
	output.Printf("  Symbol:           %s\n", cfg.Market.Symbol)
	output.Printf("  Start price:      %.2f\n", cfg.Market.StartPrice)
	output.Printf("  Tick interval:    %s\n", cfg.Market.TickInterval)
}
