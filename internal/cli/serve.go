package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"options-cockpit/internal/api"
	"options-cockpit/internal/recommend"
	"options-cockpit/internal/stream"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and the synthetic market feed",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := app.Config
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Server.Addr = addr
			}

			st, err := app.Store()
			if err != nil {
				return err
			}
			metrics := api.NewMetrics()
			hub := stream.NewHub()
			hub.SetLogger(app.Logger)

			server := api.NewServer(api.Config{
				Addr:            cfg.Server.Addr,
				ReadTimeout:     cfg.Server.ReadTimeout,
				WriteTimeout:    cfg.Server.WriteTimeout,
				ShutdownTimeout: cfg.Server.ShutdownTimeout,
				RequestTimeout:  cfg.Server.RequestTimeout,
				CORSOrigin:      cfg.Server.CORSOrigin,
				Mode:            cfg.Server.Mode,
				TickInterval:    cfg.Market.TickInterval,
				GreeksRate:      cfg.Pricing.GreeksRate,
				Version:         Version,
				Commit:          Commit,
			}, api.Deps{
				Solver:      app.Solver,
				Chains:      app.Chains,
				Recommender: app.Recommender(cfg.Recommender, recommend.WithObserver(metrics)),
				Store:       st,
				Market:      stream.NewSimMarket(cfg.Market.Symbol, cfg.Market.StartPrice),
				Hub:         hub,
				Metrics:     metrics,
				Logger:      app.Logger,
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return server.Run(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default from config)")
	return cmd
}
