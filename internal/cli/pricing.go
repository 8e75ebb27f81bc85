package cli

import (
	"github.com/spf13/cobra"

	"options-cockpit/internal/models"
	"options-cockpit/internal/pricing"
)

// addMarketFlags registers the S/K/T/r/q/sigma inputs shared by the
// pricing commands. Rates default to the configured values.
func addMarketFlags(cmd *cobra.Command, withSigma bool) {
	cmd.Flags().Float64P("spot", "S", 0, "underlying price")
	cmd.Flags().Float64P("strike", "K", 0, "strike price")
	cmd.Flags().Float64P("years", "T", 0, "time to expiry in years")
	cmd.Flags().Int("dte", 0, "days to expiry (overrides --years)")
	cmd.Flags().Float64P("rate", "r", 0, "risk-free rate (default from config)")
	cmd.Flags().Float64P("dividend", "q", 0, "dividend yield (default from config)")
	if withSigma {
		cmd.Flags().Float64("sigma", 0, "volatility, e.g. 0.25")
	}
	_ = cmd.MarkFlagRequired("spot")
	_ = cmd.MarkFlagRequired("strike")
}

func marketInputs(cmd *cobra.Command, app *App) pricing.Inputs {
	f := cmd.Flags()
	in := pricing.Inputs{R: app.Config.Pricing.RiskFreeRate, Q: app.Config.Pricing.DividendYield}
	in.S, _ = f.GetFloat64("spot")
	in.K, _ = f.GetFloat64("strike")
	in.T, _ = f.GetFloat64("years")
	if dte, _ := f.GetInt("dte"); dte > 0 {
		in.T = float64(dte) / 365
	}
	if f.Changed("rate") {
		in.R, _ = f.GetFloat64("rate")
	}
	if f.Changed("dividend") {
		in.Q, _ = f.GetFloat64("dividend")
	}
	if f.Lookup("sigma") != nil {
		in.Sigma, _ = f.GetFloat64("sigma")
	}
	return in
}

func newPriceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Price a European call and put with Black-Scholes-Merton",
		Example: `  cockpit price -S 100 -K 100 -T 1 --sigma 0.2
  cockpit price -S 480 -K 490 --dte 30 --sigma 0.18 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in := marketInputs(cmd, app)
			res, err := pricing.BlackScholes(in)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}

			output.Bold("Black-Scholes  S=%s K=%s T=%.4f r=%.4f q=%.4f σ=%.4f",
				FormatPrice(in.S), FormatStrike(in.K), in.T, in.R, in.Q, in.Sigma)
			table := NewTable(output, "", "CALL", "PUT")
			table.AddRow("Price", FormatPrice(res.CallPrice), FormatPrice(res.PutPrice))
			table.AddRow("Delta", FormatPrice(res.DeltaCall), FormatPrice(res.DeltaPut))
			table.AddRow("Gamma", FormatPrice(res.Gamma), FormatPrice(res.Gamma))
			table.AddRow("Vega", FormatPrice(res.Vega), FormatPrice(res.Vega))
			table.AddRow("Theta", FormatPrice(res.ThetaCall), FormatPrice(res.ThetaPut))
			table.AddRow("Rho", FormatPrice(res.RhoCall), FormatPrice(res.RhoPut))
			table.Render()
			output.Dim("Vega per unit vol, theta per year, rho per unit rate.")
			return nil
		},
	}
	addMarketFlags(cmd, true)
	return cmd
}

func newIVCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "iv",
		Short:   "Solve implied volatility from an option price",
		Example: `  cockpit iv -S 100 -K 100 -T 1 --price 10.45 --type call`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in := marketInputs(cmd, app)
			price, _ := cmd.Flags().GetFloat64("price")
			optType, _ := cmd.Flags().GetString("type")

			res, err := app.Solver.Solve(pricing.IVRequest{
				S:           in.S,
				K:           in.K,
				T:           in.T,
				R:           in.R,
				Q:           in.Q,
				MarketPrice: price,
				OptionType:  models.OptionType(optType),
			})
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Success("Implied volatility: %s", FormatIV(res.ImpliedVol))
			output.Dim("%d bisection iterations", res.Iterations)
			return nil
		},
	}
	addMarketFlags(cmd, false)
	cmd.Flags().Float64("price", 0, "observed option price")
	cmd.Flags().String("type", "call", "option type: call or put")
	_ = cmd.MarkFlagRequired("price")
	return cmd
}

func newGreeksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeks",
		Short: "Show display Greeks (theta per day, vega per vol point)",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			in := marketInputs(cmd, app)
			if !cmd.Flags().Changed("rate") {
				in.R = app.Config.Pricing.GreeksRate
			}
			put, _ := cmd.Flags().GetBool("put")

			if err := in.Validate(); err != nil {
				return err
			}
			g := pricing.SimpleGreeks(in.S, in.K, in.T, in.R, in.Sigma, !put)
			if output.IsJSON() {
				return output.JSON(g)
			}
			kind := "Call"
			if put {
				kind = "Put"
			}
			output.Bold("%s greeks  S=%s K=%s", kind, FormatPrice(in.S), FormatStrike(in.K))
			output.Println("  " + FormatGreeks(g))
			return nil
		},
	}
	addMarketFlags(cmd, true)
	cmd.Flags().Bool("put", false, "show put greeks instead of call")
	return cmd
}
