package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
	"options-cockpit/pkg/utils"
)

// curveRows is the number of curve samples shown in the text table.
const curveRows = 11

func newPayoffCmd(app *App) *cobra.Command {
	var (
		legSpecs []string
		params   []string
		template string
		save     string
	)
	cmd := &cobra.Command{
		Use:   "payoff",
		Short: "Evaluate a multi-leg position at expiry",
		Long: `Evaluate the P&L of a set of stock and option legs at expiry.

Legs are given as:
  option:<call|put>:<long|short>:<strike>:<premium>[:qty[:contract_size]]
  stock:<long|short>:<shares>:<entry_price>

or built from a strategy template with --template and --param.`,
		Example: `  cockpit payoff --underlying 105 --leg option:call:long:100:5
  cockpit payoff --underlying 480 --template collar \
      --param shares=100 --param entry_price=470 --param put_strike=450 \
      --param put_premium=4 --param call_strike=500 --param call_premium=3 --curve`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			f := cmd.Flags()

			var legs []models.Leg
			var err error
			switch {
			case template != "" && len(legSpecs) > 0:
				return errors.NewValidationError("legs", nil, "use either --leg or --template, not both")
			case template != "":
				p, perr := ParseParams(params)
				if perr != nil {
					return perr
				}
				legs, err = portfolio.BuildTemplate(template, p)
			default:
				legs, err = ParseLegs(legSpecs)
			}
			if err != nil {
				return err
			}

			underlying, _ := f.GetFloat64("underlying")
			var bounds *portfolio.BoundsRequest
			if withCurve, _ := f.GetBool("curve"); withCurve || f.Changed("s-min") || f.Changed("s-max") {
				bounds = &portfolio.BoundsRequest{}
				bounds.Steps, _ = f.GetInt("steps")
				if f.Changed("s-min") {
					v, _ := f.GetFloat64("s-min")
					bounds.SMin = &v
				}
				if f.Changed("s-max") {
					v, _ := f.GetFloat64("s-max")
					bounds.SMax = &v
				}
			}

			res, err := portfolio.Analyze(legs, underlying, bounds)
			if err != nil {
				return err
			}

			if save != "" {
				if err := savePortfolio(cmd, app, save, legs, underlying); err != nil {
					return err
				}
			}

			if output.IsJSON() {
				return output.JSON(struct {
					Legs []models.Leg `json:"legs"`
					*portfolio.Analysis
				}{legs, res})
			}
			renderAnalysis(output, legs, underlying, res)
			if save != "" {
				output.Success("✓ Saved as portfolio '%s'", save)
			}
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&legSpecs, "leg", nil, "leg spec (repeatable)")
	cmd.Flags().StringVar(&template, "template", "", "build legs from a strategy template")
	cmd.Flags().StringArrayVar(&params, "param", nil, "template parameter key=value (repeatable)")
	cmd.Flags().Float64("underlying", 0, "underlying price at expiry")
	cmd.Flags().Bool("curve", false, "sample a P&L curve")
	cmd.Flags().Float64("s-min", 0, "curve lower bound (auto when omitted)")
	cmd.Flags().Float64("s-max", 0, "curve upper bound (auto when omitted)")
	cmd.Flags().Int("steps", portfolio.DefaultPortfolioSteps, "curve samples")
	cmd.Flags().StringVar(&save, "save", "", "save the legs as a named portfolio")
	_ = cmd.MarkFlagRequired("underlying")
	return cmd
}

// savePortfolio stores legs in the same shape the HTTP portfolio endpoint
// accepts, so a saved item can be posted back unchanged.
func savePortfolio(cmd *cobra.Command, app *App, name string, legs []models.Leg, underlying float64) error {
	raw, err := json.Marshal(map[string]interface{}{"legs": legs, "underlying": underlying})
	if err != nil {
		return err
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return err
	}
	st, err := app.Store()
	if err != nil {
		return err
	}
	_, err = st.CreateSavedItem(cmd.Context(), name, models.SavedPortfolio, payload)
	return err
}

func renderAnalysis(output *Output, legs []models.Leg, underlying float64, res *portfolio.Analysis) {
	lines := make([]string, 0, len(legs))
	for _, leg := range legs {
		lines = append(lines, FormatLeg(leg))
	}
	output.Box("Legs", lines)

	output.Printf("P&L at %s:   %s\n", FormatPrice(underlying), output.PnL(res.PnL))
	output.Printf("Net cashflow:  %s\n", output.PnL(res.NetCashflow))
	if res.Curve == nil {
		output.Dim("Add --curve for breakevens and max profit/loss.")
		return
	}
	output.Printf("Breakevens:    %s\n", FormatBreakevens(res.Breakevens))
	output.Printf("Max profit:    %s\n", utils.FormatOptional(res.MaxProfit, "n/a"))
	output.Printf("Max loss:      %s\n", utils.FormatOptional(res.MaxLoss, "n/a"))
	output.Dim("Extrema are over [%s, %s], %d samples.",
		FormatPrice(res.CurveBounds.SMin), FormatPrice(res.CurveBounds.SMax), res.CurveBounds.Steps)
	output.Println()

	table := NewTable(output, "UNDERLYING", "P&L")
	for _, p := range sampleRows(res.Curve, curveRows) {
		table.AddRow(FormatPrice(p.Underlying), output.PnL(p.PnL))
	}
	table.Render()
}

// sampleRows picks n evenly spaced points including both ends.
func sampleRows(points []models.PLPoint, n int) []models.PLPoint {
	if len(points) <= n {
		return points
	}
	out := make([]models.PLPoint, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, points[i*(len(points)-1)/(n-1)])
	}
	return out
}

func newStrategyCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Strategy templates",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "templates",
		Short: "List the strategy templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			catalog := portfolio.Templates()
			if output.IsJSON() {
				return output.JSON(catalog)
			}
			for _, t := range catalog {
				output.Bold("%s", t.Name)
				output.Dim("  %s", t.Description)
				for _, p := range t.Params {
					req := ""
					if !p.Required {
						req = " (optional)"
					}
					output.Printf("    %-14s %-8s %s%s\n", p.Name, p.Type, p.Description, req)
				}
			}
			return nil
		},
	})

	var params []string
	build := &cobra.Command{
		Use:   "build <template>",
		Short: "Expand a template into legs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			p, err := ParseParams(params)
			if err != nil {
				return err
			}
			legs, err := portfolio.BuildTemplate(args[0], p)
			if err != nil {
				return err
			}
			if save, _ := cmd.Flags().GetString("save"); save != "" {
				st, err := app.Store()
				if err != nil {
					return err
				}
				if _, err := st.SaveTemplate(cmd.Context(), save, args[0], p); err != nil {
					return err
				}
			}
			if output.IsJSON() {
				return output.JSON(map[string]interface{}{"name": args[0], "legs": legs})
			}
			for _, leg := range legs {
				output.Println(FormatLeg(leg))
			}
			return nil
		},
	}
	build.Flags().StringArrayVar(&params, "param", nil, "template parameter key=value (repeatable)")
	build.Flags().String("save", "", "save the parameters as a named template")
	cmd.AddCommand(build)

	cmd.AddCommand(&cobra.Command{
		Use:   "saved",
		Short: "List saved templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			st, err := app.Store()
			if err != nil {
				return err
			}
			recs, err := st.ListTemplates(cmd.Context(), 0, 0)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(recs)
			}
			table := NewTable(output, "ID", "NAME", "TEMPLATE", "CREATED")
			for _, r := range recs {
				table.AddRow(fmt.Sprint(r.ID), TruncateString(r.Name, 32), r.TemplateName, r.CreatedAt)
			}
			table.Render()
			return nil
		},
	})
	return cmd
}
