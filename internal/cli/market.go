package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"options-cockpit/internal/models"
	"options-cockpit/internal/recommend"
	"options-cockpit/internal/risk"
	"options-cockpit/internal/stream"
	"options-cockpit/pkg/utils"
)

func newChainCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "chain",
		Short:   "Generate a synthetic option chain",
		Example: `  cockpit chain --spot 480 --dte 30`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			spot, _ := cmd.Flags().GetFloat64("spot")
			dte, _ := cmd.Flags().GetInt("dte")

			ch, err := app.Chains.Generate(spot, dte)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(ch)
			}

			output.Bold("Synthetic chain  spot %s  %d DTE  step %s", FormatPrice(ch.Spot), ch.DTE, FormatStrike(ch.Step))
			table := NewTable(output, "STRIKE", "IV", "CALL BID", "CALL ASK", "PUT BID", "PUT ASK", "OI", "VOL")
			for _, it := range ch.Items {
				strike := FormatStrike(it.Strike)
				if it.Strike == ch.Items[len(ch.Items)/2].Strike {
					strike = output.BoldText(strike)
				}
				table.AddRow(strike, FormatIV(it.IV),
					FormatPrice(it.Call.Bid), FormatPrice(it.Call.Ask),
					FormatPrice(it.Put.Bid), FormatPrice(it.Put.Ask),
					utils.FormatQuantity(int64(it.OpenInterest)), utils.FormatQuantity(int64(it.Volume)))
			}
			table.Render()
			return nil
		},
	}
	cmd.Flags().Float64("spot", 0, "underlying price")
	cmd.Flags().Int("dte", 30, "days to expiry")
	_ = cmd.MarkFlagRequired("spot")
	return cmd
}

func newRecommendCmd(app *App) *cobra.Command {
	req := recommend.DefaultRequest()
	var maxLoss, maxDrawdown float64

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Recommend a strategy under risk and liquidity constraints",
		Long: `Simulate terminal prices for every single-call and bull-put-spread
candidate on a synthetic chain, filter by the constraints and pick the best
blend of expected profit and probability of profit.`,
		Example: `  cockpit recommend --spot 480 --max-loss 400 --min-pop 0.6
  cockpit recommend --spot 480 --no-single-call --seed 42 --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			f := cmd.Flags()
			if f.Changed("max-loss") {
				req.MaxLossDollars = &maxLoss
			}
			if f.Changed("max-drawdown") {
				req.MaxDrawdownDollars = &maxDrawdown
			}
			if v, _ := f.GetBool("no-single-call"); v {
				req.AllowSingleCall = false
			}
			if v, _ := f.GetBool("no-bull-put"); v {
				req.AllowBullPut = false
			}

			cfg := app.Config.Recommender
			if f.Changed("seed") {
				cfg.Seed, _ = f.GetUint64("seed")
			}
			if f.Changed("paths") {
				cfg.Paths, _ = f.GetInt("paths")
			}
			res, err := app.Recommender(cfg).Recommend(cmd.Context(), req)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}
			renderRecommendation(output, res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&req.Symbol, "symbol", req.Symbol, "underlying symbol")
	f.Float64Var(&req.Spot, "spot", 0, "underlying price")
	f.IntVar(&req.DTE, "dte", req.DTE, "days to expiry")
	f.IntVar(&req.Contracts, "contracts", req.Contracts, "number of contracts")
	f.Float64Var(&maxLoss, "max-loss", 0, "maximum loss in dollars")
	f.Float64Var(&maxDrawdown, "max-drawdown", 0, "maximum VaR worst-tail loss in dollars")
	f.Float64Var(&req.VarAlpha, "var-alpha", req.VarAlpha, "VaR confidence level")
	f.Float64Var(&req.MinExpectedProfit, "min-ev", req.MinExpectedProfit, "minimum expected profit")
	f.Float64Var(&req.MinProbProfit, "min-pop", req.MinProbProfit, "minimum probability of profit")
	f.Float64Var(&req.MinRewardRisk, "min-rr", req.MinRewardRisk, "minimum reward/risk")
	f.IntVar(&req.MinOI, "min-oi", req.MinOI, "minimum open interest")
	f.IntVar(&req.MinVol, "min-vol", req.MinVol, "minimum volume")
	f.Float64Var(&req.MaxSpreadPct, "max-spread-pct", req.MaxSpreadPct, "maximum bid/ask spread percent")
	f.Bool("no-single-call", false, "exclude single calls")
	f.Bool("no-bull-put", false, "exclude bull put credit spreads")
	f.Uint64("seed", 0, "random seed for reproducible results")
	f.Int("paths", 0, "Monte-Carlo paths (default from config)")
	_ = cmd.MarkFlagRequired("spot")
	return cmd
}

func renderRecommendation(output *Output, res *recommend.Result) {
	if res.Empty() {
		output.Error("%s", res.Error)
		output.Dim("%s", res.Note)
		return
	}
	if res.Fallback {
		output.Warning("⚠ %s", res.Error)
	}

	c := res.Recommendation
	var legs string
	switch c.Strategy {
	case models.StrategySingleCall:
		legs = fmt.Sprintf("long %s call @ %s", FormatStrike(c.Legs.Strike), FormatPrice(c.Legs.Premium))
	case models.StrategyBullPutCredit:
		legs = fmt.Sprintf("short %s / long %s put for %s credit",
			FormatStrike(c.Legs.ShortPut), FormatStrike(c.Legs.LongPut), FormatPrice(c.Legs.Credit))
	}
	maxProfit := "unlimited"
	if c.MaxProfit != nil {
		maxProfit = utils.FormatCurrency(*c.MaxProfit)
	}

	output.Box(fmt.Sprintf("%s  %s  %d DTE  x%d", res.Symbol, c.Strategy, res.DTE, res.Contracts), []string{
		legs,
		fmt.Sprintf("Expected profit:  %s", output.PnL(c.ExpectedProfit)),
		fmt.Sprintf("Prob. of profit:  %s", utils.FormatProbability(c.ProbProfit)),
		fmt.Sprintf("Entry:            %s %s", utils.FormatCurrency(c.EntryCost), c.CostType),
		fmt.Sprintf("Max loss:         %s", utils.FormatCurrency(c.MaxLoss)),
		fmt.Sprintf("Max profit:       %s", maxProfit),
		fmt.Sprintf("Breakeven:        %s", FormatPrice(c.Breakeven)),
		fmt.Sprintf("Curve breakevens: %s", payoffBreakevens(res)),
		fmt.Sprintf("VaR worst loss:   %s", utils.FormatCurrency(c.VarWorstLoss)),
		fmt.Sprintf("Reward/risk:      %.2f", c.RewardRisk),
		fmt.Sprintf("Score:            %.2f", c.Score),
	})
	output.Dim("%d candidates evaluated. %s", res.Candidates, res.Note)
}

func payoffBreakevens(res *recommend.Result) string {
	if res.Payoff == nil {
		return "n/a"
	}
	return FormatBreakevens(res.Payoff.Breakevens)
}

func newRiskCmd(app *App) *cobra.Command {
	var check risk.Check
	cmd := &cobra.Command{
		Use:   "risk",
		Short: "Pre-trade risk check against account equity",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			res, err := risk.PreTrade(check)
			if err != nil {
				return err
			}
			if output.IsJSON() {
				return output.JSON(res)
			}
			output.Printf("Max allowed loss: %s\n", utils.FormatCurrency(res.MaxAllowedLoss))
			for _, b := range res.HardBlocks {
				output.Error("✗ %s", b)
			}
			for _, w := range res.Warnings {
				output.Warning("⚠ %s", w)
			}
			if res.OK {
				output.Success("✓ OK to trade")
			}
			return res.Err(check)
		},
	}
	cmd.Flags().Float64Var(&check.AccountEquity, "equity", 0, "account equity in dollars")
	cmd.Flags().Float64Var(&check.MaxRiskPerTradePct, "max-risk-pct", risk.DefaultMaxRiskPerTradePct, "maximum risk per trade, percent of equity")
	cmd.Flags().Float64Var(&check.TradeMaxLoss, "max-loss", 0, "trade max loss in dollars")
	cmd.Flags().Float64Var(&check.SpreadWidthPct, "spread-pct", 0, "bid/ask spread width percent")
	_ = cmd.MarkFlagRequired("equity")
	return cmd
}

func newQuoteCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quote",
		Short: "Print synthetic market ticks",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			n, _ := cmd.Flags().GetInt("count")
			market := stream.NewSimMarket(app.Config.Market.Symbol, app.Config.Market.StartPrice)
			ticks := make([]models.MarketTick, 0, n)
			for i := 0; i < n; i++ {
				ticks = append(ticks, market.Tick())
			}
			if output.IsJSON() {
				return output.JSON(ticks)
			}
			for _, t := range ticks {
				output.Printf("%s  %s\n", t.Symbol, FormatPrice(t.Price))
			}
			return nil
		},
	}
	cmd.Flags().Int("count", 1, "number of ticks")
	return cmd
}
