package recommend

import (
	"math"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
)

// Note attached to every successful recommendation.
const DrawdownNote = "Max drawdown implemented as VaR-style worst-tail loss over the simulated P&L distribution (not multi-step equity curve drawdown)."

const (
	emptyError    = "No candidates available under constraints."
	emptyNote     = "Loosen constraints: lower min_reward_risk/min_prob_profit/min_expected_profit, raise max_drawdown/max_loss, or relax liquidity filters."
	fallbackError = "No candidate satisfied all constraints; showing the best unconstrained candidate."

	// MaxContracts caps the position size of a request.
	MaxContracts = 500
	// NoMinExpectedProfit disables the expected profit floor.
	NoMinExpectedProfit = -1e18
)

// Request holds the market inputs and the risk and liquidity constraints
// of a recommendation.
type Request struct {
	Symbol    string  `json:"symbol"`
	Spot      float64 `json:"spot"`
	DTE       int     `json:"dte"`
	Contracts int     `json:"contracts"`

	MaxLossDollars     *float64 `json:"max_loss_dollars"`
	MaxDrawdownDollars *float64 `json:"max_drawdown_dollars"`
	VarAlpha           float64  `json:"var_alpha"`

	MinExpectedProfit float64 `json:"min_expected_profit"`
	MinProbProfit     float64 `json:"min_prob_profit"`
	MinRewardRisk     float64 `json:"min_reward_risk"`

	MinOI        int     `json:"min_oi"`
	MinVol       int     `json:"min_vol"`
	MaxSpreadPct float64 `json:"max_spread_pct"`

	AllowSingleCall bool `json:"allow_single_call"`
	AllowBullPut    bool `json:"allow_bull_put"`
}

// DefaultRequest returns a request with every constraint relaxed.
func DefaultRequest() Request {
	return Request{
		Symbol:            "SPY",
		DTE:               30,
		Contracts:         1,
		VarAlpha:          0.95,
		MinExpectedProfit: NoMinExpectedProfit,
		MaxSpreadPct:      100,
		AllowSingleCall:   true,
		AllowBullPut:      true,
	}
}

// Validate checks the request bounds.
func (r Request) Validate() error {
	switch {
	case r.Symbol == "":
		return errors.NewValidationError("symbol", r.Symbol, "must not be empty")
	case !(r.Spot > 0) || math.IsInf(r.Spot, 0):
		return errors.NewValidationError("spot", r.Spot, "must be > 0")
	case r.DTE < 1 || r.DTE > 365:
		return errors.NewValidationError("dte", r.DTE, "must be 1..365")
	case r.Contracts < 1 || r.Contracts > MaxContracts:
		return errors.NewValidationError("contracts", r.Contracts, "must be 1..500")
	case r.MaxLossDollars != nil && *r.MaxLossDollars < 0:
		return errors.NewValidationError("max_loss_dollars", *r.MaxLossDollars, "must be >= 0")
	case r.MaxDrawdownDollars != nil && *r.MaxDrawdownDollars < 0:
		return errors.NewValidationError("max_drawdown_dollars", *r.MaxDrawdownDollars, "must be >= 0")
	case r.VarAlpha < 0.5 || r.VarAlpha > 0.999:
		return errors.NewValidationError("var_alpha", r.VarAlpha, "must be 0.5..0.999")
	case r.MinProbProfit < 0 || r.MinProbProfit > 1:
		return errors.NewValidationError("min_prob_profit", r.MinProbProfit, "must be 0..1")
	case r.MinRewardRisk < 0:
		return errors.NewValidationError("min_reward_risk", r.MinRewardRisk, "must be >= 0")
	case r.MinOI < 0:
		return errors.NewValidationError("min_oi", r.MinOI, "must be >= 0")
	case r.MinVol < 0:
		return errors.NewValidationError("min_vol", r.MinVol, "must be >= 0")
	case r.MaxSpreadPct < 0:
		return errors.NewValidationError("max_spread_pct", r.MaxSpreadPct, "must be >= 0")
	}
	return nil
}

// liquid reports whether a chain item passes the liquidity filters.
func (r Request) liquid(it models.ChainItem) bool {
	return it.OpenInterest >= r.MinOI && it.Volume >= r.MinVol && it.MaxSpreadPct() <= r.MaxSpreadPct
}

// admits reports whether a candidate satisfies the risk and profitability
// constraints. Unbounded reward:risk always passes.
func (r Request) admits(c models.Candidate) bool {
	if r.MaxLossDollars != nil && c.MaxLoss > *r.MaxLossDollars {
		return false
	}
	if r.MaxDrawdownDollars != nil && c.VarWorstLoss > *r.MaxDrawdownDollars {
		return false
	}
	if c.ExpectedProfit < r.MinExpectedProfit {
		return false
	}
	if c.ProbProfit < r.MinProbProfit {
		return false
	}
	return c.RewardRisk >= r.MinRewardRisk
}

// Result is the outcome of a recommendation. When no candidate exists,
// Recommendation is nil and Error explains why. Payoff is the expiry
// curve of the recommended position.
type Result struct {
	Symbol         string              `json:"symbol"`
	Spot           float64             `json:"spot"`
	DTE            int                 `json:"dte"`
	Contracts      int                 `json:"contracts"`
	Constraints    *Request            `json:"constraints,omitempty"`
	Recommendation *models.Candidate   `json:"recommendation,omitempty"`
	Payoff         *portfolio.Analysis `json:"payoff,omitempty"`
	Candidates     int                 `json:"candidates"`
	Fallback       bool                `json:"fallback,omitempty"`
	Error          string              `json:"error,omitempty"`
	Note           string              `json:"note"`
}

// Empty reports whether no candidate could be generated.
func (r *Result) Empty() bool {
	return r.Recommendation == nil
}

// Err returns ErrEmptyResult for an empty result and nil otherwise.
func (r *Result) Err() error {
	if r.Empty() {
		return errors.Wrap(errors.ErrEmptyResult, r.Error)
	}
	return nil
}
