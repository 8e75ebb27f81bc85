// Package risk provides pre-trade risk checks and trade ticket validation.
package risk

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/pkg/utils"
)

const (
	// DefaultMaxRiskPerTradePct applies when a check leaves the percentage unset.
	DefaultMaxRiskPerTradePct = 1.0
	// WideSpreadPct is the quoted spread width that triggers a slippage warning.
	WideSpreadPct = 8.0
	// MaxContracts caps a single ticket.
	MaxContracts = 500
)

// Rule names reported in risk errors.
const (
	RuleMaxRiskPerTrade = "max_risk_per_trade"
	RuleWideSpread      = "wide_spread"
)

// validate shares the binding tag with the HTTP layer, so the same rules
// hold for API requests and direct calls.
var validate = func() *validator.Validate {
	v := validator.New()
	v.SetTagName("binding")
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}()

// Check describes a proposed trade against an account.
type Check struct {
	AccountEquity      float64 `json:"account_equity" binding:"gt=0"`
	MaxRiskPerTradePct float64 `json:"max_risk_per_trade_pct" binding:"omitempty,gt=0,lte=10"`
	TradeMaxLoss       float64 `json:"trade_max_loss" binding:"gte=0"`
	SpreadWidthPct     float64 `json:"spread_width_pct" binding:"gte=0"`
}

// Result is the outcome of a pre-trade check. OK is false when any hard
// block fired; warnings never block.
type Result struct {
	MaxAllowedLoss float64  `json:"max_allowed_loss"`
	HardBlocks     []string `json:"hard_blocks"`
	Warnings       []string `json:"warnings"`
	OK             bool     `json:"ok"`
}

// Err returns a RiskError for the first hard block, or nil.
func (r *Result) Err(c Check) error {
	if r.OK {
		return nil
	}
	return errors.NewRiskError(RuleMaxRiskPerTrade, c.TradeMaxLoss, r.MaxAllowedLoss, r.HardBlocks[0])
}

// PreTrade sizes the allowed loss from equity and flags trades that
// exceed it.
func PreTrade(c Check) (*Result, error) {
	if err := validate.Struct(c); err != nil {
		return nil, toValidationError(err)
	}
	pct := c.MaxRiskPerTradePct
	if pct == 0 {
		pct = DefaultMaxRiskPerTradePct
	}
	maxAllowed := c.AccountEquity * (pct / 100.0)

	res := &Result{
		MaxAllowedLoss: utils.Round2(maxAllowed),
		HardBlocks:     []string{},
		Warnings:       []string{},
	}
	if c.TradeMaxLoss > maxAllowed {
		res.HardBlocks = append(res.HardBlocks, "Trade max loss exceeds allowed risk per trade.")
	}
	if c.SpreadWidthPct >= WideSpreadPct {
		res.Warnings = append(res.Warnings, "Wide spread: potential bad fill / slippage risk.")
	}
	res.OK = len(res.HardBlocks) == 0
	return res, nil
}

// ValidateTrade checks a trade ticket before it is recorded. Contracts
// defaults to 1 when unset. Credit spreads must carry consistent strikes
// and a credit inside the width.
func ValidateTrade(t *models.TradeTicket) error {
	if t.Contracts == 0 {
		t.Contracts = 1
	}
	t.Symbol = strings.TrimSpace(t.Symbol)
	t.Strategy = strings.TrimSpace(t.Strategy)

	switch {
	case t.Symbol == "":
		return errors.NewValidationError("symbol", t.Symbol, "must not be empty")
	case t.Strategy == "":
		return errors.NewValidationError("strategy", t.Strategy, "must not be empty")
	case t.MaxLoss < 0:
		return errors.NewValidationError("max_loss", t.MaxLoss, "must be >= 0")
	case t.Contracts < 1 || t.Contracts > MaxContracts:
		return errors.NewValidationError("contracts", t.Contracts, fmt.Sprintf("must be 1..%d", MaxContracts))
	}

	if t.Strategy != models.StrategyBullPutSpread {
		return nil
	}
	if t.ShortStrike == nil || t.LongStrike == nil || t.Credit == nil {
		return errors.NewValidationError("legs", nil, "Spread requires short_strike, long_strike, credit.")
	}
	short, long, credit := *t.ShortStrike, *t.LongStrike, *t.Credit
	if short <= long {
		return errors.NewValidationError("short_strike", short, "Invalid spread: short_strike must be > long_strike.")
	}
	if credit <= 0 {
		return errors.NewValidationError("credit", credit, "Invalid spread: credit must be > 0.")
	}
	if credit >= short-long {
		return errors.NewValidationError("credit", credit, "Invalid spread: credit must be < width.")
	}
	return nil
}

func toValidationError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidationError(fe.Field(), fe.Value(), fmt.Sprintf("failed '%s' rule", ruleText(fe)))
	}
	return errors.NewValidationError("request", nil, err.Error())
}

func ruleText(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}
