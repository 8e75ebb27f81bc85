package portfolio

import (
	"math"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// MaxClosedFormSteps bounds the curve size of single and vertical requests.
const MaxClosedFormSteps = 1001

// SingleRequest describes one option position evaluated at expiry.
type SingleRequest struct {
	OptionType   models.OptionType `json:"option_type"`
	Side         models.Side       `json:"side"`
	K            float64           `json:"K"`
	Premium      float64           `json:"premium"`
	Qty          int               `json:"qty"`
	ContractSize int               `json:"contract_size"`
	Underlying   float64           `json:"underlying"`
	Curve        *CurveSpec        `json:"curve,omitempty"`
}

// VerticalRequest describes a two-strike vertical spread. Side "long" buys
// KLong and sells KShort; "short" is the reverse position.
type VerticalRequest struct {
	OptionType   models.OptionType `json:"option_type"`
	Side         models.Side       `json:"side"`
	KLong        float64           `json:"K_long"`
	KShort       float64           `json:"K_short"`
	PremiumLong  float64           `json:"premium_long"`
	PremiumShort float64           `json:"premium_short"`
	Qty          int               `json:"qty"`
	ContractSize int               `json:"contract_size"`
	Underlying   float64           `json:"underlying"`
	Curve        *CurveSpec        `json:"curve,omitempty"`
}

// ClosedForm is the analytic evaluation of a single option or vertical.
// A nil bound is unlimited.
type ClosedForm struct {
	PnL        float64          `json:"pnl"`
	Breakevens []float64        `json:"breakevens"`
	MaxProfit  *float64         `json:"max_profit"`
	MaxLoss    *float64         `json:"max_loss"`
	Curve      []models.PLPoint `json:"curve,omitempty"`
}

func withDefaults(qty, contractSize int) (int, int) {
	if qty == 0 {
		qty = 1
	}
	if contractSize == 0 {
		contractSize = models.DefaultContractSize
	}
	return qty, contractSize
}

func ptr(v float64) *float64 { return &v }

func validateClosedCurve(c *CurveSpec) error {
	if c == nil {
		return nil
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Steps > MaxClosedFormSteps {
		return errors.NewValidationError("steps", c.Steps, "must be <= 1001")
	}
	return nil
}

// Leg returns the request as a validated option leg.
func (r SingleRequest) Leg() (models.OptionLeg, error) {
	qty, cs := withDefaults(r.Qty, r.ContractSize)
	return models.NewOptionLeg(r.OptionType, r.Side, r.K, r.Premium, qty, cs)
}

// SingleBreakevens returns K + premium for calls and K - premium for puts.
func SingleBreakevens(t models.OptionType, k, premium float64) []float64 {
	if t == models.Put {
		return []float64{k - premium}
	}
	return []float64{k + premium}
}

// SingleMaxPL returns the expiry maximum profit and maximum loss (as a
// non-positive P&L) of a single option leg.
func SingleMaxPL(leg models.OptionLeg) (maxProfit, maxLoss *float64) {
	m := leg.Multiplier()
	switch {
	case leg.Side == models.Long && leg.Type == models.Call:
		return nil, ptr(-leg.Premium * m)
	case leg.Side == models.Long:
		return ptr((leg.Strike - leg.Premium) * m), ptr(-leg.Premium * m)
	case leg.Type == models.Call:
		return ptr(leg.Premium * m), nil
	default:
		return ptr(leg.Premium * m), ptr(-(leg.Strike - leg.Premium) * m)
	}
}

// EvaluateSingle prices a single option position at expiry.
func EvaluateSingle(r SingleRequest) (*ClosedForm, error) {
	leg, err := r.Leg()
	if err != nil {
		return nil, err
	}
	if err := validateUnderlying(r.Underlying); err != nil {
		return nil, err
	}
	if err := validateClosedCurve(r.Curve); err != nil {
		return nil, err
	}

	legs := []models.Leg{leg}
	out := &ClosedForm{
		PnL:        legPnL(leg, r.Underlying),
		Breakevens: SingleBreakevens(leg.Type, leg.Strike, leg.Premium),
	}
	out.MaxProfit, out.MaxLoss = SingleMaxPL(leg)
	if r.Curve != nil {
		out.Curve = sampleCurve(*r.Curve, func(s float64) float64 { return pnl(legs, s) })
	}
	return out, nil
}

// Legs decomposes the vertical into its two option legs.
func (r VerticalRequest) Legs() ([]models.Leg, error) {
	qty, cs := withDefaults(r.Qty, r.ContractSize)
	if !r.Side.Valid() {
		return nil, errors.NewValidationError("side", r.Side, "must be 'long' or 'short'")
	}
	bought, sold := models.Long, models.Short
	if r.Side == models.Short {
		bought, sold = models.Short, models.Long
	}

	longLeg, err := models.NewOptionLeg(r.OptionType, bought, r.KLong, r.PremiumLong, qty, cs)
	if err != nil {
		return nil, err
	}
	shortLeg, err := models.NewOptionLeg(r.OptionType, sold, r.KShort, r.PremiumShort, qty, cs)
	if err != nil {
		return nil, err
	}
	return []models.Leg{longLeg, shortLeg}, nil
}

// VerticalBreakeven returns the closed-form breakeven of the spread. The
// formula is anchored on KLong and is the same for both sides.
func VerticalBreakeven(r VerticalRequest) []float64 {
	debit := r.PremiumLong - r.PremiumShort
	if r.OptionType == models.Put {
		return []float64{r.KLong - debit}
	}
	return []float64{r.KLong + debit}
}

// VerticalMaxPL returns the bounded maximum profit and maximum loss (as a
// non-positive P&L) of the spread.
func VerticalMaxPL(r VerticalRequest) (maxProfit, maxLoss float64) {
	qty, cs := withDefaults(r.Qty, r.ContractSize)
	m := float64(qty) * float64(cs)
	debit := r.PremiumLong - r.PremiumShort
	width := math.Abs(r.KShort - r.KLong)

	if r.Side == models.Short {
		// Selling KLong and buying KShort collects the long premium.
		credit := debit
		return credit * m, -(width - credit) * m
	}
	return (width - debit) * m, -debit * m
}

// EvaluateVertical prices a vertical spread at expiry.
func EvaluateVertical(r VerticalRequest) (*ClosedForm, error) {
	legs, err := r.Legs()
	if err != nil {
		return nil, err
	}
	if err := validateUnderlying(r.Underlying); err != nil {
		return nil, err
	}
	if err := validateClosedCurve(r.Curve); err != nil {
		return nil, err
	}

	mp, ml := VerticalMaxPL(r)
	out := &ClosedForm{
		PnL:        pnl(legs, r.Underlying),
		Breakevens: VerticalBreakeven(r),
		MaxProfit:  &mp,
		MaxLoss:    &ml,
	}
	if r.Curve != nil {
		out.Curve = sampleCurve(*r.Curve, func(s float64) float64 { return pnl(legs, s) })
	}
	return out, nil
}
