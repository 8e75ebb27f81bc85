package portfolio

import (
	"math"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

const (
	DefaultPortfolioSteps = 201
	MaxPortfolioSteps     = 2001
)

// BoundsRequest is a curve request where either bound may be omitted.
type BoundsRequest struct {
	SMin  *float64 `json:"s_min,omitempty"`
	SMax  *float64 `json:"s_max,omitempty"`
	Steps int      `json:"steps,omitempty"`
}

// Analysis is the full evaluation of a portfolio at one underlying price.
type Analysis struct {
	PnL         float64          `json:"pnl"`
	NetCashflow float64          `json:"net_cashflow"`
	Breakevens  []float64        `json:"breakevens"`
	MaxProfit   *float64         `json:"max_profit"`
	MaxLoss     *float64         `json:"max_loss"`
	Curve       []models.PLPoint `json:"curve,omitempty"`
	CurveBounds *CurveSpec       `json:"curve_bounds,omitempty"`
}

// AutoBounds derives a sampling window around spot from the legs' strikes
// and entry prices. The window is spot +/- max(3*span, 0.2*spot), with
// s_min clamped to 0.01.
func AutoBounds(legs []models.Leg, spot float64) (sMin, sMax float64) {
	lo, hi := spot, spot
	for _, leg := range legs {
		var ref float64
		switch l := leg.(type) {
		case models.OptionLeg:
			ref = l.Strike
		case models.StockLeg:
			ref = l.EntryPrice
		default:
			continue
		}
		lo = math.Min(lo, ref)
		hi = math.Max(hi, ref)
	}

	base := hi - lo
	if base <= 0 {
		base = math.Max(spot*0.25, 10.0)
	}
	radius := math.Max(3.0*base, 0.2*spot)

	sMin = math.Max(0.01, spot-radius)
	sMax = spot + radius
	if sMax <= sMin {
		sMax = sMin + 1.0
	}
	return sMin, sMax
}

// Analyze evaluates legs at underlying and, when req is non-nil, samples a
// curve over the requested or auto-derived bounds. Breakevens and extrema
// come from the curve; without one they are empty.
func Analyze(legs []models.Leg, underlying float64, req *BoundsRequest) (*Analysis, error) {
	if err := validateLegs(legs); err != nil {
		return nil, err
	}
	if err := validateUnderlying(underlying); err != nil {
		return nil, err
	}

	cash, err := NetCashflow(legs)
	if err != nil {
		return nil, err
	}
	out := &Analysis{
		PnL:         pnl(legs, underlying),
		NetCashflow: cash,
		Breakevens:  []float64{},
	}
	if req == nil {
		return out, nil
	}

	spec, err := resolveBounds(legs, underlying, *req)
	if err != nil {
		return nil, err
	}
	curve, err := Curve(legs, spec)
	if err != nil {
		return nil, err
	}

	out.Curve = curve
	out.CurveBounds = &spec
	out.Breakevens = Breakevens(curve)
	if hi, lo, ok := Extrema(curve); ok {
		out.MaxProfit = &hi
		out.MaxLoss = &lo
	}
	return out, nil
}

func resolveBounds(legs []models.Leg, underlying float64, req BoundsRequest) (CurveSpec, error) {
	steps := req.Steps
	if steps == 0 {
		steps = DefaultPortfolioSteps
	}
	if steps < 2 || steps > MaxPortfolioSteps {
		return CurveSpec{}, errors.NewValidationError("steps", steps, "must be 2..2001")
	}

	autoMin, autoMax := AutoBounds(legs, underlying)
	spec := CurveSpec{SMin: autoMin, SMax: autoMax, Steps: steps}
	if req.SMin != nil {
		spec.SMin = *req.SMin
	}
	if req.SMax != nil {
		spec.SMax = *req.SMax
	}
	if err := spec.Validate(); err != nil {
		return CurveSpec{}, err
	}
	return spec, nil
}
