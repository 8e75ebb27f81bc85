// Package portfolio computes expiry P&L, curves, breakevens and extrema for
// combinations of option and stock legs.
package portfolio

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// BreakevenTolerance is the distance under which two breakevens are merged.
const BreakevenTolerance = 1e-6

// CurveSpec describes the sampled price range of a P&L curve.
type CurveSpec struct {
	SMin  float64 `json:"s_min"`
	SMax  float64 `json:"s_max"`
	Steps int     `json:"steps"`
}

// Validate checks the curve bounds.
func (c CurveSpec) Validate() error {
	if !(c.SMin > 0) {
		return errors.NewValidationError("s_min", c.SMin, "must be > 0")
	}
	if !(c.SMax > 0) {
		return errors.NewValidationError("s_max", c.SMax, "must be > 0")
	}
	if !(c.SMax > c.SMin) {
		return errors.NewValidationError("s_max", c.SMax, "must be > s_min")
	}
	if c.Steps < 2 {
		return errors.NewValidationError("steps", c.Steps, "must be >= 2")
	}
	return nil
}

func validateLegs(legs []models.Leg) error {
	if len(legs) == 0 {
		return errors.NewValidationError("legs", 0, "at least one leg is required")
	}
	for i, leg := range legs {
		if leg == nil {
			return errors.NewValidationError(fmt.Sprintf("legs[%d]", i), nil, "missing leg")
		}
		if err := leg.Validate(); err != nil {
			return fmt.Errorf("legs[%d]: %w", i, err)
		}
	}
	return nil
}

func validateUnderlying(s float64) error {
	if !(s > 0) || math.IsInf(s, 0) {
		return errors.NewValidationError("underlying", s, "must be > 0")
	}
	return nil
}

// LegPnL returns the expiry P&L of one validated leg at underlying price s.
func LegPnL(leg models.Leg, s float64) (float64, error) {
	if leg == nil {
		return 0, errors.NewValidationError("leg", nil, "missing leg")
	}
	if err := leg.Validate(); err != nil {
		return 0, err
	}
	if err := validateUnderlying(s); err != nil {
		return 0, err
	}
	return legPnL(leg, s), nil
}

func legPnL(leg models.Leg, s float64) float64 {
	switch l := leg.(type) {
	case models.OptionLeg:
		return l.Side.Sign() * (payoff(l.Type, s, l.Strike) - l.Premium) * l.Multiplier()
	case models.StockLeg:
		return l.Side.Sign() * (s - l.EntryPrice) * float64(l.Shares)
	}
	return 0
}

func payoff(t models.OptionType, s, k float64) float64 {
	if t == models.Put {
		return math.Max(k-s, 0)
	}
	return math.Max(s-k, 0)
}

// PnL returns the aggregate expiry P&L of legs at underlying price s.
func PnL(legs []models.Leg, s float64) (float64, error) {
	if err := validateLegs(legs); err != nil {
		return 0, err
	}
	if err := validateUnderlying(s); err != nil {
		return 0, err
	}
	return pnl(legs, s), nil
}

func pnl(legs []models.Leg, s float64) float64 {
	total := 0.0
	for _, leg := range legs {
		total += legPnL(leg, s)
	}
	return total
}

// NetCashflow returns the entry cashflow of legs: positive for a net credit,
// negative for a net debit.
func NetCashflow(legs []models.Leg) (float64, error) {
	if err := validateLegs(legs); err != nil {
		return 0, err
	}

	total := 0.0
	for _, leg := range legs {
		switch l := leg.(type) {
		case models.OptionLeg:
			total -= l.Side.Sign() * l.Premium * l.Multiplier()
		case models.StockLeg:
			total -= l.Side.Sign() * l.EntryPrice * float64(l.Shares)
		}
	}
	return total, nil
}

// Curve samples the portfolio P&L at spec.Steps equally spaced prices from
// SMin to SMax inclusive.
func Curve(legs []models.Leg, spec CurveSpec) ([]models.PLPoint, error) {
	if err := validateLegs(legs); err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return sampleCurve(spec, func(s float64) float64 { return pnl(legs, s) }), nil
}

func sampleCurve(spec CurveSpec, f func(float64) float64) []models.PLPoint {
	xs := floats.Span(make([]float64, spec.Steps), spec.SMin, spec.SMax)
	points := make([]models.PLPoint, len(xs))
	for i, x := range xs {
		points[i] = models.PLPoint{Underlying: x, PnL: f(x)}
	}
	return points
}

// Breakevens returns the interpolated zero crossings of an ascending curve,
// sorted and deduplicated. Crossings between samples closer than the
// sampling step are not detected.
func Breakevens(points []models.PLPoint) []float64 {
	var roots []float64
	for i, p := range points {
		if p.PnL == 0 {
			roots = append(roots, p.Underlying)
		}
		if i == 0 {
			continue
		}
		a := points[i-1]
		if a.PnL*p.PnL < 0 {
			x := a.Underlying + (-a.PnL)*(p.Underlying-a.Underlying)/(p.PnL-a.PnL)
			roots = append(roots, x)
		}
	}

	sort.Float64s(roots)
	out := make([]float64, 0, len(roots))
	for _, r := range roots {
		if len(out) > 0 && math.Abs(r-out[len(out)-1]) <= BreakevenTolerance {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Extrema returns the largest and smallest sampled P&L. ok is false for an
// empty curve.
func Extrema(points []models.PLPoint) (maxPnL, minPnL float64, ok bool) {
	if len(points) == 0 {
		return 0, 0, false
	}
	vals := make([]float64, len(points))
	for i, p := range points {
		vals[i] = p.PnL
	}
	return floats.Max(vals), floats.Min(vals), true
}
