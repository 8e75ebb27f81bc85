package pricing

import (
	"math"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// SolverConfig controls the implied volatility bisection.
type SolverConfig struct {
	VolLow       float64 `mapstructure:"vol_low"`
	VolHigh      float64 `mapstructure:"vol_high"`
	Tolerance    float64 `mapstructure:"tolerance"`
	MaxIter      int     `mapstructure:"max_iter"`
	ExpandSteps  int     `mapstructure:"expand_steps"`
	ExpandFactor float64 `mapstructure:"expand_factor"`
}

// DefaultSolverConfig returns the standard bracket [1e-6, 5.0] with
// tolerance 1e-6, 200 iterations and 20 expansions of x1.5.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		VolLow:       1e-6,
		VolHigh:      5.0,
		Tolerance:    1e-6,
		MaxIter:      200,
		ExpandSteps:  20,
		ExpandFactor: 1.5,
	}
}

// IVRequest holds the inputs of an implied volatility solve.
type IVRequest struct {
	S           float64           `json:"S"`
	K           float64           `json:"K"`
	T           float64           `json:"T"`
	R           float64           `json:"r"`
	Q           float64           `json:"q"`
	MarketPrice float64           `json:"market_price"`
	OptionType  models.OptionType `json:"option_type"`
}

// Solver inverts the pricing formula by bisection.
type Solver struct {
	cfg SolverConfig
}

// NewSolver creates a solver. Zero fields of cfg fall back to defaults.
func NewSolver(cfg SolverConfig) *Solver {
	def := DefaultSolverConfig()
	if cfg.VolLow <= 0 {
		cfg.VolLow = def.VolLow
	}
	if cfg.VolHigh <= cfg.VolLow {
		cfg.VolHigh = def.VolHigh
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = def.MaxIter
	}
	if cfg.ExpandSteps < 0 {
		cfg.ExpandSteps = def.ExpandSteps
	}
	if cfg.ExpandFactor <= 1 {
		cfg.ExpandFactor = def.ExpandFactor
	}
	return &Solver{cfg: cfg}
}

// bracket is the current search interval and the objective at both ends.
type bracket struct {
	low, fLow   float64
	high, fHigh float64
}

func (b bracket) straddlesRoot() bool {
	return b.fLow*b.fHigh <= 0
}

func (b bracket) mid() float64 {
	return (b.low + b.high) / 2
}

// narrow keeps the half that still contains the root.
func (b bracket) narrow(mid, fMid float64) bracket {
	if b.fLow*fMid <= 0 {
		return bracket{low: b.low, fLow: b.fLow, high: mid, fHigh: fMid}
	}
	return bracket{low: mid, fLow: fMid, high: b.high, fHigh: b.fHigh}
}

// ImpliedVol solves for the volatility that reproduces the market price.
func ImpliedVol(req IVRequest) (models.ImpliedVolResult, error) {
	return NewSolver(DefaultSolverConfig()).Solve(req)
}

// Solve returns the implied volatility for req. A price outside the model's
// range after all bracket expansions is a convergence failure; hitting the
// iteration cap returns the final midpoint.
func (s *Solver) Solve(req IVRequest) (models.ImpliedVolResult, error) {
	if !(req.MarketPrice > 0) || math.IsInf(req.MarketPrice, 0) {
		return models.ImpliedVolResult{}, errors.NewValidationError("market_price", req.MarketPrice, "must be > 0")
	}
	optType, err := models.ParseOptionType(string(req.OptionType))
	if err != nil {
		return models.ImpliedVolResult{}, errors.NewValidationError("option_type", req.OptionType, "must be 'call' or 'put'")
	}
	base := Inputs{S: req.S, K: req.K, T: req.T, R: req.R, Q: req.Q, Sigma: s.cfg.VolLow}
	if err := base.Validate(); err != nil {
		return models.ImpliedVolResult{}, err
	}

	f := func(vol float64) float64 {
		in := base
		in.Sigma = vol
		return blackScholes(in).Price(optType) - req.MarketPrice
	}

	b := bracket{
		low:   s.cfg.VolLow,
		fLow:  f(s.cfg.VolLow),
		high:  s.cfg.VolHigh,
		fHigh: f(s.cfg.VolHigh),
	}
	for i := 0; !b.straddlesRoot() && i < s.cfg.ExpandSteps; i++ {
		b.high *= s.cfg.ExpandFactor
		b.fHigh = f(b.high)
	}
	if !b.straddlesRoot() {
		return models.ImpliedVolResult{}, errors.NewConvergenceError("implied_vol", s.cfg.ExpandSteps,
			"could not bracket implied vol (market price out of model range)")
	}

	for i := 1; i <= s.cfg.MaxIter; i++ {
		mid := b.mid()
		fMid := f(mid)
		if math.Abs(fMid) < s.cfg.Tolerance || (b.high-b.low)/2 < s.cfg.Tolerance {
			return models.ImpliedVolResult{ImpliedVol: mid, Iterations: i}, nil
		}
		b = b.narrow(mid, fMid)
	}

	return models.ImpliedVolResult{ImpliedVol: b.mid(), Iterations: s.cfg.MaxIter}, nil
}
