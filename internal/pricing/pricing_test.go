package pricing

import (
	"math"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

func TestBlackScholes_AtTheMoneyScenario(t *testing.T) {
	res, err := BlackScholes(Inputs{S: 100, K: 100, T: 0.5, R: 0.05, Q: 0, Sigma: 0.2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if math.Abs(res.CallPrice-6.89) > 0.01 {
		t.Errorf("call price = %.4f, want ~6.89", res.CallPrice)
	}
	// Parity fixes the put at 6.8887 - 100 + 100*e^(-0.025).
	if math.Abs(res.PutPrice-4.42) > 0.01 {
		t.Errorf("put price = %.4f, want ~4.42", res.PutPrice)
	}
	if res.DeltaCall <= 0.5 || res.DeltaCall >= 0.7 {
		t.Errorf("delta call = %.4f, want in (0.5, 0.7)", res.DeltaCall)
	}
	if res.Gamma <= 0 || res.Vega <= 0 {
		t.Errorf("gamma and vega must be positive, got %.6f %.6f", res.Gamma, res.Vega)
	}
	if res.ThetaCall >= 0 {
		t.Errorf("call theta = %.4f, want negative", res.ThetaCall)
	}
	if res.RhoCall <= 0 || res.RhoPut >= 0 {
		t.Errorf("rho signs wrong: call %.4f put %.4f", res.RhoCall, res.RhoPut)
	}
}

func TestBlackScholes_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
	}{
		{"zero spot", Inputs{S: 0, K: 100, T: 1, Sigma: 0.2}},
		{"negative strike", Inputs{S: 100, K: -1, T: 1, Sigma: 0.2}},
		{"zero time", Inputs{S: 100, K: 100, T: 0, Sigma: 0.2}},
		{"zero vol", Inputs{S: 100, K: 100, T: 1, Sigma: 0}},
		{"nan rate", Inputs{S: 100, K: 100, T: 1, R: math.NaN(), Sigma: 0.2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BlackScholes(tt.in)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

// Property: call - put = S*e^(-qT) - K*e^(-rT) for any valid inputs.
func TestProperty_PutCallParity(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("put-call parity holds", prop.ForAll(
		func(s, k, tt, r, q, sigma float64) bool {
			res, err := BlackScholes(Inputs{S: s, K: k, T: tt, R: r, Q: q, Sigma: sigma})
			if err != nil {
				return false
			}
			lhs := res.CallPrice - res.PutPrice
			rhs := s*math.Exp(-q*tt) - k*math.Exp(-r*tt)
			return math.Abs(lhs-rhs) <= 1e-8*math.Max(s, k)
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.01, 5),
		gen.Float64Range(-0.05, 0.15),
		gen.Float64Range(-0.02, 0.1),
		gen.Float64Range(0.01, 3),
	))

	properties.TestingRun(t)
}

// Property: delta_call in [0, e^(-qT)] and delta_put in [-e^(-qT), 0].
func TestProperty_DeltaBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("deltas stay within discounted bounds", prop.ForAll(
		func(s, k, tt, r, q, sigma float64) bool {
			res, err := BlackScholes(Inputs{S: s, K: k, T: tt, R: r, Q: q, Sigma: sigma})
			if err != nil {
				return false
			}
			bound := math.Exp(-q*tt) + 1e-12
			return res.DeltaCall >= 0 && res.DeltaCall <= bound &&
				res.DeltaPut <= 0 && res.DeltaPut >= -bound
		},
		gen.Float64Range(1, 1000),
		gen.Float64Range(1, 1000),
		gen.Float64Range(0.01, 5),
		gen.Float64Range(-0.05, 0.15),
		gen.Float64Range(-0.02, 0.1),
		gen.Float64Range(0.01, 3),
	))

	properties.TestingRun(t)
}

// Property: solving implied vol from a model price recovers the input vol
// for near-the-money strikes across the solver's whole volatility range.
func TestProperty_ImpliedVolRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("implied vol round-trips within 1e-4", prop.ForAll(
		func(k, tt, sigma0 float64, isCall bool) bool {
			in := Inputs{S: 100, K: k, T: tt, R: 0.05, Q: 0.01, Sigma: sigma0}
			res, err := BlackScholes(in)
			if err != nil {
				return false
			}
			optType := models.Put
			if isCall {
				optType = models.Call
			}
			iv, err := ImpliedVol(IVRequest{
				S: in.S, K: in.K, T: in.T, R: in.R, Q: in.Q,
				MarketPrice: res.Price(optType),
				OptionType:  optType,
			})
			if err != nil {
				return false
			}
			return math.Abs(iv.ImpliedVol-sigma0) < 1e-4
		},
		gen.Float64Range(95, 105),
		gen.Float64Range(0.25, 2),
		gen.Float64Range(0.05, 4.99),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

func TestImpliedVol_ConvergenceFailure(t *testing.T) {
	// A call can never be worth more than the discounted spot.
	_, err := ImpliedVol(IVRequest{S: 100, K: 100, T: 0.5, R: 0.05, MarketPrice: 150, OptionType: models.Call})
	if !errors.Is(err, errors.ErrConvergenceFailure) {
		t.Fatalf("expected ErrConvergenceFailure, got %v", err)
	}

	var ce *errors.ConvergenceError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConvergenceError, got %T", err)
	}
	if ce.Attempts != 20 {
		t.Errorf("attempts = %d, want 20", ce.Attempts)
	}
}

func TestImpliedVol_InvalidInput(t *testing.T) {
	tests := []struct {
		name string
		req  IVRequest
	}{
		{"zero price", IVRequest{S: 100, K: 100, T: 1, MarketPrice: 0, OptionType: models.Call}},
		{"negative price", IVRequest{S: 100, K: 100, T: 1, MarketPrice: -1, OptionType: models.Put}},
		{"unknown type", IVRequest{S: 100, K: 100, T: 1, MarketPrice: 5, OptionType: "straddle"}},
		{"zero spot", IVRequest{S: 0, K: 100, T: 1, MarketPrice: 5, OptionType: models.Call}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ImpliedVol(tt.req)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestImpliedVol_CaseInsensitiveType(t *testing.T) {
	res, err := BlackScholes(Inputs{S: 100, K: 95, T: 1, R: 0.03, Sigma: 0.35})
	if err != nil {
		t.Fatal(err)
	}
	iv, err := ImpliedVol(IVRequest{S: 100, K: 95, T: 1, R: 0.03, MarketPrice: res.PutPrice, OptionType: " PUT "})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(iv.ImpliedVol-0.35) > 1e-4 {
		t.Errorf("implied vol = %.6f, want 0.35", iv.ImpliedVol)
	}
	if iv.Iterations < 1 || iv.Iterations > 200 {
		t.Errorf("iterations = %d out of range", iv.Iterations)
	}
}

func TestImpliedVol_IterationCapReturnsMidpoint(t *testing.T) {
	res, err := BlackScholes(Inputs{S: 100, K: 100, T: 1, R: 0.05, Sigma: 0.3})
	if err != nil {
		t.Fatal(err)
	}

	cfg := DefaultSolverConfig()
	cfg.MaxIter = 3
	iv, err := NewSolver(cfg).Solve(IVRequest{S: 100, K: 100, T: 1, R: 0.05, MarketPrice: res.CallPrice, OptionType: models.Call})
	if err != nil {
		t.Fatalf("iteration cap must not fail: %v", err)
	}
	if iv.Iterations != 3 {
		t.Errorf("iterations = %d, want 3", iv.Iterations)
	}
	if iv.ImpliedVol <= 0 || iv.ImpliedVol >= 5 {
		t.Errorf("midpoint %.4f outside the initial bracket", iv.ImpliedVol)
	}
}

func TestBracket_Narrow(t *testing.T) {
	b := bracket{low: 0, fLow: -1, high: 2, fHigh: 1}

	left := b.narrow(1, 0.5)
	if left.low != 0 || left.high != 1 || left.fHigh != 0.5 {
		t.Errorf("root left of mid: got %+v", left)
	}

	right := b.narrow(1, -0.5)
	if right.low != 1 || right.high != 2 || right.fLow != -0.5 {
		t.Errorf("root right of mid: got %+v", right)
	}
}

func TestSimpleGreeks(t *testing.T) {
	zero := SimpleGreeks(100, 100, 0, 0.01, 0.2, true)
	if zero != (models.DisplayGreeks{}) {
		t.Errorf("expected zero greeks for T=0, got %+v", zero)
	}

	full, err := BlackScholes(Inputs{S: 100, K: 100, T: 0.5, R: 0.01, Sigma: 0.2})
	if err != nil {
		t.Fatal(err)
	}
	g := SimpleGreeks(100, 100, 0.5, 0.01, 0.2, false)
	if math.Abs(g.Vega-full.Vega/100) > 1e-12 {
		t.Errorf("vega = %v, want %v", g.Vega, full.Vega/100)
	}
	if math.Abs(g.Theta-full.ThetaPut/365) > 1e-12 {
		t.Errorf("theta = %v, want %v", g.Theta, full.ThetaPut/365)
	}
	if g.Delta >= 0 {
		t.Errorf("put delta = %v, want negative", g.Delta)
	}
}
