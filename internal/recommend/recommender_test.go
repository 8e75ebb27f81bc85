package recommend

import (
	"context"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"golang.org/x/exp/rand"

	"options-cockpit/internal/chain"
	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func newSeeded(seed uint64, paths int) *Recommender {
	cfg := DefaultConfig()
	cfg.Paths = paths
	return New(chain.NewSimulator(), cfg, WithRand(seeded(seed)))
}

func request(spot float64, dte int) Request {
	req := DefaultRequest()
	req.Spot = spot
	req.DTE = dte
	return req
}

func TestRecommend_SeededIsReproducible(t *testing.T) {
	a, err := newSeeded(11, 2000).Recommend(context.Background(), request(100, 30))
	if err != nil {
		t.Fatal(err)
	}
	b, err := newSeeded(11, 2000).Recommend(context.Background(), request(100, 30))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(a, b) {
		t.Errorf("seeded runs differ:\n%+v\n%+v", a.Recommendation, b.Recommendation)
	}
	if a.Recommendation == nil || a.Note != DrawdownNote || a.Constraints == nil {
		t.Errorf("unexpected result %+v", a)
	}
}

func TestRecommend_WorkerCountDoesNotChangeResult(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths = 1000

	cfg.Workers = 1
	serial, err := New(nil, cfg, WithRand(seeded(5))).Recommend(context.Background(), request(250, 45))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Workers = 8
	parallel, err := New(nil, cfg, WithRand(seeded(5))).Recommend(context.Background(), request(250, 45))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(serial.Recommendation, parallel.Recommendation) {
		t.Errorf("worker count changed the pick: %+v vs %+v", serial.Recommendation, parallel.Recommendation)
	}
}

func TestRecommend_ScoreMatchesWeights(t *testing.T) {
	r := newSeeded(3, 2000)
	res, err := r.Recommend(context.Background(), request(100, 30))
	if err != nil {
		t.Fatal(err)
	}
	c := res.Recommendation
	want := 0.65*c.ExpectedProfit + 0.35*c.ProbProfit*100
	if math.Abs(c.Score-want) > 0.006 {
		t.Errorf("score = %v, want %v", c.Score, want)
	}
}

func TestRecommend_FallbackWhenConstraintsUnsatisfiable(t *testing.T) {
	req := request(100, 30)
	req.MinExpectedProfit = 1e12

	res, err := newSeeded(1, 1000).Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Fallback || res.Error != fallbackError {
		t.Errorf("expected fallback diagnostic, got fallback=%v error=%q", res.Fallback, res.Error)
	}
	if res.Recommendation == nil {
		t.Fatal("fallback must still recommend a candidate")
	}
}

func TestRecommend_EmptyResult(t *testing.T) {
	req := request(100, 30)
	req.MinOI = 1_000_000

	res, err := newSeeded(1, 1000).Recommend(context.Background(), req)
	if err != nil {
		t.Fatalf("empty candidate set must not be a hard failure: %v", err)
	}
	if !res.Empty() || res.Error != emptyError || res.Note != emptyNote {
		t.Errorf("unexpected empty result %+v", res)
	}
	if !errors.Is(res.Err(), errors.ErrEmptyResult) {
		t.Errorf("Err() = %v, want ErrEmptyResult", res.Err())
	}
}

func TestRecommend_NoFamilies(t *testing.T) {
	req := request(100, 30)
	req.AllowSingleCall = false
	req.AllowBullPut = false

	res, err := newSeeded(1, 1000).Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Empty() || res.Candidates != 0 {
		t.Errorf("expected empty result, got %+v", res)
	}
}

func TestRecommend_MaxLossConstraint(t *testing.T) {
	req := request(100, 30)
	limit := 200.0
	req.MaxLossDollars = &limit

	res, err := newSeeded(9, 1000).Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if res.Fallback {
		t.Fatal("cheap OTM calls should satisfy a $200 loss cap")
	}
	if res.Recommendation.MaxLoss > limit {
		t.Errorf("max loss %v exceeds cap %v", res.Recommendation.MaxLoss, limit)
	}
}

func TestRecommend_Constraints(t *testing.T) {
	drawdown := 150.0
	tests := []struct {
		name         string
		mutate       func(*Request)
		admits       func(models.Candidate) bool
		wantFallback bool
	}{
		{
			name:   "max drawdown against VaR",
			mutate: func(r *Request) { r.MaxDrawdownDollars = &drawdown },
			admits: func(c models.Candidate) bool { return c.VarWorstLoss <= drawdown },
		},
		{
			name:   "min prob profit",
			mutate: func(r *Request) { r.MinProbProfit = 0.7 },
			admits: func(c models.Candidate) bool { return c.ProbProfit >= 0.7 },
		},
		{
			name:   "min reward risk",
			mutate: func(r *Request) { r.MinRewardRisk = 0.5 },
			admits: func(c models.Candidate) bool { return c.RewardRisk >= 0.5 },
		},
		{
			name: "min reward risk unreachable for spreads",
			mutate: func(r *Request) {
				r.AllowSingleCall = false
				r.MinRewardRisk = 1e6
			},
			admits:       func(c models.Candidate) bool { return c.Strategy == models.StrategyBullPutCredit },
			wantFallback: true,
		},
		{
			name:   "max spread pct",
			mutate: func(r *Request) { r.MaxSpreadPct = 8 },
			admits: func(c models.Candidate) bool { return c.Meta.MaxSpreadPct <= 8 },
		},
		{
			name:   "min vol",
			mutate: func(r *Request) { r.MinVol = 300 },
			admits: func(c models.Candidate) bool { return c.Meta.Volume >= 300 },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request(100, 30)
			tt.mutate(&req)

			res, err := newSeeded(21, 1000).Recommend(context.Background(), req)
			if err != nil {
				t.Fatal(err)
			}
			if res.Empty() {
				t.Fatalf("unexpected empty result %+v", res)
			}
			if res.Fallback != tt.wantFallback {
				t.Fatalf("fallback = %v, want %v (error %q)", res.Fallback, tt.wantFallback, res.Error)
			}
			if tt.wantFallback && res.Error != fallbackError {
				t.Errorf("error = %q, want fallback diagnostic", res.Error)
			}
			if !tt.admits(*res.Recommendation) {
				t.Errorf("winner violates constraint: %+v", res.Recommendation)
			}
		})
	}
}

func TestRecommend_PayoffMatchesCandidate(t *testing.T) {
	for _, allowCall := range []bool{true, false} {
		req := request(100, 30)
		req.Contracts = 2
		req.AllowSingleCall = allowCall
		req.AllowBullPut = !allowCall

		res, err := newSeeded(4, 1000).Recommend(context.Background(), req)
		if err != nil {
			t.Fatal(err)
		}
		c := res.Recommendation
		p := res.Payoff
		if p == nil || p.CurveBounds == nil || p.MaxLoss == nil {
			t.Fatalf("%s: payoff missing: %+v", c.Strategy, p)
		}
		step := (p.CurveBounds.SMax - p.CurveBounds.SMin) / float64(p.CurveBounds.Steps-1)

		if len(p.Breakevens) != 1 || math.Abs(p.Breakevens[0]-c.Breakeven) > step {
			t.Errorf("%s: breakevens %v, closed form %v", c.Strategy, p.Breakevens, c.Breakeven)
		}
		if math.Abs(-*p.MaxLoss-c.MaxLoss) > 0.01 {
			t.Errorf("%s: curve max loss %v, closed form %v", c.Strategy, *p.MaxLoss, c.MaxLoss)
		}
		switch c.Strategy {
		case models.StrategySingleCall:
			if math.Abs(p.NetCashflow+c.EntryCost) > 1e-6 {
				t.Errorf("debit cashflow %v, entry %v", p.NetCashflow, c.EntryCost)
			}
		case models.StrategyBullPutCredit:
			if math.Abs(p.NetCashflow-c.EntryCost) > 1e-6 || math.Abs(*p.MaxProfit-*c.MaxProfit) > 0.01 {
				t.Errorf("credit cashflow %v max profit %v, candidate %+v", p.NetCashflow, *p.MaxProfit, c)
			}
		}
	}
}

func TestCandidatePositions(t *testing.T) {
	spread := models.Candidate{
		Strategy: models.StrategyBullPutCredit,
		Legs:     models.CandidateLegs{ShortPut: 95, LongPut: 93, Credit: 0.6},
	}
	legs := spread.Positions(3)
	if len(legs) != 2 {
		t.Fatalf("legs = %+v", legs)
	}
	// Below the long strike the spread loses (width - credit) per share.
	got, err := portfolio.Analyze(legs, 90, nil)
	if err != nil {
		t.Fatal(err)
	}
	if want := -(2 - 0.6) * 100 * 3; math.Abs(got.PnL-want) > 1e-6 {
		t.Errorf("pnl at 90 = %v, want %v", got.PnL, want)
	}

	call := models.Candidate{Strategy: models.StrategySingleCall, Legs: models.CandidateLegs{Strike: 100, Premium: 2}}
	got, err = portfolio.Analyze(call.Positions(1), 110, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got.PnL != 800 {
		t.Errorf("call pnl at 110 = %v, want 800", got.PnL)
	}

	if (models.Candidate{Strategy: "iron_condor"}).Positions(1) != nil {
		t.Error("unknown strategy should have no positions")
	}
}

func TestRecommend_BullPutOnly(t *testing.T) {
	req := request(100, 30)
	req.AllowSingleCall = false
	req.Contracts = 3

	res, err := newSeeded(2, 1000).Recommend(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	c := res.Recommendation
	if c.Strategy != models.StrategyBullPutCredit || c.CostType != models.CostCredit {
		t.Fatalf("unexpected strategy %+v", c)
	}
	if c.Legs.ShortPut > req.Spot || c.Legs.LongPut >= c.Legs.ShortPut {
		t.Errorf("bad strikes %+v", c.Legs)
	}
	width := c.Legs.ShortPut - c.Legs.LongPut
	if math.Abs(*c.MaxProfit+c.MaxLoss-width*100*3) > 1e-6 {
		t.Errorf("max profit %v + max loss %v != width %v * 300", *c.MaxProfit, c.MaxLoss, width)
	}
	if math.Abs(c.Breakeven-(c.Legs.ShortPut-c.Legs.Credit)) > 0.005 {
		t.Errorf("breakeven = %v", c.Breakeven)
	}
}

func TestRecommend_InvalidRequest(t *testing.T) {
	mutate := []func(*Request){
		func(r *Request) { r.Spot = 0 },
		func(r *Request) { r.DTE = 0 },
		func(r *Request) { r.DTE = 400 },
		func(r *Request) { r.Contracts = 0 },
		func(r *Request) { r.Contracts = 501 },
		func(r *Request) { r.VarAlpha = 0.2 },
		func(r *Request) { r.MinProbProfit = 1.5 },
		func(r *Request) { r.MinOI = -1 },
		func(r *Request) { r.Symbol = "" },
	}
	r := newSeeded(1, 100)
	for i, m := range mutate {
		req := request(100, 30)
		m(&req)
		if _, err := r.Recommend(context.Background(), req); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestRecommend_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newSeeded(1, 100).Recommend(ctx, request(100, 30)); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestGenerateSpecs_Order(t *testing.T) {
	c, err := chain.NewSimulator().GenerateWithRand(100, 30, seeded(4))
	if err != nil {
		t.Fatal(err)
	}
	specs := generateSpecs(c, request(100, 30))

	seenSpread := false
	var lastShort, lastWidth float64
	for _, s := range specs {
		if s.kind == models.StrategySingleCall {
			if seenSpread {
				t.Fatal("single call generated after a spread")
			}
			continue
		}
		seenSpread = true
		width := s.shortK - s.longK
		if s.shortK < lastShort || (s.shortK == lastShort && width <= lastWidth) {
			t.Fatalf("spreads out of order: short %v width %v after short %v width %v", s.shortK, width, lastShort, lastWidth)
		}
		if s.shortK > 100 {
			t.Errorf("short strike %v above spot", s.shortK)
		}
		lastShort, lastWidth = s.shortK, width
	}
	if !seenSpread {
		t.Error("no spreads generated")
	}
}

func TestPick_TiesKeepFirst(t *testing.T) {
	r := New(nil, DefaultConfig())
	a := models.Candidate{Strategy: models.StrategySingleCall, ExpectedProfit: 10, ProbProfit: 0.5}
	b := models.Candidate{Strategy: models.StrategyBullPutCredit, ExpectedProfit: 10, ProbProfit: 0.5}
	if got := r.pick([]models.Candidate{a, b}); got.Strategy != models.StrategySingleCall {
		t.Errorf("tie picked %v, want the first candidate", got.Strategy)
	}
	c := models.Candidate{Strategy: models.StrategyBullPutCredit, ExpectedProfit: 10.01, ProbProfit: 0.5}
	if got := r.pick([]models.Candidate{a, c}); got.Strategy != models.StrategyBullPutCredit {
		t.Errorf("higher score lost")
	}
}

// Property: every generated candidate has POP in [0,1] and a non-negative
// VaR; bull-put spreads satisfy max profit + max loss = width * 100 * contracts.
func TestProperty_CandidateBounds(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 30
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	cfg := DefaultConfig()
	cfg.Paths = 400
	r := New(nil, cfg)
	sim := chain.NewSimulator()

	properties.Property("candidate metrics stay in bounds", prop.ForAll(
		func(spot float64, dte, contracts int, alpha float64, seed uint64) bool {
			rng := seeded(seed)
			c, err := sim.GenerateWithRand(spot, dte, rng)
			if err != nil {
				return false
			}
			req := request(spot, dte)
			req.Contracts = contracts
			req.VarAlpha = alpha

			for _, s := range generateSpecs(c, req) {
				s.seed = rng.Uint64()
				cand := r.evaluate(s, req)
				if cand.ProbProfit < 0 || cand.ProbProfit > 1 || cand.VarWorstLoss < 0 {
					return false
				}
				if cand.Strategy == models.StrategyBullPutCredit {
					width := cand.Legs.ShortPut - cand.Legs.LongPut
					total := *cand.MaxProfit + cand.MaxLoss
					if math.Abs(total-width*100*float64(contracts)) > 1e-6 {
						return false
					}
				}
			}
			return true
		},
		gen.Float64Range(5, 1000),
		gen.IntRange(1, 365),
		gen.IntRange(1, 20),
		gen.Float64Range(0.5, 0.999),
		gen.UInt64(),
	))

	properties.TestingRun(t)
}

func BenchmarkRecommend(b *testing.B) {
	r := New(nil, DefaultConfig(), WithRand(seeded(1)))
	req := request(450, 30)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Recommend(context.Background(), req); err != nil {
			b.Fatal(err)
		}
	}
}
