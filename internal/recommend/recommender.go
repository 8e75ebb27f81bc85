// Package recommend picks the best options strategy for a synthetic chain
// by Monte-Carlo simulation of terminal prices.
package recommend

import (
	"context"
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"

	"options-cockpit/internal/chain"
	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
	"options-cockpit/pkg/utils"
)

// UnboundedRewardRisk is the reward:risk reported for strategies with
// unlimited upside.
const UnboundedRewardRisk = 999999.0

// Config holds recommender tuning.
type Config struct {
	Paths     int     `mapstructure:"paths"`
	EVWeight  float64 `mapstructure:"ev_weight"`
	POPWeight float64 `mapstructure:"pop_weight"`
	Workers   int     `mapstructure:"workers"`
	Seed      uint64  `mapstructure:"seed"`
}

// DefaultConfig returns 9000 paths per candidate scored 0.65*EV + 0.35*POP%.
func DefaultConfig() Config {
	return Config{
		Paths:     9000,
		EVWeight:  0.65,
		POPWeight: 0.35,
	}
}

// Observer receives one event per completed recommendation.
type Observer interface {
	ObserveRecommendation(candidates int, outcome string, elapsed time.Duration)
}

// Outcomes reported to an Observer.
const (
	OutcomeConstrained = "constrained"
	OutcomeFallback    = "fallback"
	OutcomeEmpty       = "empty"
)

// Option configures a Recommender.
type Option func(*Recommender)

// WithRand makes every recommendation draw from rng. Calls are serialized
// on the generator, so results are reproducible for a seeded rng.
func WithRand(rng *rand.Rand) Option {
	return func(r *Recommender) { r.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Recommender) { r.logger = logger }
}

// WithObserver registers an observer for recommendation outcomes.
func WithObserver(o Observer) Option {
	return func(r *Recommender) { r.observer = o }
}

// Recommender scores candidate strategies on a simulated chain.
type Recommender struct {
	cfg      Config
	chains   *chain.Simulator
	logger   zerolog.Logger
	observer Observer

	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a Recommender. A non-zero cfg.Seed seeds the generator
// unless WithRand is given.
func New(chains *chain.Simulator, cfg Config, opts ...Option) *Recommender {
	def := DefaultConfig()
	if cfg.Paths <= 0 {
		cfg.Paths = def.Paths
	}
	if cfg.EVWeight == 0 && cfg.POPWeight == 0 {
		cfg.EVWeight, cfg.POPWeight = def.EVWeight, def.POPWeight
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	if chains == nil {
		chains = chain.NewSimulator()
	}

	r := &Recommender{
		cfg:    cfg,
		chains: chains,
		logger: zerolog.Nop(),
	}
	if cfg.Seed != 0 {
		r.rng = rand.New(rand.NewSource(cfg.Seed))
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Score weighs expected profit against probability of profit in percent.
func (r *Recommender) Score(c models.Candidate) float64 {
	return r.cfg.EVWeight*c.ExpectedProfit + r.cfg.POPWeight*(c.ProbProfit*100.0)
}

// Recommend generates a chain, evaluates every eligible candidate and
// returns the best-scoring one. Constraint misses fall back to the
// unconstrained set; an empty candidate set is reported in the result,
// not as an error.
func (r *Recommender) Recommend(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	c, specs, err := r.prepare(req)
	if err != nil {
		return nil, err
	}
	r.logger.Debug().
		Str("symbol", req.Symbol).
		Float64("spot", req.Spot).
		Int("dte", req.DTE).
		Float64("step", c.Step).
		Int("candidates", len(specs)).
		Msg("Evaluating candidates")

	candidates, err := r.evaluateAll(ctx, specs, req)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Symbol:     req.Symbol,
		Spot:       utils.Round2(req.Spot),
		DTE:        req.DTE,
		Contracts:  req.Contracts,
		Candidates: len(candidates),
	}

	if len(candidates) == 0 {
		res.Error = emptyError
		res.Note = emptyNote
		r.observe(0, OutcomeEmpty, start)
		r.logger.Warn().Str("symbol", req.Symbol).Msg("No candidates under liquidity filters")
		return res, nil
	}

	eligible := make([]models.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if req.admits(cand) {
			eligible = append(eligible, cand)
		}
	}
	outcome := OutcomeConstrained
	if len(eligible) == 0 {
		eligible = candidates
		outcome = OutcomeFallback
		res.Fallback = true
		res.Error = fallbackError
	}

	best := r.pick(eligible)
	best.Score = utils.Round2(r.Score(best))

	payoff, err := portfolio.Analyze(best.Positions(req.Contracts), req.Spot, &portfolio.BoundsRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to analyze recommended position")
	}

	constraints := req
	res.Constraints = &constraints
	res.Recommendation = &best
	res.Payoff = payoff
	res.Note = DrawdownNote

	r.observe(len(candidates), outcome, start)
	r.logger.Debug().
		Str("symbol", req.Symbol).
		Str("strategy", string(best.Strategy)).
		Float64("score", best.Score).
		Float64("expected_profit", best.ExpectedProfit).
		Float64("prob_profit", best.ProbProfit).
		Bool("fallback", res.Fallback).
		Dur("elapsed", time.Since(start)).
		Msg("Recommendation selected")
	return res, nil
}

// pick returns the highest-scoring candidate; ties keep the earliest.
func (r *Recommender) pick(cands []models.Candidate) models.Candidate {
	best := cands[0]
	bestScore := r.Score(best)
	for _, c := range cands[1:] {
		if s := r.Score(c); s > bestScore {
			best, bestScore = c, s
		}
	}
	return best
}

func (r *Recommender) observe(n int, outcome string, start time.Time) {
	if r.observer != nil {
		r.observer.ObserveRecommendation(n, outcome, time.Since(start))
	}
}

// prepare draws the chain and one simulation seed per candidate from the
// master generator, in generation order.
func (r *Recommender) prepare(req Request) (*models.Chain, []candidateSpec, error) {
	rng := r.rng
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Uint64()))
	} else {
		r.mu.Lock()
		defer r.mu.Unlock()
	}

	c, err := r.chains.GenerateWithRand(req.Spot, req.DTE, rng)
	if err != nil {
		return nil, nil, err
	}
	specs := generateSpecs(c, req)
	for i := range specs {
		specs[i].seed = rng.Uint64()
	}
	return c, specs, nil
}

func (r *Recommender) evaluateAll(ctx context.Context, specs []candidateSpec, req Request) ([]models.Candidate, error) {
	out := make([]models.Candidate, len(specs))
	p := pool.New().WithMaxGoroutines(r.cfg.Workers).WithContext(ctx)
	for i := range specs {
		p.Go(func(ctx context.Context) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			out[i] = r.evaluate(specs[i], req)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, errors.Wrap(err, "recommendation cancelled")
	}
	return out, nil
}

// candidateSpec is a candidate before simulation.
type candidateSpec struct {
	kind    models.StrategyKind
	strike  float64
	premium float64
	shortK  float64
	longK   float64
	credit  float64
	iv      float64
	meta    models.LiquidityMeta
	seed    uint64
}

func metaOf(it models.ChainItem) models.LiquidityMeta {
	return models.LiquidityMeta{
		OpenInterest: it.OpenInterest,
		Volume:       it.Volume,
		MaxSpreadPct: it.MaxSpreadPct(),
	}
}

// generateSpecs lists candidates in generation order: single calls by
// strike, then bull-put spreads by short strike and width.
func generateSpecs(c *models.Chain, req Request) []candidateSpec {
	var specs []candidateSpec

	if req.AllowSingleCall {
		for _, it := range c.Items {
			if !req.liquid(it) {
				continue
			}
			specs = append(specs, candidateSpec{
				kind:    models.StrategySingleCall,
				strike:  it.Strike,
				premium: it.Call.Mid,
				iv:      it.IV,
				meta:    metaOf(it),
			})
		}
	}

	if req.AllowBullPut {
		for _, short := range c.Items {
			if short.Strike > req.Spot || !req.liquid(short) {
				continue
			}
			for w := 1; w <= 3; w++ {
				long, ok := c.Lookup(short.Strike - float64(w)*c.Step)
				if !ok || !req.liquid(long) {
					continue
				}
				width := short.Strike - long.Strike
				credit := utils.Round2(math.Max(0.01, short.Put.Mid-long.Put.Mid))
				if width <= 0 || credit >= width {
					continue
				}
				specs = append(specs, candidateSpec{
					kind:   models.StrategyBullPutCredit,
					shortK: short.Strike,
					longK:  long.Strike,
					credit: credit,
					iv:     short.IV,
					meta:   metaOf(short),
				})
			}
		}
	}
	return specs
}

// evaluate simulates one candidate with its own generator.
func (r *Recommender) evaluate(s candidateSpec, req Request) models.Candidate {
	rng := rand.New(rand.NewSource(s.seed))
	prices := TerminalPrices(rng, req.Spot, s.iv, req.DTE, r.cfg.Paths)
	lots := 100.0 * float64(req.Contracts)

	perShare := prices
	switch s.kind {
	case models.StrategySingleCall:
		for i, st := range prices {
			perShare[i] = math.Max(st-s.strike, 0) - s.premium
		}
	case models.StrategyBullPutCredit:
		for i, st := range prices {
			perShare[i] = s.credit - math.Max(s.shortK-st, 0) + math.Max(s.longK-st, 0)
		}
	}

	c := models.Candidate{
		Strategy:       s.kind,
		ExpectedProfit: utils.Round2(stat.Mean(perShare, nil) * lots),
		ProbProfit:     utils.Round4(ProbProfit(perShare)),
		VarWorstLoss:   utils.Round2(VaRWorstLoss(perShare, req.VarAlpha, req.Contracts)),
		Meta:           s.meta,
	}

	switch s.kind {
	case models.StrategySingleCall:
		c.Legs = models.CandidateLegs{Strike: s.strike, Premium: s.premium}
		c.EntryCost = utils.Round2(s.premium * lots)
		c.CostType = models.CostDebit
		c.MaxLoss = utils.Round2(s.premium * lots)
		c.Breakeven = utils.Round2(s.strike + s.premium)
		c.RewardRisk = UnboundedRewardRisk
	case models.StrategyBullPutCredit:
		width := s.shortK - s.longK
		maxProfit := utils.Round2(s.credit * lots)
		maxLoss := (width - s.credit) * lots
		c.Legs = models.CandidateLegs{ShortPut: s.shortK, LongPut: s.longK, Credit: s.credit}
		c.EntryCost = maxProfit
		c.CostType = models.CostCredit
		c.MaxLoss = utils.Round2(maxLoss)
		c.MaxProfit = &maxProfit
		c.Breakeven = utils.Round2(s.shortK - s.credit)
		c.RewardRisk = utils.Round4(s.credit * lots / maxLoss)
	}
	return c
}
