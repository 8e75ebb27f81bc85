package recommend

import (
	"math"
	"sort"

	"golang.org/x/exp/rand"
)

// Normals draws n standard normal variates with the Box-Muller transform.
// Uniforms are clamped away from zero and each pair yields a cosine and a
// sine variate.
func Normals(rng *rand.Rand, n int) []float64 {
	out := make([]float64, 0, n+1)
	for len(out) < n {
		u1 := math.Max(1e-12, rng.Float64())
		u2 := math.Max(1e-12, rng.Float64())
		radius := math.Sqrt(-2.0 * math.Log(u1))
		theta := 2.0 * math.Pi * u2
		out = append(out, radius*math.Cos(theta), radius*math.Sin(theta))
	}
	return out[:n]
}

// TerminalPrices simulates n lognormal prices at expiry with zero drift
// before the -0.5*vol^2*T convexity term. The risk-free rate is not applied.
func TerminalPrices(rng *rand.Rand, s0, iv float64, dte, n int) []float64 {
	t := float64(max(1, dte)) / 365.0
	vol := math.Max(1e-6, iv)
	drift := -0.5 * vol * vol * t
	scale := vol * math.Sqrt(t)

	zs := Normals(rng, n)
	for i, z := range zs {
		zs[i] = s0 * math.Exp(drift+scale*z)
	}
	return zs
}

// ProbProfit returns the fraction of strictly positive outcomes.
func ProbProfit(pnl []float64) float64 {
	wins := 0
	for _, x := range pnl {
		if x > 0 {
			wins++
		}
	}
	return float64(wins) / float64(max(1, len(pnl)))
}

// ClampAlpha bounds a VaR confidence level to [0.5, 0.999].
func ClampAlpha(alpha float64) float64 {
	return math.Min(math.Max(alpha, 0.50), 0.999)
}

// VaRWorstLoss returns the loss in dollars at the (1-alpha) quantile of the
// per-share P&L distribution, scaled by 100 shares per contract. It is a
// single-horizon tail loss, not a path drawdown. pnl is not modified.
func VaRWorstLoss(pnl []float64, alpha float64, contracts int) float64 {
	if len(pnl) == 0 {
		return 0
	}
	sorted := make([]float64, len(pnl))
	copy(sorted, pnl)
	sort.Float64s(sorted)

	idx := int((1.0 - ClampAlpha(alpha)) * float64(len(sorted)-1))
	idx = min(max(idx, 0), len(sorted)-1)

	return math.Max(0, -sorted[idx]) * 100.0 * float64(contracts)
}
