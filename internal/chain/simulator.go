// Package chain synthesizes option chains around a spot price. It is a
// market proxy and consumes no market data.
package chain

import (
	"math"

	"golang.org/x/exp/rand"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
	"options-cockpit/pkg/utils"
)

const (
	// StrikesPerSide is the number of strikes generated on each side of
	// the center strike.
	StrikesPerSide = 12
	MaxDTE         = 365
)

// Simulator generates synthetic chains.
type Simulator struct{}

// NewSimulator creates a chain simulator.
func NewSimulator() *Simulator {
	return &Simulator{}
}

// StrikeStep returns the strike spacing for spot.
func StrikeStep(spot float64) float64 {
	if spot < 100 {
		return 1
	}
	return 5
}

// Strikes returns the ascending strike ladder around spot. The ladder is
// shifted up when the lowest strike would not be positive.
func Strikes(spot float64) []float64 {
	step := StrikeStep(spot)
	center := math.RoundToEven(spot/step) * step
	if lowest := center - StrikesPerSide*step; lowest < step {
		center += step - lowest
	}

	out := make([]float64, 0, 2*StrikesPerSide+1)
	for i := -StrikesPerSide; i <= StrikesPerSide; i++ {
		out = append(out, center+float64(i)*step)
	}
	return out
}

// Generate builds a chain using a generator seeded from entropy.
func (s *Simulator) Generate(spot float64, dte int) (*models.Chain, error) {
	return s.GenerateWithRand(spot, dte, rand.New(rand.NewSource(rand.Uint64())))
}

// GenerateWithRand builds a chain drawing all jitter from rng.
func (s *Simulator) GenerateWithRand(spot float64, dte int, rng *rand.Rand) (*models.Chain, error) {
	if !(spot > 0) || math.IsInf(spot, 0) {
		return nil, errors.NewValidationError("spot", spot, "must be > 0")
	}
	if dte < 1 || dte > MaxDTE {
		return nil, errors.NewValidationError("dte", dte, "must be 1..365")
	}

	strikes := Strikes(spot)
	items := make([]models.ChainItem, 0, len(strikes))

	baseIV := 0.18 + 0.04*rng.Float64()
	timeScale := math.Sqrt(float64(dte) / 365.0)

	for _, k := range strikes {
		m := math.Abs((k - spot) / math.Max(1.0, spot))

		skew := 0.12 * m
		if k < spot {
			skew += 0.03
		}
		iv := math.Max(0.05, baseIV+skew)

		tv := math.Max(0.05, iv*timeScale*spot*0.06) * math.Exp(-6*m)
		spreadFactor := 0.04 + 0.10*math.Min(1.0, 8*m)

		oi := int(math.Max(10, 2000*math.Exp(-5*m)+float64(jitter(rng, 50))))
		vol := int(math.Max(0, 400*math.Exp(-5*m)+float64(jitter(rng, 30))))

		items = append(items, models.ChainItem{
			Strike:       k,
			IV:           utils.Round4(iv),
			OpenInterest: oi,
			Volume:       vol,
			Call:         quote(math.Max(0, spot-k)+tv, spreadFactor),
			Put:          quote(math.Max(0, k-spot)+tv, spreadFactor),
		})
	}

	return &models.Chain{
		Spot:  utils.Round2(spot),
		DTE:   dte,
		Step:  StrikeStep(spot),
		Items: items,
	}, nil
}

// jitter returns a uniform integer in [-n, n].
func jitter(rng *rand.Rand, n int) int {
	return rng.Intn(2*n+1) - n
}

func quote(mid, spreadFactor float64) models.Quote {
	spread := math.Max(0.01, mid*spreadFactor)
	bid := math.Max(0.01, mid-spread/2)
	ask := bid + spread
	qMid := (bid + ask) / 2

	return models.Quote{
		Bid:       utils.Round2(bid),
		Ask:       utils.Round2(ask),
		Mid:       utils.Round2(qMid),
		SpreadPct: utils.Round2(100 * (ask - bid) / math.Max(0.01, qMid)),
	}
}
