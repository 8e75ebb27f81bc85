package stream

import (
	"math"
	"sync"
	"time"

	"golang.org/x/exp/rand"

	"options-cockpit/internal/models"
	"options-cockpit/pkg/utils"
)

// Default synthetic market parameters.
const (
	DefaultSymbol     = "SPY"
	DefaultStartPrice = 480.0

	wavePeriod = 15 * time.Second
	waveAmp    = 0.25
	shockSigma = 0.15
	priceFloor = 1.0
)

// Source produces market ticks on demand.
type Source interface {
	Tick() models.MarketTick
}

// SimMarket is a random-walk quote source with a slow sine drift.
// It is safe for concurrent use.
type SimMarket struct {
	symbol string
	now    func() time.Time

	mu    sync.Mutex
	price float64
	t0    time.Time
	rng   *rand.Rand
}

// SimOption configures a SimMarket.
type SimOption func(*SimMarket)

// WithSimRand sets the shock generator.
func WithSimRand(rng *rand.Rand) SimOption {
	return func(m *SimMarket) { m.rng = rng }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) SimOption {
	return func(m *SimMarket) { m.now = now }
}

// NewSimMarket creates a synthetic market. Empty symbol and non-positive
// start price fall back to SPY at 480.
func NewSimMarket(symbol string, startPrice float64, opts ...SimOption) *SimMarket {
	if symbol == "" {
		symbol = DefaultSymbol
	}
	if startPrice <= 0 {
		startPrice = DefaultStartPrice
	}
	m := &SimMarket{
		symbol: symbol,
		price:  startPrice,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.rng == nil {
		m.rng = rand.New(rand.NewSource(uint64(time.Now().UnixNano())))
	}
	m.t0 = m.now()
	return m
}

// Symbol returns the quoted symbol.
func (m *SimMarket) Symbol() string {
	return m.symbol
}

// Tick advances the price one step and returns the new quote.
func (m *SimMarket) Tick() models.MarketTick {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	elapsed := now.Sub(m.t0).Seconds()
	wave := waveAmp * math.Sin(elapsed/wavePeriod.Seconds())
	shock := m.rng.NormFloat64() * shockSigma
	m.price = math.Max(priceFloor, m.price+wave+shock)

	return models.MarketTick{
		Symbol: m.symbol,
		Price:  utils.Round2(m.price),
		TS:     float64(now.UnixNano()) / 1e9,
	}
}
