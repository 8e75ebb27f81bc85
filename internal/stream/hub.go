// Package stream provides synthetic market data and its distribution to
// subscribers.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"options-cockpit/internal/models"
)

// HubConfig holds configuration for the Stream Hub.
type HubConfig struct {
	// BufferSize is the size of the internal tick channel buffer.
	BufferSize int
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		BufferSize:           256,
		SubscriberBufferSize: 16,
	}
}

// Hub fans ticks from one publisher out to many subscribers. Publishing
// and delivery never block: full buffers drop ticks and count them.
type Hub struct {
	config HubConfig
	logger zerolog.Logger

	mu          sync.RWMutex
	subscribers map[string][]*Subscriber
	latest      map[string]models.MarketTick
	tickChan    chan models.MarketTick
	done        chan struct{}
	started     bool

	consumersMu sync.RWMutex
	consumers   []Consumer

	metricsMu      sync.RWMutex
	ticksReceived  uint64
	ticksBroadcast uint64
	ticksDropped   uint64
}

// Subscriber represents a channel subscriber with metadata.
type Subscriber struct {
	ID           string
	Channel      chan models.MarketTick
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a new stream hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a new stream hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	def := DefaultHubConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = def.BufferSize
	}
	if config.SubscriberBufferSize <= 0 {
		config.SubscriberBufferSize = def.SubscriberBufferSize
	}
	return &Hub{
		config:      config,
		logger:      zerolog.Nop(),
		subscribers: make(map[string][]*Subscriber),
		latest:      make(map[string]models.MarketTick),
		tickChan:    make(chan models.MarketTick, config.BufferSize),
		done:        make(chan struct{}),
	}
}

// SetLogger sets the hub logger.
func (h *Hub) SetLogger(logger zerolog.Logger) {
	h.logger = logger
}

// Start begins the hub's distribution loop.
func (h *Hub) Start(ctx context.Context) {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return
	}
	h.started = true
	h.done = make(chan struct{})
	done := h.done
	h.mu.Unlock()

	go h.broadcastLoop(ctx, done)
}

// Run starts the hub and publishes one tick from src every interval until
// ctx is cancelled.
func (h *Hub) Run(ctx context.Context, src Source, interval time.Duration) {
	h.Start(ctx)
	defer h.Stop()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	h.logger.Info().Dur("interval", interval).Msg("Market feed started")
	for {
		select {
		case <-ctx.Done():
			h.logger.Info().Msg("Market feed stopped")
			return
		case <-ticker.C:
			h.Publish(src.Tick())
		}
	}
}

func (h *Hub) broadcastLoop(ctx context.Context, done <-chan struct{}) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		case tick := <-h.tickChan:
			h.metricsMu.Lock()
			h.ticksReceived++
			h.metricsMu.Unlock()

			h.broadcast(tick)
			h.notifyConsumers(tick)
		}
	}
}

// Stop stops the hub and closes all subscriber channels.
func (h *Hub) Stop() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.started {
		return
	}

	close(h.done)
	h.started = false

	for symbol, subs := range h.subscribers {
		for _, sub := range subs {
			close(sub.Channel)
		}
		delete(h.subscribers, symbol)
	}
}

// Subscribe adds a subscriber for a symbol and returns a channel to receive ticks.
func (h *Hub) Subscribe(symbol string) <-chan models.MarketTick {
	return h.SubscribeWithID(symbol, "")
}

// SubscribeWithID adds a subscriber with a specific ID for a symbol.
func (h *Hub) SubscribeWithID(symbol, id string) <-chan models.MarketTick {
	ch := make(chan models.MarketTick, h.config.SubscriberBufferSize)
	sub := &Subscriber{
		ID:        id,
		Channel:   ch,
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	h.subscribers[symbol] = append(h.subscribers[symbol], sub)
	h.mu.Unlock()

	return ch
}

// Unsubscribe removes a subscriber channel for a symbol. Channels already
// closed by Stop are ignored.
func (h *Hub) Unsubscribe(symbol string, ch <-chan models.MarketTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := h.subscribers[symbol]
	for i, sub := range subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subscribers[symbol] = append(subs[:i], subs[i+1:]...)
			break
		}
	}

	if len(h.subscribers[symbol]) == 0 {
		delete(h.subscribers, symbol)
	}
}

// Publish sends a tick to the hub for distribution. If the internal buffer
// is full, the tick is dropped.
func (h *Hub) Publish(tick models.MarketTick) {
	h.mu.Lock()
	h.latest[tick.Symbol] = tick
	h.mu.Unlock()

	select {
	case h.tickChan <- tick:
	default:
		h.metricsMu.Lock()
		h.ticksDropped++
		h.metricsMu.Unlock()
	}
}

// Latest returns the most recently published tick for symbol.
func (h *Hub) Latest(symbol string) (models.MarketTick, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	t, ok := h.latest[symbol]
	return t, ok
}

func (h *Hub) broadcast(tick models.MarketTick) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, sub := range h.subscribers[tick.Symbol] {
		select {
		case sub.Channel <- tick:
			h.metricsMu.Lock()
			h.ticksBroadcast++
			h.metricsMu.Unlock()
		default:
			sub.DroppedCount++
			h.metricsMu.Lock()
			h.ticksDropped++
			h.metricsMu.Unlock()
		}
	}
}

// GetSubscriberCount returns the number of subscribers for a symbol.
func (h *Hub) GetSubscriberCount(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[symbol])
}

// GetTotalSubscriberCount returns the total number of subscribers across all symbols.
func (h *Hub) GetTotalSubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, subs := range h.subscribers {
		count += len(subs)
	}
	return count
}

// GetMetrics returns hub metrics.
func (h *Hub) GetMetrics() HubMetrics {
	subscribers := h.GetTotalSubscriberCount()

	h.metricsMu.RLock()
	defer h.metricsMu.RUnlock()

	return HubMetrics{
		TicksReceived:  h.ticksReceived,
		TicksBroadcast: h.ticksBroadcast,
		TicksDropped:   h.ticksDropped,
		Subscribers:    subscribers,
	}
}

// HubMetrics contains hub performance metrics.
type HubMetrics struct {
	TicksReceived  uint64 `json:"ticks_received"`
	TicksBroadcast uint64 `json:"ticks_broadcast"`
	TicksDropped   uint64 `json:"ticks_dropped"`
	Subscribers    int    `json:"subscribers"`
}

// IsStarted returns whether the hub is running.
func (h *Hub) IsStarted() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started
}

// Consumer is notified of every tick for its symbols.
type Consumer interface {
	OnTick(tick models.MarketTick)
	// Symbols returns the symbols of interest; empty means all.
	Symbols() []string
}

// RegisterConsumer adds a consumer to receive ticks.
func (h *Hub) RegisterConsumer(consumer Consumer) {
	h.consumersMu.Lock()
	h.consumers = append(h.consumers, consumer)
	h.consumersMu.Unlock()
}

// notifyConsumers calls consumers synchronously in registration order, so
// a consumer must not block.
func (h *Hub) notifyConsumers(tick models.MarketTick) {
	h.consumersMu.RLock()
	consumers := make([]Consumer, len(h.consumers))
	copy(consumers, h.consumers)
	h.consumersMu.RUnlock()

	for _, consumer := range consumers {
		symbols := consumer.Symbols()
		if len(symbols) == 0 || containsSymbol(symbols, tick.Symbol) {
			consumer.OnTick(tick)
		}
	}
}

func containsSymbol(symbols []string, symbol string) bool {
	for _, s := range symbols {
		if s == symbol {
			return true
		}
	}
	return false
}

// ConsumerFunc adapts a function to the Consumer interface.
type ConsumerFunc struct {
	symbols  []string
	onTickFn func(models.MarketTick)
}

// NewConsumerFunc creates a new ConsumerFunc.
func NewConsumerFunc(symbols []string, onTick func(models.MarketTick)) *ConsumerFunc {
	return &ConsumerFunc{
		symbols:  symbols,
		onTickFn: onTick,
	}
}

// OnTick implements Consumer.
func (c *ConsumerFunc) OnTick(tick models.MarketTick) {
	if c.onTickFn != nil {
		c.onTickFn(tick)
	}
}

// Symbols implements Consumer.
func (c *ConsumerFunc) Symbols() []string {
	return c.symbols
}
