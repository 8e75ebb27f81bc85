package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"options-cockpit/internal/models"
)

// Property: every fast subscriber receives every published tick for its
// symbol.
func TestProperty_AllSubscribersReceiveTicks(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := []string{"SPY", "QQQ", "IWM", "DIA", "TLT"}

	properties.Property("All fast subscribers receive all ticks", prop.ForAll(
		func(subscriberCount int, tickCount int, symbolIdx int, basePrice float64) bool {
			symbol := symbols[symbolIdx]

			hub := NewHubWithConfig(HubConfig{BufferSize: 1000, SubscriberBufferSize: 100})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			hub.Start(ctx)
			defer hub.Stop()

			var wg sync.WaitGroup
			receivedCounts := make([]int64, subscriberCount)
			for i := 0; i < subscriberCount; i++ {
				ch := hub.Subscribe(symbol)
				wg.Add(1)
				go func(idx int, ch <-chan models.MarketTick) {
					defer wg.Done()
					timeout := time.After(5 * time.Second)
					for {
						select {
						case _, ok := <-ch:
							if !ok {
								return
							}
							if atomic.AddInt64(&receivedCounts[idx], 1) >= int64(tickCount) {
								return
							}
						case <-timeout:
							return
						}
					}
				}(i, ch)
			}

			for i := 0; i < tickCount; i++ {
				hub.Publish(models.MarketTick{Symbol: symbol, Price: basePrice + float64(i)*0.05, TS: float64(i)})
				time.Sleep(time.Millisecond)
			}
			wg.Wait()

			for i := range receivedCounts {
				if got := atomic.LoadInt64(&receivedCounts[i]); got != int64(tickCount) {
					t.Logf("Subscriber %d received %d of %d ticks", i, got, tickCount)
					return false
				}
			}
			return true
		},
		gen.IntRange(1, 5),
		gen.IntRange(1, 20),
		gen.IntRange(0, len(symbols)-1),
		gen.Float64Range(100.0, 600.0),
	))

	properties.TestingRun(t)
}

// Property: a subscriber that never reads does not stop a fast subscriber
// from receiving every tick; its excess ticks are counted as dropped.
func TestProperty_SlowConsumersDoNotBlockOthers(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Slow consumers do not block fast consumers", prop.ForAll(
		func(tickCount int) bool {
			hub := NewHubWithConfig(HubConfig{BufferSize: 1000, SubscriberBufferSize: 2})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)
			defer hub.Stop()

			_ = hub.Subscribe("SPY") // never read
			fast := hub.Subscribe("SPY")

			var received int64
			done := make(chan struct{})
			go func() {
				defer close(done)
				timeout := time.After(5 * time.Second)
				for {
					select {
					case _, ok := <-fast:
						if !ok || atomic.AddInt64(&received, 1) >= int64(tickCount) {
							return
						}
					case <-timeout:
						return
					}
				}
			}()

			for i := 0; i < tickCount; i++ {
				hub.Publish(models.MarketTick{Symbol: "SPY", Price: 480, TS: float64(i)})
				time.Sleep(time.Millisecond)
			}
			<-done

			if atomic.LoadInt64(&received) != int64(tickCount) {
				t.Logf("fast subscriber received %d of %d", received, tickCount)
				return false
			}
			return hub.GetMetrics().TicksDropped == uint64(tickCount-2)
		},
		gen.IntRange(3, 30),
	))

	properties.TestingRun(t)
}

// Property: subscribers only see ticks for the symbol they subscribed to.
func TestProperty_ConsumersReceiveCorrectSymbolTicks(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	properties.Property("Subscribers only receive ticks for their subscribed symbol", prop.ForAll(
		func(spyTicks, qqqTicks int) bool {
			hub := NewHubWithConfig(HubConfig{BufferSize: 1000, SubscriberBufferSize: 100})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			hub.Start(ctx)

			spy := hub.Subscribe("SPY")
			var consumed int64
			hub.RegisterConsumer(NewConsumerFunc([]string{"QQQ"}, func(tick models.MarketTick) {
				if tick.Symbol == "QQQ" {
					atomic.AddInt64(&consumed, 1)
				}
			}))

			for i := 0; i < spyTicks; i++ {
				hub.Publish(models.MarketTick{Symbol: "SPY", Price: 480})
			}
			for i := 0; i < qqqTicks; i++ {
				hub.Publish(models.MarketTick{Symbol: "QQQ", Price: 400})
			}

			deadline := time.Now().Add(2 * time.Second)
			for hub.GetMetrics().TicksReceived < uint64(spyTicks+qqqTicks) && time.Now().Before(deadline) {
				time.Sleep(time.Millisecond)
			}
			hub.Stop()

			count := 0
			for tick := range spy {
				if tick.Symbol != "SPY" {
					return false
				}
				count++
			}
			return count == spyTicks && atomic.LoadInt64(&consumed) == int64(qqqTicks)
		},
		gen.IntRange(0, 50),
		gen.IntRange(0, 50),
	))

	properties.TestingRun(t)
}
