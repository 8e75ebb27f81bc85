package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"options-cockpit/internal/models"
)

// Metrics owns a private Prometheus registry with the HTTP, recommender
// and market feed collectors.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	recommendTotal *prometheus.CounterVec
	recommendTime  prometheus.Histogram
	candidates     prometheus.Histogram
	lastPrice      *prometheus.GaugeVec
	trades         prometheus.Counter
}

// NewMetrics creates the collectors and registers them with Go runtime and
// process collectors.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cockpit_http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cockpit_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		recommendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cockpit_recommendations_total",
			Help: "Recommendations by outcome",
		}, []string{"outcome"}),
		recommendTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cockpit_recommendation_duration_seconds",
			Help:    "Time to evaluate all candidates of a recommendation",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cockpit_recommendation_candidates",
			Help:    "Candidates evaluated per recommendation",
			Buckets: prometheus.LinearBuckets(0, 10, 10),
		}),
		lastPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cockpit_market_last_price",
			Help: "Last synthetic market price",
		}, []string{"symbol"}),
		trades: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cockpit_trades_recorded_total",
			Help: "Simulated trades written to the trade log",
		}),
	}
	reg.MustRegister(m.httpRequests, m.httpDuration, m.recommendTotal, m.recommendTime, m.candidates, m.lastPrice, m.trades)
	return m
}

// Handler returns the /metrics handler.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveRecommendation implements recommend.Observer.
func (m *Metrics) ObserveRecommendation(candidates int, outcome string, elapsed time.Duration) {
	m.recommendTotal.WithLabelValues(outcome).Inc()
	m.recommendTime.Observe(elapsed.Seconds())
	m.candidates.Observe(float64(candidates))
}

// OnTick implements stream.Consumer.
func (m *Metrics) OnTick(tick models.MarketTick) {
	m.lastPrice.WithLabelValues(tick.Symbol).Set(tick.Price)
}

// Symbols implements stream.Consumer; the gauge tracks every symbol.
func (m *Metrics) Symbols() []string { return nil }

func (m *Metrics) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.httpRequests.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.httpDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}
