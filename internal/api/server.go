// Package api exposes the options analytics over HTTP with gin.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"options-cockpit/internal/chain"
	"options-cockpit/internal/pricing"
	"options-cockpit/internal/recommend"
	"options-cockpit/internal/store"
	"options-cockpit/internal/stream"
)

// Config holds HTTP server settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	RequestTimeout  time.Duration
	CORSOrigin      string
	Mode            string
	TickInterval    time.Duration
	GreeksRate      float64
	Version         string
	Commit          string
}

// Deps are the services behind the handlers.
type Deps struct {
	Solver      *pricing.Solver
	Chains      *chain.Simulator
	Recommender *recommend.Recommender
	Store       store.DataStore
	Market      *stream.SimMarket
	Hub         *stream.Hub
	Metrics     *Metrics
	Logger      zerolog.Logger
}

// Server is the HTTP API server.
type Server struct {
	cfg    Config
	deps   Deps
	engine *gin.Engine
	http   *http.Server
	logger zerolog.Logger
}

// NewServer wires the routes. Missing optional deps get defaults.
func NewServer(cfg Config, deps Deps) *Server {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.GreeksRate == 0 {
		cfg.GreeksRate = 0.01
	}
	if deps.Solver == nil {
		deps.Solver = pricing.NewSolver(pricing.DefaultSolverConfig())
	}
	if deps.Chains == nil {
		deps.Chains = chain.NewSimulator()
	}
	if deps.Metrics == nil {
		deps.Metrics = NewMetrics()
	}
	if deps.Recommender == nil {
		deps.Recommender = recommend.New(deps.Chains, recommend.DefaultConfig(),
			recommend.WithLogger(deps.Logger), recommend.WithObserver(deps.Metrics))
	}
	if deps.Market == nil {
		deps.Market = stream.NewSimMarket(stream.DefaultSymbol, stream.DefaultStartPrice)
	}
	if deps.Hub == nil {
		deps.Hub = stream.NewHub()
	}
	deps.Hub.RegisterConsumer(deps.Metrics)

	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: deps.Logger.With().Str("component", "api").Logger(),
	}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.engine,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

// Handler returns the gin engine.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(recovery(s.logger), requestID(), requestLogger(s.logger), s.deps.Metrics.middleware(), cors(s.cfg.CORSOrigin))

	r.GET("/", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/health", s.health)
	r.GET("/version", s.version)
	r.GET("/metrics", gin.WrapH(s.deps.Metrics.Handler()))
	r.GET("/ws/market", s.marketSocket)
	r.GET("/market/quote", s.marketQuote)

	body := r.Group("/", maxBody(maxBodyBytes))
	body.POST("/chain", s.chain)
	body.POST("/recommend", s.withTimeout(s.recommend))
	body.POST("/risk/pretrade", s.preTrade)
	body.POST("/execute", s.execute)
	body.GET("/trades", s.listTrades)
	body.GET("/trades/export", s.exportTrades)
	body.POST("/analytics/greeks", s.greeks)

	api := body.Group("/api")
	api.POST("/bs/price", s.bsPrice)
	api.POST("/iv/solve", s.ivSolve)
	api.POST("/pl/single", s.plSingle)
	api.POST("/pl/vertical", s.plVertical)
	api.POST("/pl/portfolio", s.plPortfolio)
	api.GET("/strategies/templates", s.strategyTemplates)
	api.POST("/strategies/build", s.strategyBuild)

	saved := api.Group("/saved")
	saved.POST("", s.createSaved)
	saved.GET("", s.listSaved)
	saved.GET("/export", s.exportSaved)
	saved.POST("/import", s.importSaved)
	saved.DELETE("/clear", s.clearSaved)
	saved.GET("/:id", s.getSaved)
	saved.DELETE("/:id", s.deleteSaved)

	templates := api.Group("/templates")
	templates.POST("", s.saveTemplate)
	templates.GET("", s.listTemplates)
	templates.GET("/:id", s.getTemplate)
	templates.POST("/:id/build", s.buildTemplate)

	return r
}

// withTimeout bounds the request context for handlers that do heavy work.
func (s *Server) withTimeout(h gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.cfg.RequestTimeout > 0 {
			ctx, cancel := context.WithTimeout(c.Request.Context(), s.cfg.RequestTimeout)
			defer cancel()
			c.Request = c.Request.WithContext(ctx)
		}
		h(c)
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully. The
// market feed runs for the lifetime of the server.
func (s *Server) Run(ctx context.Context) error {
	feedCtx, stopFeed := context.WithCancel(ctx)
	defer stopFeed()
	s.deps.Hub.SetLogger(s.logger)
	go s.deps.Hub.Run(feedCtx, s.deps.Market, s.cfg.TickInterval)

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.cfg.Addr).Msg("Starting HTTP server")
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		s.logger.Info().Dur("timeout", timeout).Msg("Shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	case err, ok := <-errChan:
		if !ok {
			return nil
		}
		return err
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": s.cfg.Version, "commit": s.cfg.Commit})
}
