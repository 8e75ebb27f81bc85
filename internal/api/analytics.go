package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"options-cockpit/internal/logging"
	"options-cockpit/internal/models"
	"options-cockpit/internal/portfolio"
	"options-cockpit/internal/pricing"
	"options-cockpit/internal/recommend"
)

func (s *Server) bsPrice(c *gin.Context) {
	var in pricing.Inputs
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	res, err := pricing.BlackScholes(in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ivSolve(c *gin.Context) {
	var req pricing.IVRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.deps.Solver.Solve(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) plSingle(c *gin.Context) {
	var req portfolio.SingleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := portfolio.EvaluateSingle(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) plVertical(c *gin.Context) {
	var req portfolio.VerticalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := portfolio.EvaluateVertical(req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type portfolioRequest struct {
	Legs       models.LegList           `json:"legs"`
	Underlying float64                  `json:"underlying"`
	Curve      *portfolio.BoundsRequest `json:"curve,omitempty"`
}

func (s *Server) plPortfolio(c *gin.Context) {
	var req portfolioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := portfolio.Analyze(req.Legs, req.Underlying, req.Curve)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) strategyTemplates(c *gin.Context) {
	c.JSON(http.StatusOK, portfolio.Templates())
}

type buildRequest struct {
	Name   string                 `json:"name" binding:"required"`
	Params map[string]interface{} `json:"params"`
}

type buildResponse struct {
	Name string       `json:"name"`
	Legs []models.Leg `json:"legs"`
}

func (s *Server) strategyBuild(c *gin.Context) {
	var req buildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	legs, err := portfolio.BuildTemplate(req.Name, req.Params)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, buildResponse{Name: req.Name, Legs: legs})
}

type greeksRequest struct {
	S      float64  `json:"S" binding:"gt=0"`
	K      float64  `json:"K" binding:"gt=0"`
	T      float64  `json:"T" binding:"gt=0"`
	R      *float64 `json:"r"`
	Sigma  float64  `json:"sigma" binding:"gt=0"`
	IsCall *bool    `json:"is_call"`
}

func (s *Server) greeks(c *gin.Context) {
	var req greeksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	r, isCall := s.cfg.GreeksRate, true
	if req.R != nil {
		r = *req.R
	}
	if req.IsCall != nil {
		isCall = *req.IsCall
	}
	c.JSON(http.StatusOK, pricing.SimpleGreeks(req.S, req.K, req.T, r, req.Sigma, isCall))
}

type chainRequest struct {
	Spot float64 `json:"spot" binding:"gt=0"`
	DTE  int     `json:"dte" binding:"gte=1,lte=365"`
}

func (s *Server) chain(c *gin.Context) {
	req := chainRequest{DTE: 30}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ch, err := s.deps.Chains.Generate(req.Spot, req.DTE)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, ch)
}

// recommend answers 200 even when nothing could be proposed; the result
// then carries the error and note fields.
func (s *Server) recommend(c *gin.Context) {
	req := recommend.DefaultRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := s.deps.Recommender.Recommend(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}

	logger := logging.WithSymbol(logging.FromContext(c.Request.Context()), res.Symbol)
	if !res.Empty() {
		rec := res.Recommendation
		logging.LogRecommendation(logger, res.Symbol, string(rec.Strategy), rec.Score, res.Candidates, res.Fallback)
	} else {
		logger.Info().Str("reason", res.Error).Msg("No recommendation")
	}
	c.JSON(http.StatusOK, res)
}
