package api

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/logging"
	"options-cockpit/internal/models"
	"options-cockpit/internal/risk"
	"options-cockpit/internal/store"
)

func (s *Server) preTrade(c *gin.Context) {
	var check risk.Check
	if err := c.ShouldBindJSON(&check); err != nil {
		badRequest(c, err)
		return
	}
	res, err := risk.PreTrade(check)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) execute(c *gin.Context) {
	var ticket models.TradeTicket
	if err := c.ShouldBindJSON(&ticket); err != nil {
		badRequest(c, err)
		return
	}
	if err := risk.ValidateTrade(&ticket); err != nil {
		fail(c, err)
		return
	}

	trade := &models.Trade{
		Symbol:    ticket.Symbol,
		Strategy:  ticket.Strategy,
		MaxLoss:   ticket.MaxLoss,
		Contracts: ticket.Contracts,
	}
	if err := s.deps.Store.LogTrade(c.Request.Context(), trade); err != nil {
		fail(c, err)
		return
	}
	s.deps.Metrics.trades.Inc()
	logging.LogTrade(logging.FromContext(c.Request.Context()), trade.ID, trade.Symbol, trade.Strategy, trade.Contracts, trade.MaxLoss)

	c.JSON(http.StatusOK, gin.H{"status": "accepted", "trade": trade})
}

func (s *Server) listTrades(c *gin.Context) {
	filter := store.TradeFilter{
		Symbol:   c.Query("symbol"),
		Strategy: c.Query("strategy"),
		Limit:    store.MaxTrades,
	}
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > store.MaxTrades {
			fail(c, errors.NewValidationError("limit", v, "limit must be 1..500"))
			return
		}
		filter.Limit = n
	}
	trades, err := s.deps.Store.GetTrades(c.Request.Context(), filter)
	if err != nil {
		fail(c, err)
		return
	}
	if trades == nil {
		trades = []models.Trade{}
	}
	c.JSON(http.StatusOK, trades)
}

func (s *Server) exportTrades(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.deps.Store.ExportTradesCSV(c.Request.Context(), &buf); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=trades.csv")
	c.Data(http.StatusOK, "text/csv", buf.Bytes())
}
