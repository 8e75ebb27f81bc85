package models

import "time"

// StrategyBullPutSpread is the strategy name that receives spread validation
// on trade tickets.
const StrategyBullPutSpread = "bull_put_credit_spread"

// TradeTicket is a request to record a simulated trade.
type TradeTicket struct {
	Symbol      string   `json:"symbol" binding:"required"`
	Strategy    string   `json:"strategy" binding:"required"`
	MaxLoss     float64  `json:"max_loss" binding:"gte=0"`
	Contracts   int      `json:"contracts"`
	ShortStrike *float64 `json:"short_strike,omitempty"`
	LongStrike  *float64 `json:"long_strike,omitempty"`
	Credit      *float64 `json:"credit,omitempty"`
}

// Trade is a recorded trade from the trade log.
type Trade struct {
	ID        int64   `json:"id" csv:"id"`
	Symbol    string  `json:"symbol" csv:"symbol"`
	Strategy  string  `json:"strategy" csv:"strategy"`
	MaxLoss   float64 `json:"max_loss" csv:"max_loss"`
	Contracts int     `json:"contracts" csv:"-"`
	Timestamp string  `json:"timestamp" csv:"timestamp"`
}

// SavedKind classifies a saved payload.
type SavedKind string

const (
	SavedStrategy  SavedKind = "strategy"
	SavedPortfolio SavedKind = "portfolio"
	SavedNote      SavedKind = "note"
	SavedTemplate  SavedKind = "template"
)

// Valid reports whether k is a known kind.
func (k SavedKind) Valid() bool {
	switch k {
	case SavedStrategy, SavedPortfolio, SavedNote, SavedTemplate:
		return true
	}
	return false
}

// SavedItem is a named JSON payload persisted by the user.
type SavedItem struct {
	ID        int64                  `json:"id"`
	Name      string                 `json:"name"`
	Kind      SavedKind              `json:"kind"`
	CreatedAt string                 `json:"created_at"`
	Payload   map[string]interface{} `json:"payload,omitempty"`
}

// ExportBundle is the export/import envelope for saved items.
type ExportBundle struct {
	ExportedAt string      `json:"exported_at"`
	Items      []SavedItem `json:"items"`
}

// NowISO returns the current UTC time in RFC 3339 format.
func NowISO() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
