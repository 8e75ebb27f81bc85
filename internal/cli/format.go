package cli

import (
	"fmt"
	"strconv"
	"strings"

	"options-cockpit/internal/models"
	"options-cockpit/pkg/utils"
)

// FormatSignedDollars formats a P&L amount with an explicit sign.
func FormatSignedDollars(v float64) string {
	return utils.FormatPnL(v)
}

// FormatPrice formats a per-share price.
func FormatPrice(price float64) string {
	if price != 0 && price < 0.1 && price > -0.1 {
		return fmt.Sprintf("%.4f", price)
	}
	return fmt.Sprintf("%.2f", price)
}

// FormatStrike drops trailing zeros from a strike.
func FormatStrike(k float64) string {
	return strconv.FormatFloat(utils.Round2(k), 'f', -1, 64)
}

// FormatIV formats a volatility as a percentage.
func FormatIV(iv float64) string {
	return fmt.Sprintf("%.2f%%", iv*100)
}

// FormatGreeks formats display Greeks on one line.
func FormatGreeks(g models.DisplayGreeks) string {
	return fmt.Sprintf("Δ %.4f  Γ %.4f  Θ %.4f/day  ν %.4f/pt", g.Delta, g.Gamma, g.Theta, g.Vega)
}

// FormatBreakevens joins breakevens, or "none".
func FormatBreakevens(bes []float64) string {
	if len(bes) == 0 {
		return "none"
	}
	parts := make([]string, len(bes))
	for i, b := range bes {
		parts[i] = FormatStrike(b)
	}
	return strings.Join(parts, ", ")
}

// FormatLeg renders a leg in the same colon form the --leg flag accepts.
func FormatLeg(leg models.Leg) string {
	switch l := leg.(type) {
	case models.OptionLeg:
		return fmt.Sprintf("option:%s:%s:%s:%s:%d:%d", l.Type, l.Side, FormatStrike(l.Strike), FormatStrike(l.Premium), l.Qty, l.ContractSize)
	case models.StockLeg:
		return fmt.Sprintf("stock:%s:%d:%s", l.Side, l.Shares, FormatStrike(l.EntryPrice))
	}
	return "?"
}

// TruncateString truncates s to maxLen runes with an ellipsis.
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
