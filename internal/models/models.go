// Package models provides domain models for the options analytics application.
package models

import (
	"fmt"
	"strings"
)

// OptionType represents the right of an option contract.
type OptionType string

const (
	Call OptionType = "call"
	Put  OptionType = "put"
)

// Valid reports whether t is a known option type.
func (t OptionType) Valid() bool {
	return t == Call || t == Put
}

// ParseOptionType parses a case-insensitive option type.
func ParseOptionType(s string) (OptionType, error) {
	t := OptionType(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("option_type must be 'call' or 'put', got %q", s)
	}
	return t, nil
}

// Side represents the direction of a position.
type Side string

const (
	Long  Side = "long"
	Short Side = "short"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == Long || s == Short
}

// Sign returns +1 for long and -1 for short.
func (s Side) Sign() float64 {
	if s == Short {
		return -1
	}
	return 1
}

// ParseSide parses a case-insensitive side.
func ParseSide(s string) (Side, error) {
	side := Side(strings.ToLower(strings.TrimSpace(s)))
	if !side.Valid() {
		return "", fmt.Errorf("side must be 'long' or 'short', got %q", s)
	}
	return side, nil
}

// Instrument tags the variant of a Leg.
type Instrument string

const (
	InstrumentOption Instrument = "option"
	InstrumentStock  Instrument = "stock"
)

// PLPoint is one sample of a P&L curve.
type PLPoint struct {
	Underlying float64 `json:"underlying"`
	PnL        float64 `json:"pnl"`
}

// PricingResult holds per-share option prices and Greeks.
// Vega is per unit volatility, theta per year, rho per unit rate.
type PricingResult struct {
	CallPrice float64 `json:"call_price"`
	PutPrice  float64 `json:"put_price"`
	DeltaCall float64 `json:"delta_call"`
	DeltaPut  float64 `json:"delta_put"`
	Gamma     float64 `json:"gamma"`
	Vega      float64 `json:"vega"`
	ThetaCall float64 `json:"theta_call"`
	ThetaPut  float64 `json:"theta_put"`
	RhoCall   float64 `json:"rho_call"`
	RhoPut    float64 `json:"rho_put"`
}

// Price returns the price for the given option type.
func (r PricingResult) Price(t OptionType) float64 {
	if t == Put {
		return r.PutPrice
	}
	return r.CallPrice
}

// ImpliedVolResult is the output of the implied volatility solver.
type ImpliedVolResult struct {
	ImpliedVol float64 `json:"implied_vol"`
	Iterations int     `json:"iterations"`
}

// DisplayGreeks are Greeks scaled for display: theta per day, vega per vol point.
type DisplayGreeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
}
