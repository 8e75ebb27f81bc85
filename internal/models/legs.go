package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"options-cockpit/internal/errors"
)

// DefaultContractSize is the number of shares per option contract.
const DefaultContractSize = 100

// Leg is one position component of a portfolio. The only implementations
// are OptionLeg and StockLeg.
type Leg interface {
	Instrument() Instrument
	Validate() error
	isLeg()
}

// OptionLeg is an option position held to expiry.
type OptionLeg struct {
	Type         OptionType `json:"option_type"`
	Side         Side       `json:"side"`
	Strike       float64    `json:"strike"`
	Premium      float64    `json:"premium"`
	Qty          int        `json:"qty"`
	ContractSize int        `json:"contract_size"`
}

// NewOptionLeg creates a validated option leg.
func NewOptionLeg(t OptionType, side Side, strike, premium float64, qty, contractSize int) (OptionLeg, error) {
	leg := OptionLeg{
		Type:         t,
		Side:         side,
		Strike:       strike,
		Premium:      premium,
		Qty:          qty,
		ContractSize: contractSize,
	}
	if err := leg.Validate(); err != nil {
		return OptionLeg{}, err
	}
	return leg, nil
}

func (OptionLeg) Instrument() Instrument { return InstrumentOption }
func (OptionLeg) isLeg()                 {}

// Multiplier returns the number of shares the leg controls.
func (l OptionLeg) Multiplier() float64 {
	return float64(l.Qty) * float64(l.ContractSize)
}

// Validate checks the leg's fields.
func (l OptionLeg) Validate() error {
	if !l.Type.Valid() {
		return errors.NewValidationError("option_type", l.Type, "must be 'call' or 'put'")
	}
	if !l.Side.Valid() {
		return errors.NewValidationError("side", l.Side, "must be 'long' or 'short'")
	}
	if !(l.Strike > 0) || math.IsInf(l.Strike, 0) {
		return errors.NewValidationError("strike", l.Strike, "must be > 0")
	}
	if !(l.Premium >= 0) || math.IsInf(l.Premium, 0) {
		return errors.NewValidationError("premium", l.Premium, "must be >= 0")
	}
	if l.Qty < 1 {
		return errors.NewValidationError("qty", l.Qty, "must be >= 1")
	}
	if l.ContractSize < 1 {
		return errors.NewValidationError("contract_size", l.ContractSize, "must be >= 1")
	}
	return nil
}

// MarshalJSON encodes the leg with its instrument tag.
func (l OptionLeg) MarshalJSON() ([]byte, error) {
	return json.Marshal(optionLegWire{
		Instrument:   InstrumentOption,
		Type:         l.Type,
		Side:         l.Side,
		Strike:       l.Strike,
		Premium:      l.Premium,
		Qty:          &l.Qty,
		ContractSize: &l.ContractSize,
	})
}

// StockLeg is an equity position.
type StockLeg struct {
	Side       Side    `json:"side"`
	Shares     int     `json:"shares"`
	EntryPrice float64 `json:"entry_price"`
}

// NewStockLeg creates a validated stock leg.
func NewStockLeg(side Side, shares int, entryPrice float64) (StockLeg, error) {
	leg := StockLeg{Side: side, Shares: shares, EntryPrice: entryPrice}
	if err := leg.Validate(); err != nil {
		return StockLeg{}, err
	}
	return leg, nil
}

func (StockLeg) Instrument() Instrument { return InstrumentStock }
func (StockLeg) isLeg()                 {}

// Validate checks the leg's fields.
func (l StockLeg) Validate() error {
	if !l.Side.Valid() {
		return errors.NewValidationError("side", l.Side, "must be 'long' or 'short'")
	}
	if l.Shares < 1 {
		return errors.NewValidationError("shares", l.Shares, "must be >= 1")
	}
	if !(l.EntryPrice > 0) || math.IsInf(l.EntryPrice, 0) {
		return errors.NewValidationError("entry_price", l.EntryPrice, "must be > 0")
	}
	return nil
}

// MarshalJSON encodes the leg with its instrument tag.
func (l StockLeg) MarshalJSON() ([]byte, error) {
	return json.Marshal(stockLegWire{
		Instrument: InstrumentStock,
		Side:       l.Side,
		Shares:     l.Shares,
		EntryPrice: l.EntryPrice,
	})
}

type optionLegWire struct {
	Instrument   Instrument `json:"instrument"`
	Type         OptionType `json:"option_type"`
	Side         Side       `json:"side"`
	Strike       float64    `json:"strike"`
	Premium      float64    `json:"premium"`
	Qty          *int       `json:"qty,omitempty"`
	ContractSize *int       `json:"contract_size,omitempty"`
}

type stockLegWire struct {
	Instrument Instrument `json:"instrument"`
	Side       Side       `json:"side"`
	Shares     int        `json:"shares"`
	EntryPrice float64    `json:"entry_price"`
}

// DecodeLeg decodes one tagged leg record. Fields that belong to the other
// variant are rejected.
func DecodeLeg(data []byte) (Leg, error) {
	var probe struct {
		Instrument Instrument `json:"instrument"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, errors.NewValidationError("leg", string(data), err.Error())
	}

	switch probe.Instrument {
	case InstrumentOption:
		var w optionLegWire
		if err := strictUnmarshal(data, &w); err != nil {
			return nil, errors.NewValidationError("leg", "option", err.Error())
		}
		leg := OptionLeg{
			Type:         w.Type,
			Side:         w.Side,
			Strike:       w.Strike,
			Premium:      w.Premium,
			Qty:          1,
			ContractSize: DefaultContractSize,
		}
		if w.Qty != nil {
			leg.Qty = *w.Qty
		}
		if w.ContractSize != nil {
			leg.ContractSize = *w.ContractSize
		}
		if err := leg.Validate(); err != nil {
			return nil, err
		}
		return leg, nil
	case InstrumentStock:
		var w stockLegWire
		if err := strictUnmarshal(data, &w); err != nil {
			return nil, errors.NewValidationError("leg", "stock", err.Error())
		}
		leg := StockLeg{Side: w.Side, Shares: w.Shares, EntryPrice: w.EntryPrice}
		if err := leg.Validate(); err != nil {
			return nil, err
		}
		return leg, nil
	default:
		return nil, errors.NewValidationError("instrument", probe.Instrument, "must be 'option' or 'stock'")
	}
}

func strictUnmarshal(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// LegList is a JSON-decodable list of tagged legs.
type LegList []Leg

// UnmarshalJSON decodes each element with DecodeLeg.
func (l *LegList) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errors.NewValidationError("legs", nil, err.Error())
	}
	out := make(LegList, 0, len(raw))
	for i, r := range raw {
		leg, err := DecodeLeg(r)
		if err != nil {
			return fmt.Errorf("leg %d: %w", i, err)
		}
		out = append(out, leg)
	}
	*l = out
	return nil
}
