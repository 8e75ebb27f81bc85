package portfolio

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// TemplateParam describes one input of a strategy template.
type TemplateParam struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Required    bool   `json:"required"`
	Description string `json:"description"`
}

// Template is a named recipe that expands parameters into legs.
type Template struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Params      []TemplateParam `json:"params"`
}

var optionSizing = []TemplateParam{
	{Name: "qty", Type: "integer", Required: false, Description: "Option contracts (default 1)"},
	{Name: "contract_size", Type: "integer", Required: false, Description: "Shares per contract (default 100)"},
}

var templates = []Template{
	{
		Name:        "covered_call",
		Description: "Long shares + short call.",
		Params: append([]TemplateParam{
			{Name: "shares", Type: "integer", Required: true, Description: "Number of shares (e.g., 100)"},
			{Name: "entry_price", Type: "number", Required: true, Description: "Share entry price (cost basis)"},
			{Name: "call_strike", Type: "number", Required: true, Description: "Call strike sold"},
			{Name: "call_premium", Type: "number", Required: true, Description: "Call premium received"},
		}, optionSizing...),
	},
	{
		Name:        "collar",
		Description: "Long shares + long protective put + short call (same expiry).",
		Params: append([]TemplateParam{
			{Name: "shares", Type: "integer", Required: true, Description: "Number of shares (e.g., 100)"},
			{Name: "entry_price", Type: "number", Required: true, Description: "Share entry price (cost basis)"},
			{Name: "put_strike", Type: "number", Required: true, Description: "Protective put strike bought"},
			{Name: "put_premium", Type: "number", Required: true, Description: "Put premium paid"},
			{Name: "call_strike", Type: "number", Required: true, Description: "Call strike sold"},
			{Name: "call_premium", Type: "number", Required: true, Description: "Call premium received"},
		}, optionSizing...),
	},
}

// Templates returns the strategy template catalog.
func Templates() []Template {
	out := make([]Template, len(templates))
	copy(out, templates)
	return out
}

type params map[string]interface{}

func (p params) num(key string) (float64, error) {
	v, ok := p[key]
	if !ok {
		return 0, errors.NewValidationError(key, nil, fmt.Sprintf("missing param: %s", key))
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return 0, errors.NewValidationError(key, v, fmt.Sprintf("param '%s' must be a number", key))
	}
	return f, nil
}

func (p params) integer(key string, def *int) (int, error) {
	v, ok := p[key]
	if !ok {
		if def == nil {
			return 0, errors.NewValidationError(key, nil, fmt.Sprintf("missing param: %s", key))
		}
		return *def, nil
	}
	n, err := cast.ToIntE(v)
	if err != nil {
		return 0, errors.NewValidationError(key, v, fmt.Sprintf("param '%s' must be an integer", key))
	}
	return n, nil
}

// BuildTemplate expands a named template into validated legs.
func BuildTemplate(name string, raw map[string]interface{}) ([]models.Leg, error) {
	p := params(raw)
	one, hundred := 1, models.DefaultContractSize

	qty, err := p.integer("qty", &one)
	if err != nil {
		return nil, err
	}
	contractSize, err := p.integer("contract_size", &hundred)
	if err != nil {
		return nil, err
	}

	switch strings.TrimSpace(name) {
	case "covered_call":
		stock, err := buildStock(p)
		if err != nil {
			return nil, err
		}
		call, err := buildOption(p, models.Call, models.Short, "call_strike", "call_premium", qty, contractSize)
		if err != nil {
			return nil, err
		}
		return []models.Leg{stock, call}, nil
	case "collar":
		stock, err := buildStock(p)
		if err != nil {
			return nil, err
		}
		put, err := buildOption(p, models.Put, models.Long, "put_strike", "put_premium", qty, contractSize)
		if err != nil {
			return nil, err
		}
		call, err := buildOption(p, models.Call, models.Short, "call_strike", "call_premium", qty, contractSize)
		if err != nil {
			return nil, err
		}
		return []models.Leg{stock, put, call}, nil
	}
	return nil, errors.NewValidationError("name", name, fmt.Sprintf("unknown template name: %s", name))
}

func buildStock(p params) (models.Leg, error) {
	shares, err := p.integer("shares", nil)
	if err != nil {
		return nil, err
	}
	entry, err := p.num("entry_price")
	if err != nil {
		return nil, err
	}
	return models.NewStockLeg(models.Long, shares, entry)
}

func buildOption(p params, t models.OptionType, side models.Side, strikeKey, premiumKey string, qty, contractSize int) (models.Leg, error) {
	strike, err := p.num(strikeKey)
	if err != nil {
		return nil, err
	}
	premium, err := p.num(premiumKey)
	if err != nil {
		return nil, err
	}
	return models.NewOptionLeg(t, side, strike, premium, qty, contractSize)
}
