package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// ParseLeg parses a colon-separated leg:
//
//	option:<call|put>:<long|short>:<strike>:<premium>[:qty[:contract_size]]
//	stock:<long|short>:<shares>:<entry_price>
func ParseLeg(spec string) (models.Leg, error) {
	parts := strings.Split(strings.TrimSpace(spec), ":")
	switch strings.ToLower(parts[0]) {
	case "option":
		if len(parts) < 5 || len(parts) > 7 {
			return nil, errors.NewValidationError("leg", spec, "want option:<type>:<side>:<strike>:<premium>[:qty[:contract_size]]")
		}
		t, err := models.ParseOptionType(parts[1])
		if err != nil {
			return nil, errors.NewValidationError("leg", spec, err.Error())
		}
		side, err := models.ParseSide(parts[2])
		if err != nil {
			return nil, errors.NewValidationError("leg", spec, err.Error())
		}
		strike, err := cast.ToFloat64E(parts[3])
		if err != nil {
			return nil, errors.NewValidationError("strike", parts[3], "must be a number")
		}
		premium, err := cast.ToFloat64E(parts[4])
		if err != nil {
			return nil, errors.NewValidationError("premium", parts[4], "must be a number")
		}
		qty, contractSize := 1, models.DefaultContractSize
		if len(parts) > 5 {
			if qty, err = cast.ToIntE(parts[5]); err != nil {
				return nil, errors.NewValidationError("qty", parts[5], "must be an integer")
			}
		}
		if len(parts) > 6 {
			if contractSize, err = cast.ToIntE(parts[6]); err != nil {
				return nil, errors.NewValidationError("contract_size", parts[6], "must be an integer")
			}
		}
		return models.NewOptionLeg(t, side, strike, premium, qty, contractSize)

	case "stock":
		if len(parts) != 4 {
			return nil, errors.NewValidationError("leg", spec, "want stock:<side>:<shares>:<entry_price>")
		}
		side, err := models.ParseSide(parts[1])
		if err != nil {
			return nil, errors.NewValidationError("leg", spec, err.Error())
		}
		shares, err := cast.ToIntE(parts[2])
		if err != nil {
			return nil, errors.NewValidationError("shares", parts[2], "must be an integer")
		}
		entry, err := cast.ToFloat64E(parts[3])
		if err != nil {
			return nil, errors.NewValidationError("entry_price", parts[3], "must be a number")
		}
		return models.NewStockLeg(side, shares, entry)
	}
	return nil, errors.NewValidationError("instrument", parts[0], "must be 'option' or 'stock'")
}

// ParseLegs parses every spec, reporting the position of the first bad one.
func ParseLegs(specs []string) ([]models.Leg, error) {
	legs := make([]models.Leg, 0, len(specs))
	for i, s := range specs {
		leg, err := ParseLeg(s)
		if err != nil {
			return nil, fmt.Errorf("leg %d: %w", i+1, err)
		}
		legs = append(legs, leg)
	}
	return legs, nil
}

// ParseParams turns key=value pairs into a template parameter map. Values
// stay strings; templates coerce them.
func ParseParams(pairs []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, errors.NewValidationError("param", p, "want key=value")
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
