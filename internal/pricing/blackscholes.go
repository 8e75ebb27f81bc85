// Package pricing implements closed-form option pricing and implied
// volatility.
package pricing

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"options-cockpit/internal/errors"
	"options-cockpit/internal/models"
)

// Inputs are the market parameters for one option.
type Inputs struct {
	S     float64 `json:"S"`
	K     float64 `json:"K"`
	T     float64 `json:"T"`
	R     float64 `json:"r"`
	Q     float64 `json:"q"`
	Sigma float64 `json:"sigma"`
}

// Validate checks the positivity preconditions of the pricing formula.
func (in Inputs) Validate() error {
	if err := positive("S", in.S); err != nil {
		return err
	}
	if err := positive("K", in.K); err != nil {
		return err
	}
	if err := positive("T", in.T); err != nil {
		return err
	}
	if err := positive("sigma", in.Sigma); err != nil {
		return err
	}
	if math.IsNaN(in.R) || math.IsInf(in.R, 0) {
		return errors.NewValidationError("r", in.R, "must be finite")
	}
	if math.IsNaN(in.Q) || math.IsInf(in.Q, 0) {
		return errors.NewValidationError("q", in.Q, "must be finite")
	}
	return nil
}

func positive(field string, v float64) error {
	if !(v > 0) || math.IsInf(v, 0) {
		return errors.NewValidationError(field, v, "must be > 0")
	}
	return nil
}

// BlackScholes prices a European call and put with continuous dividend
// yield and returns their Greeks.
func BlackScholes(in Inputs) (models.PricingResult, error) {
	if err := in.Validate(); err != nil {
		return models.PricingResult{}, err
	}
	return blackScholes(in), nil
}

func blackScholes(in Inputs) models.PricingResult {
	n := distuv.UnitNormal

	sqrtT := math.Sqrt(in.T)
	volT := in.Sigma * sqrtT
	d1 := (math.Log(in.S/in.K) + (in.R-in.Q+0.5*in.Sigma*in.Sigma)*in.T) / volT
	d2 := d1 - volT

	divDisc := math.Exp(-in.Q * in.T)
	rateDisc := math.Exp(-in.R * in.T)

	nd1, nd2 := n.CDF(d1), n.CDF(d2)
	nmd1, nmd2 := n.CDF(-d1), n.CDF(-d2)
	pdf := n.Prob(d1)

	sDisc := in.S * divDisc
	kDisc := in.K * rateDisc

	decay := -sDisc * pdf * in.Sigma / (2 * sqrtT)

	return models.PricingResult{
		CallPrice: sDisc*nd1 - kDisc*nd2,
		PutPrice:  kDisc*nmd2 - sDisc*nmd1,
		DeltaCall: divDisc * nd1,
		DeltaPut:  divDisc * (nd1 - 1),
		Gamma:     divDisc * pdf / (in.S * volT),
		Vega:      sDisc * pdf * sqrtT,
		ThetaCall: decay - in.R*kDisc*nd2 + in.Q*sDisc*nd1,
		ThetaPut:  decay + in.R*kDisc*nmd2 - in.Q*sDisc*nmd1,
		RhoCall:   in.K * in.T * rateDisc * nd2,
		RhoPut:    -in.K * in.T * rateDisc * nmd2,
	}
}

// SimpleGreeks returns display Greeks without dividend yield: theta per
// calendar day and vega per one volatility point. Non-positive inputs
// yield zero Greeks.
func SimpleGreeks(s, k, t, r, sigma float64, isCall bool) models.DisplayGreeks {
	if t <= 0 || sigma <= 0 || s <= 0 || k <= 0 {
		return models.DisplayGreeks{}
	}

	res := blackScholes(Inputs{S: s, K: k, T: t, R: r, Sigma: sigma})
	g := models.DisplayGreeks{
		Gamma: res.Gamma,
		Vega:  res.Vega / 100.0,
	}
	if isCall {
		g.Delta = res.DeltaCall
		g.Theta = res.ThetaCall / 365.0
	} else {
		g.Delta = res.DeltaPut
		g.Theta = res.ThetaPut / 365.0
	}
	return g
}
