package utils

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds x half away from zero to the given number of decimal places.
// NaN and infinities are returned unchanged.
func Round(x float64, places int32) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return decimal.NewFromFloat(x).Round(places).InexactFloat64()
}

// Round2 rounds a money amount to cents.
func Round2(x float64) float64 {
	return Round(x, 2)
}

// Round4 rounds a ratio or probability to four places.
func Round4(x float64) float64 {
	return Round(x, 4)
}
