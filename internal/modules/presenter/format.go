// Package presenter turns an optimization result into display rows, summary
// figures and downloadable artifacts. Everything here is a pure function.
package presenter

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// WeightDecimals is the number of decimals shown for holding weights.
func WeightDecimals(assetRounding int) int {
	if assetRounding >= 2 {
		return assetRounding - 2
	}
	return 0
}

// FormatPercent renders a fraction as a percentage with the given decimals.
func FormatPercent(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).Mul(hundred).StringFixed(int32(decimals)) + "%"
}

// FormatFixed renders v with exactly the given decimals.
func FormatFixed(v float64, decimals int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return decimal.NewFromFloat(v).StringFixed(int32(decimals))
}

// FormatGrouped renders an amount with thousands separators and at most three
// decimals, e.g. 12345.6789 as "12,345.679".
func FormatGrouped(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	rounded, _ := decimal.NewFromFloat(v).Round(3).Float64()
	return humanize.Commaf(rounded)
}

// FormatInteger renders v rounded to a whole number without grouping.
func FormatInteger(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}
