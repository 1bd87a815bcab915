// Package core provides amount parsing and exact aggregation utilities.
//
// Cost sums travel as float64 on the wire and in storage, but every
// aggregation goes through shopspring/decimal so totals do not drift
// (0.1 + 0.2 is 0.3, not 0.30000000000000004).
package core

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimal orders of magnitude outside which a float64 overflows or
// underflows to zero.
const (
	maxFloatMagnitude = 309
	minFloatMagnitude = -324
)

// ParseSum converts a decimal string to a cost sum.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Zero is
// accepted, negative and non-numeric values are rejected with a
// ValidationError.
//
// Examples:
//
//	ParseSum("12.34") -> 12.34, nil
//	ParseSum("12,5")  -> 12.5, nil
//	ParseSum("-1")    -> 0, ErrNegativeSum
func ParseSum(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, NewValidationError("sum", "is required")
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, NewValidationError("sum", "must be a number")
	}
	if d.IsNegative() {
		return 0, ErrNegativeSum
	}
	// Bound the magnitude before converting: InexactFloat64 materialises
	// 10^exponent as a big.Int.
	switch mag := int64(d.Exponent()) + int64(d.NumDigits()); {
	case mag > maxFloatMagnitude:
		return 0, ErrNonFiniteSum
	case mag < minFloatMagnitude:
		return 0, nil
	}
	f := d.InexactFloat64()
	if math.IsInf(f, 0) {
		return 0, ErrNonFiniteSum
	}
	return f, nil
}

// SumAmounts adds the values with decimal arithmetic and returns the result
// as float64.
func SumAmounts(values ...float64) float64 {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(decimal.NewFromFloat(v))
	}
	return total.InexactFloat64()
}

// TotalOf sums the Sum field of the given items.
func TotalOf(items []CostItem) float64 {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(decimal.NewFromFloat(it.Sum))
	}
	return total.InexactFloat64()
}
