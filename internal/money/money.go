// Package money converts between integer minor-unit (cent) storage and
// display-locale euro amounts. All persisted amounts are cents; floats only
// appear at the rendering and OCR edges.
package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CentsToEuros converts a cent amount to a major-unit value, exact to two
// decimal places.
func CentsToEuros(cents int64) float64 {
	f, _ := decimal.NewFromInt(cents).Div(hundred).Float64()
	return f
}

// EurosToCents converts a major-unit amount to cents, rounding half away from
// zero.
func EurosToCents(euros float64) int64 {
	return decimal.NewFromFloat(euros).Mul(hundred).Round(0).IntPart()
}

// ParseToCents parses a user-entered decimal string into cents. Both "." and
// "," are accepted as decimal separators. Unparseable input yields 0: the
// caller validates presence separately, and a lenient zero keeps half-typed
// amounts from killing a form submit.
func ParseToCents(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.TrimSuffix(s, "€")
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return 0
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0
	}
	return d.Mul(hundred).Round(0).IntPart()
}

// RoundCents applies a fractional rate to a cent amount, rounding half away
// from zero. Used for the partially deductible TVA figure.
func RoundCents(cents int64, rate float64) int64 {
	return decimal.NewFromInt(cents).Mul(decimal.NewFromFloat(rate)).Round(0).IntPart()
}
