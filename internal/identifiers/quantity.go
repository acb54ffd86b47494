package identifiers

import (
	"math"
	"strings"
)

// MaxRawQuantity bounds a quantity token before any multiplier is applied.
const MaxRawQuantity = 99999

// ParseQuantity reads a whole, positive count from a token such as "12",
// "12,00" or "12.0". Fractional or out-of-range values are rejected.
func ParseQuantity(token string) (int, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	return QuantityFromValue(token)
}

// QuantityFromValue is ParseQuantity for cell values of any type.
func QuantityFromValue(v any) (int, bool) {
	var f float64
	switch x := v.(type) {
	case string:
		f = parseMoney(x)
	case int:
		f = float64(x)
	default:
		f = NormalizePrice(v)
	}
	if f <= 0 || f > MaxRawQuantity || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// IsInteger reports whether s is a bare run of ASCII digits.
func IsInteger(s string) bool {
	return allDigits(s)
}
