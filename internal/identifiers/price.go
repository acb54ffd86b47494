package identifiers

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// reCurrency matches a leading currency mark such as R$, US$ or $.
var reCurrency = regexp.MustCompile(`^(-?)[A-Za-z]{0,2}\$`)

// NormalizePrice converts a monetary value in any source form to a float.
// Strings drop currency marks and spaces; when both '.' and ',' appear the
// dot groups thousands, and a lone ',' is the decimal mark. Anything that
// cannot be parsed yields 0.
func NormalizePrice(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case *float64:
		if x == nil {
			return 0
		}
		return finite(*x)
	case string:
		return parseMoney(x)
	case *string:
		if x == nil {
			return 0
		}
		return parseMoney(*x)
	case []byte:
		return parseMoney(string(x))
	default:
		return 0
	}
}

func parseMoney(s string) float64 {
	s = strings.ReplaceAll(s, "\u00a0", "")
	s = strings.ReplaceAll(s, " ", "")
	s = reCurrency.ReplaceAllString(strings.TrimSpace(s), "${1}")
	if s == "" {
		return 0
	}
	hasComma := strings.Contains(s, ",")
	switch {
	case hasComma && strings.Contains(s, "."):
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	case hasComma:
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
