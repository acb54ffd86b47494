package identifiers

import (
	"regexp"
	"strings"
)

var orderNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(?:Número\s+Pedido|NÚMERO\s+PEDIDO|Numero\s+Pedido|NUMERO\s+PEDIDO)[:\s.]+(\d+)`),
	regexp.MustCompile(`(?im)NR\.?\s+PEDIDO[:\s.]+(\d+)`),
	regexp.MustCompile(`(?im)N[º°]?\s+PEDIDO[:\s.]+(\d+)`),
	regexp.MustCompile(`(?im)(?:^|\s)PEDIDO[:\s.]+(\d+)`),
}

// ExtractOrderNumber finds an order number after one of the usual labels.
func ExtractOrderNumber(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range orderNumberPatterns {
		if m := re.FindStringSubmatch(text); m != nil {
			if n := strings.TrimSpace(m[1]); n != "" {
				return n, true
			}
		}
	}
	return "", false
}
