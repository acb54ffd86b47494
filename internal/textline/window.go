package textline

import (
	"regexp"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/columns"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
)

var reNumeric = regexp.MustCompile(`^\d+(?:[.,]\d+)*$`)

// headerKeywords mark the column header line of a printed order.
var headerKeywords = []string{
	"mercadoria", "descricao", "codigo", "barras", "quantidade",
	"qtd", "produto", "ref", "emb",
}

// DefaultTerminators end the item block.
var DefaultTerminators = []string{
	"total", "end", "signature", "pagina de", "fim", "resumo", "assinatura",
}

// window is what the text after a product id resolves to.
type window struct {
	Description string
	Quantity    string
	Price       string
	Total       string
}

// lastTwo reads the substring after a product id: the last two numeric
// tokens are quantity and price, everything before the first of them is the
// description.
func lastTwo(rest string, maxControl int) (window, bool) {
	fields := strings.Fields(rest)
	var idx []int
	for i := len(fields) - 1; i >= 0 && len(idx) < 2; i-- {
		if isNumericToken(fields[i]) {
			idx = append(idx, i)
		}
	}
	if len(idx) < 2 {
		return window{}, false
	}
	qi, pi := idx[1], idx[0]
	return window{
		Description: description(fields[:qi], maxControl),
		Quantity:    trimToken(fields[qi]),
		Price:       trimToken(fields[pi]),
	}, true
}

// moneyAware reads the trailing numeric run of rest, telling money tokens
// from counts: the first money token is the unit price, the last one the
// line total, and the last count before the first money token the quantity.
// The description ends at the quantity, or at the price when there is none.
func moneyAware(rest string, maxControl int) (window, bool) {
	fields := strings.Fields(rest)
	start := len(fields)
	for start > 0 && (isNumericToken(fields[start-1]) || isUnitToken(fields[start-1])) {
		start--
	}

	var w window
	var money []string
	cut := -1
	for i := start; i < len(fields); i++ {
		t := trimToken(fields[i])
		switch {
		case layout.IsMoney(t):
			if len(money) == 0 && cut < 0 {
				cut = i
			}
			money = append(money, t)
		case identifiers.IsInteger(t) && len(money) == 0:
			w.Quantity = t
			cut = i
		}
	}
	if cut < 0 {
		return window{}, false
	}
	w.Description = description(fields[:cut], maxControl)
	if len(money) > 0 {
		w.Price = money[0]
	}
	if len(money) > 1 {
		w.Total = money[len(money)-1]
	}
	return w, true
}

// description joins tokens, dropping a short numeric control code in front.
func description(fields []string, maxControl int) string {
	if len(fields) > 1 && identifiers.IsInteger(fields[0]) && len(fields[0]) <= maxControl {
		fields = fields[1:]
	}
	return strings.Trim(strings.Join(fields, " "), " -|:;")
}

func isNumericToken(s string) bool {
	return reNumeric.MatchString(trimToken(s))
}

// isUnitToken matches packaging marks that sit between quantity and price.
func isUnitToken(s string) bool {
	switch strings.ToUpper(strings.Trim(s, ".")) {
	case "UN", "UND", "UNID", "CX", "PC", "PCT", "FD", "DP", "R$":
		return true
	}
	return false
}

func trimToken(s string) string {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "R$"), "r$")
	return strings.Trim(s, "|;:")
}

func isHeader(line string) bool {
	folded := columns.FoldWord(line)
	hits := 0
	for _, k := range headerKeywords {
		if strings.Contains(folded, k) {
			hits++
		}
	}
	return hits >= 2
}

// terminatorPattern matches any of words as a whole word of folded text.
func terminatorPattern(words []string) *regexp.Regexp {
	quoted := make([]string, 0, len(words))
	for _, w := range words {
		if w = columns.FoldWord(w); w != "" {
			quoted = append(quoted, regexp.QuoteMeta(w))
		}
	}
	if len(quoted) == 0 {
		return nil
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
}
