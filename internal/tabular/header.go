package tabular

import (
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/columns"
)

// HeaderScanRows bounds the header search.
const HeaderScanRows = 50

// headerVocabulary marks a cell as a column title.
var headerVocabulary = []string{
	"ean", "barra", "codigo", "cod", "produto", "descr", "mercadoria",
	"qtde", "qtd", "qty", "quant", "preco", "valor", "unit", "embalagem", "ref",
}

// sectionVocabulary is the lighter set used right below a tax id anchor.
var sectionVocabulary = []string{"ean", "codigo", "qtde", "quantidade", "produto"}

// descriptionKeywords flag a description cell that is really a repeated header.
var descriptionKeywords = []string{
	"produto", "descricao", "desc", "qtde", "quantidade", "codigo", "barras",
	"preco", "valor", "total", "subtotal", "desconto", "frete", "ean", "cod",
	"ref", "unidade", "embalagem", "fabricante",
}

// FindHeader returns the first row within the scan window holding at least
// two title cells, or 0 when none does.
func FindHeader(grid [][]string) int {
	limit := min(len(grid), HeaderScanRows)
	for i := 0; i < limit; i++ {
		if headerCells(grid[i], headerVocabulary) >= 2 {
			return i
		}
	}
	return 0
}

// headerCells counts the cells of row containing a vocabulary word.
func headerCells(row []string, vocabulary []string) int {
	n := 0
	for _, cell := range row {
		if containsAny(columns.FoldWord(cell), vocabulary) {
			n++
		}
	}
	return n
}

// keywordHits counts distinct vocabulary words found in s.
func keywordHits(s string, vocabulary []string) int {
	folded := columns.FoldWord(s)
	n := 0
	for _, kw := range vocabulary {
		if strings.Contains(folded, kw) {
			n++
		}
	}
	return n
}

func containsAny(s string, vocabulary []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range vocabulary {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
