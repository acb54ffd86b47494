package tabular

import (
	"context"
	"fmt"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// CodeQuantityName identifies the two-column strategy.
const CodeQuantityName = "code-quantity"

// CodeQuantity reads sheets holding only a product code and a quantity. Each
// row becomes an item described as "Produto <code>". The codes are not
// checksum-valid in general, so the step running it must be lenient.
type CodeQuantity struct{}

func (CodeQuantity) Name() string { return CodeQuantityName }

// Extract implements strategy.Strategy.
func (CodeQuantity) Extract(_ context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	if width(src.Grid) != 2 {
		return nil, strategy.NoDataf(CodeQuantityName, "grid is not two columns wide")
	}
	var items []entity.LineItem
	for r, row := range src.Grid {
		code := idCell(cell(row, 0))
		if code == "" {
			continue
		}
		qty, ok := identifiers.ParseQuantity(cell(row, 1))
		if !ok {
			continue
		}
		items = append(items, entity.LineItem{
			ProductID:   code,
			Description: fmt.Sprintf("Produto %s", code),
			Quantity:    qty,
			Line:        r + 1,
		})
	}
	if len(items) == 0 {
		return nil, strategy.NoDataf(CodeQuantityName, "no code/quantity rows")
	}
	return items, nil
}
