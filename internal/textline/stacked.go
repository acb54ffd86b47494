package textline

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// StackedName is the stacked-record strategy identifier.
const StackedName = "stacked"

// StackedLookback is how many lines above a product id are searched.
const StackedLookback = 15

var rePriceInLine = regexp.MustCompile(`(\d+[.,]\d{2})(?:\s|$)`)

const (
	minStackedPrice = 0.1
	maxStackedPrice = 999999
)

// Stacked reads OCR text where every field of a record landed on its own
// line, ending with the product id:
//
//	LEITE EM PO INTEGRAL
//	34,99
//	Gama
//	12
//	7891000261965
type Stacked struct {
	name         string
	brandMarkers []string
	logger       *slog.Logger
}

// NewStacked builds the stacked strategy. Lines containing a brand marker
// are never taken as a description.
func NewStacked(brandMarkers []string, logger *slog.Logger) *Stacked {
	if logger == nil {
		logger = slog.Default()
	}
	if brandMarkers == nil {
		brandMarkers = layout.DefaultBrandMarkers
	}
	lowered := make([]string, len(brandMarkers))
	for i, m := range brandMarkers {
		lowered[i] = strings.ToLower(m)
	}
	return &Stacked{name: StackedName, brandMarkers: lowered, logger: logger}
}

func (s *Stacked) Name() string { return s.name }

// Extract implements strategy.Strategy.
func (s *Stacked) Extract(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	lines := make([]string, len(src.Lines))
	for i, l := range src.Lines {
		lines[i] = strings.TrimSpace(l)
	}
	if len(lines) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no text lines")
	}
	text := strings.Join(lines, "\n")
	taxID := identifiers.PickTaxID(text)
	order, _ := identifiers.ExtractOrderNumber(text)

	var items []entity.LineItem
	for i, line := range lines {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		id, ok := identifiers.ExtractProductID(line)
		if !ok {
			continue
		}
		item, ok := s.lookBack(lines, i)
		if !ok {
			s.logger.Debug("stacked.record.skipped", "product_id", id, "line", i+1)
			continue
		}
		item.ProductID = id
		item.OrderNumber = order
		item.TaxID = taxID
		item.Line = i + 1
		items = append(items, item)
	}

	s.logger.Debug("stacked.extracted", "file", src.Filename, "items", len(items))
	if len(items) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no stacked record with a price")
	}
	return items, nil
}

// lookBack collects quantity, price and description from the lines above
// lines[at], stopping at the previous product id. A price is required.
func (s *Stacked) lookBack(lines []string, at int) (entity.LineItem, bool) {
	var (
		item     entity.LineItem
		price    string
		hasQty   bool
		hasDesc  bool
		lowerEnd = max(0, at-StackedLookback)
	)
	for j := at - 1; j >= lowerEnd; j-- {
		prev := lines[j]
		if prev == "" {
			continue
		}
		if _, ok := identifiers.ExtractProductID(prev); ok {
			break
		}
		if !hasQty && identifiers.IsInteger(prev) {
			if n, err := strconv.Atoi(prev); err == nil && n >= 1 && n <= 9999 {
				item.Quantity = n
				hasQty = true
				continue
			}
		}
		if price == "" {
			if m := rePriceInLine.FindStringSubmatch(prev); m != nil {
				if v := identifiers.NormalizePrice(m[1]); v >= minStackedPrice && v <= maxStackedPrice {
					price = m[1]
				}
			}
		}
		if !hasDesc && s.describes(prev) {
			item.Description = prev
			hasDesc = true
		}
	}
	if !hasDesc || price == "" {
		return item, false
	}
	if !hasQty {
		item.Quantity = 1
	}
	item.Price = price
	return item, true
}

func (s *Stacked) describes(line string) bool {
	if identifiers.IsInteger(line) || layout.IsMoney(line) {
		return false
	}
	if strings.Contains(strings.ToUpper(line), "CNPJ") {
		return false
	}
	lower := strings.ToLower(line)
	for _, m := range s.brandMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return hasLetter(line)
}
