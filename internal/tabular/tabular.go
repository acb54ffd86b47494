// Package tabular extracts line items from a 2-D grid of cells: spreadsheets
// with a header row at an unknown offset, metadata rows above it and, on
// some exports, several tax id sections stacked in one sheet.
package tabular

import (
	"context"
	"log/slog"
	"strings"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/columns"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// Name is the generic strategy identifier.
const Name = "tabular"

// Config parametrizes the strategy per vendor. The zero value is the
// generic behaviour.
type Config struct {
	Name string
	// HeaderRow pins the header row; nil searches for it.
	HeaderRow *int
	// DataStartRow pins the first data row; 0 means the row after the header.
	DataStartRow int
	// TaxIDCell pins the tax id to one cell.
	TaxIDCell *Cell
	// Columns pins fields to column offsets and skips header mapping.
	Columns map[constants.Field]int
	Mapper  *columns.Mapper
	// SkipDescriptionPrefixes drop section-title and total rows ("Linha ...").
	SkipDescriptionPrefixes []string
	// MinProductIDDigits lets a row pass the filter on a partial id.
	MinProductIDDigits int
	// DisableSections turns off tax id anchor splitting.
	DisableSections bool
}

// Strategy is the tabular extractor.
type Strategy struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a tabular Strategy.
func New(cfg Config, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.Mapper == nil {
		cfg.Mapper = columns.New()
	}
	if cfg.SkipDescriptionPrefixes == nil {
		cfg.SkipDescriptionPrefixes = []string{"linha", "rotina", "total", "subtotal"}
	}
	return &Strategy{cfg: cfg, logger: logger}
}

func (s *Strategy) Name() string { return s.cfg.Name }

// Extract implements strategy.Strategy.
func (s *Strategy) Extract(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	grid := src.Grid
	if len(grid) == 0 || width(grid) == 0 {
		return nil, strategy.NoDataf(s.Name(), "empty grid")
	}

	if !s.cfg.DisableSections && s.cfg.HeaderRow == nil {
		if anchors := findAnchors(grid); len(anchors) > 1 {
			items := s.extractSections(grid, anchors)
			s.logger.Debug("tabular.sections", "file", src.Filename, "sections", len(anchors), "items", len(items))
			if len(items) > 0 {
				return items, nil
			}
		}
	}

	header := FindHeader(grid)
	if s.cfg.HeaderRow != nil {
		header = *s.cfg.HeaderRow
	}
	if header >= len(grid) {
		return nil, strategy.NoDataf(s.Name(), "header row %d beyond %d rows", header, len(grid))
	}
	md := findMetadata(grid, header, s.cfg.TaxIDCell)

	start := header + 1
	if s.cfg.DataStartRow > 0 {
		start = s.cfg.DataStartRow
	}
	if start >= len(grid) {
		return nil, strategy.NoDataf(s.Name(), "no rows after header %d", header)
	}

	idx := s.columnIndex(grid[header])
	if len(idx) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no known column in header row %d", header)
	}
	items := s.rows(grid, start, len(grid), idx, md)
	s.logger.Debug("tabular.extracted",
		"file", src.Filename, "header_row", header, "columns", len(idx), "items", len(items), "tax_id", md.TaxID)
	if len(items) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no data rows under header %d", header)
	}
	return items, nil
}

func (s *Strategy) columnIndex(header []string) map[constants.Field]int {
	if len(s.cfg.Columns) > 0 {
		return s.cfg.Columns
	}
	return s.cfg.Mapper.Index(header)
}

// rows converts grid[start:end] under idx, applying the strict filter and
// the lenient fallback.
func (s *Strategy) rows(grid [][]string, start, end int, idx map[constants.Field]int, md Metadata) []entity.LineItem {
	var strict, lenient []entity.LineItem
	for r := start; r < end; r++ {
		row := grid[r]
		if emptyRow(row) {
			continue
		}
		item := s.item(row, idx, md)
		item.Line = r + 1
		lenient = append(lenient, item)
		if s.keep(item) {
			strict = append(strict, item)
		}
	}
	if len(strict) == 0 && len(lenient) > 0 {
		s.logger.Debug("tabular.filter.lenient", "rows", len(lenient))
		return lenient
	}
	return strict
}

func (s *Strategy) item(row []string, idx map[constants.Field]int, md Metadata) entity.LineItem {
	get := func(f constants.Field) string {
		i, ok := idx[f]
		if !ok {
			return ""
		}
		return cell(row, i)
	}
	item := entity.LineItem{
		OrderNumber: md.OrderNumber,
		TaxID:       md.TaxID,
		ProductID:   idCell(get(constants.FieldProductID)),
		Description: get(constants.FieldDescription),
		Price:       get(constants.FieldPrice),
		Total:       get(constants.FieldTotal),
	}
	if q, ok := identifiers.QuantityFromValue(get(constants.FieldQuantity)); ok {
		item.Quantity = q
	}
	if v := get(constants.FieldTaxID); v != "" {
		if id := taxIDFromCell(v); id != "" {
			item.TaxID = id
		}
	}
	if v := idCell(get(constants.FieldOrderNumber)); v != "" {
		item.OrderNumber = v
	}
	return item
}

// keep is the strict row filter.
func (s *Strategy) keep(item entity.LineItem) bool {
	if id := identifiers.NormalizeProductID(item.ProductID); identifiers.ValidateProductID(id) {
		return true
	}
	if n := s.cfg.MinProductIDDigits; n > 0 && len(identifiers.DigitsOnly(item.ProductID)) >= n {
		return true
	}
	desc := strings.TrimSpace(item.Description)
	if desc == "" || keywordHits(desc, descriptionKeywords) >= 2 {
		return false
	}
	folded := columns.FoldWord(desc)
	if folded == "nan" || folded == "none" {
		return false
	}
	for _, p := range s.cfg.SkipDescriptionPrefixes {
		if strings.HasPrefix(folded, columns.FoldWord(p)) {
			return false
		}
	}
	if len([]rune(desc)) <= 2 {
		return false
	}
	return item.Quantity > 0 || identifiers.NormalizePrice(item.Price) > 0
}
