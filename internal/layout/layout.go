// Package layout rebuilds order lines from positioned tokens (OCR words or
// PDF glyph runs). Tokens are bucketed into visual rows, classified by role,
// and a record is assembled around every product id, borrowing missing
// fields from the row printed just above.
package layout

import (
	"context"
	"log/slog"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// Name is the generic strategy identifier.
const Name = "layout"

// Default row tolerances per coordinate unit.
const (
	DefaultPixelTolerance = 25.0
	DefaultPointTolerance = 4.0
)

// Window bounds a column as fractions of the page width.
type Window struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func (w Window) contains(x, width float64) bool {
	if width <= 0 {
		return true
	}
	f := x / width
	return f >= w.Min && f <= w.Max
}

// Config parametrizes the strategy. Zero fields take per-unit defaults.
type Config struct {
	Name string
	// Tolerance is the row bucket size in page units.
	Tolerance float64
	// DescriptionMaxX is the right edge of the description column.
	DescriptionMaxX float64
	// Quantity is the column window for quantity tokens.
	Quantity     *Window
	BrandMarkers []string
	// Pages overrides where pages come from, e.g. OCR of rasterised PDF pages.
	Pages func(ctx context.Context, src *strategy.Source) ([]entity.Page, error)
}

var (
	pixelQuantityWindow = Window{Min: 0.78, Max: 0.88}
	pointQuantityWindow = Window{Min: 0.5, Max: 1}
)

// Strategy is the layout extractor.
type Strategy struct {
	cfg    Config
	logger *slog.Logger
}

// New builds a layout Strategy.
func New(cfg Config, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Name == "" {
		cfg.Name = Name
	}
	if cfg.DescriptionMaxX <= 0 {
		cfg.DescriptionMaxX = 0.5
	}
	if cfg.BrandMarkers == nil {
		cfg.BrandMarkers = DefaultBrandMarkers
	}
	return &Strategy{cfg: cfg, logger: logger}
}

func (s *Strategy) Name() string { return s.cfg.Name }

// Extract implements strategy.Strategy.
func (s *Strategy) Extract(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	pages := src.Pages
	if s.cfg.Pages != nil {
		var err error
		if pages, err = s.cfg.Pages(ctx, src); err != nil {
			return nil, err
		}
	}
	if len(pages) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no positioned tokens")
	}

	var items []entity.LineItem
	var texts []string
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageItems, pageTexts := s.extractPage(p)
		items = append(items, pageItems...)
		texts = append(texts, pageTexts...)
	}

	// Tax id and order number are document-wide: one scan over every page.
	taxID := identifiers.PickTaxID(texts...)
	order, _ := identifiers.ExtractOrderNumber(strings.Join(texts, "\n"))
	for i := range items {
		items[i].TaxID = taxID
		items[i].OrderNumber = order
	}
	s.logger.Debug("layout.extracted", "file", src.Filename, "pages", len(pages), "items", len(items), "tax_id", taxID)
	if len(items) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no row with a product id, description and price")
	}
	return items, nil
}

type token struct {
	entity.Detection
	role Role
}

type row struct {
	y      float64
	tokens []token
}

func (r row) has(role Role) bool {
	for _, t := range r.tokens {
		if t.role == role {
			return true
		}
	}
	return false
}

// extractPage assembles the records of one page and returns the page texts,
// token by token and row by row, for the document-wide scans.
func (s *Strategy) extractPage(p entity.Page) ([]entity.LineItem, []string) {
	width := p.Width
	if width <= 0 {
		for _, d := range p.Detections {
			width = max(width, d.MaxX)
		}
	}
	qtyWin := s.quantityWindow(p.Unit)

	visual := Bucket(p.Detections, toleranceFor(p, s.cfg.Tolerance))
	rows := make([]row, len(visual))
	texts := make([]string, 0, len(visual)*2)
	for i, v := range visual {
		rows[i].y = v.Y
		for _, d := range v.Detections {
			role := classify(d.Text, s.cfg.BrandMarkers)
			inDescription := width <= 0 || d.MinX/width < s.cfg.DescriptionMaxX
			switch {
			case role == RoleDescription && !inDescription:
				role = RoleOther
			case role == RoleQuantity && !qtyWin.contains(d.MinX, width) && inDescription:
				role = RoleDescription
			case role == RoleQuantity && !qtyWin.contains(d.MinX, width):
				role = RoleOther
			}
			rows[i].tokens = append(rows[i].tokens, token{Detection: d, role: role})
			texts = append(texts, d.Text)
		}
		texts = append(texts, v.Text())
	}

	var items []entity.LineItem
	for i, r := range rows {
		pid := ""
		for _, t := range r.tokens {
			if t.role == RoleProductID {
				pid, _ = identifiers.ExtractProductID(t.Text)
				break
			}
		}
		if pid == "" {
			continue
		}
		var above *row
		if i > 0 && !rows[i-1].has(RoleProductID) {
			above = &rows[i-1]
		}

		desc := joinRole(r, RoleDescription)
		if desc == "" && above != nil {
			desc = joinRole(*above, RoleDescription)
		}
		money := tokensOf(r, RoleMoney)
		if len(money) == 0 && above != nil {
			money = tokensOf(*above, RoleMoney)
		}
		qtyTok := tokensOf(r, RoleQuantity)
		if len(qtyTok) == 0 && above != nil {
			qtyTok = tokensOf(*above, RoleQuantity)
		}

		if desc == "" || len(money) == 0 {
			s.logger.Debug("layout.row.skipped", "product_id", pid, "has_description", desc != "", "has_price", len(money) > 0)
			continue
		}
		price := identifiers.NormalizePrice(stripCurrency(money[0]))
		if price <= 0 {
			continue
		}
		qty := 1
		if len(qtyTok) > 0 {
			if q, ok := identifiers.ParseQuantity(qtyTok[0]); ok {
				qty = q
			}
		}
		item := entity.LineItem{
			ProductID:   pid,
			Description: desc,
			Quantity:    qty,
			Price:       price,
			Line:        i + 1,
		}
		if len(money) > 1 {
			item.Total = identifiers.NormalizePrice(stripCurrency(money[len(money)-1]))
		}
		items = append(items, item)
	}

	return items, texts
}

func (s *Strategy) quantityWindow(u entity.Unit) Window {
	if s.cfg.Quantity != nil {
		return *s.cfg.Quantity
	}
	if u == entity.UnitPoint {
		return pointQuantityWindow
	}
	return pixelQuantityWindow
}

func toleranceFor(p entity.Page, tol float64) float64 {
	if tol > 0 {
		return tol
	}
	if p.Unit == entity.UnitPoint {
		return DefaultPointTolerance
	}
	return DefaultPixelTolerance
}

func joinRole(r row, role Role) string {
	return strings.Join(tokensOf(r, role), " ")
}

func tokensOf(r row, role Role) []string {
	var out []string
	for _, t := range r.tokens {
		if t.role == role {
			out = append(out, strings.TrimSpace(t.Text))
		}
	}
	return out
}
