package textline

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// ScanName is the free-scan strategy identifier.
const ScanName = "text-scan"

// colonQuantityMax bounds a count read from a colon-separated dump.
const colonQuantityMax = 200

var (
	reLabeledQuantity = regexp.MustCompile(`(?i)\b(?:qtde|qtd|quantidade)[.:\s]+(\d+)`)
	reTaxIDLine       = regexp.MustCompile(`(?i)cnpj|filial`)
	reBranch          = regexp.MustCompile(`(?i)\bfilial[:\s]+(\d{3})\b`)
)

// Scan reads every line that carries a product id, without a header. The
// order number and tax id in effect are tracked as lines go by, so dumps
// with several orders keep each item with its own.
type Scan struct {
	cfg    Config
	loose  bool
	logger *slog.Logger
}

// NewScan builds a free-scan Strategy. loose accepts 13-digit ids that fail
// the checksum.
func NewScan(cfg Config, loose bool, logger *slog.Logger) *Scan {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scan{cfg: cfg.withDefaults(ScanName), loose: loose, logger: logger}
}

func (s *Scan) Name() string { return s.cfg.Name }

// Extract implements strategy.Strategy.
func (s *Scan) Extract(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	if len(src.Lines) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no text lines")
	}
	text := strings.Join(src.Lines, "\n")
	fallbackTaxID := taxIDFor(s.cfg.TaxIDPattern, text, nil)
	fallbackOrder, _ := identifiers.ExtractOrderNumber(text)
	branches := identifiers.ExtractAllTaxIDs(text)

	var (
		items   []entity.LineItem
		order   string
		taxID   string
		skipped int
	)
	for i, line := range src.Lines {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if n, ok := identifiers.ExtractOrderNumber(line); ok {
			order = n
		}
		if reTaxIDLine.MatchString(line) {
			if id, ok := identifiers.ExtractTaxID(line); ok {
				taxID = id
			} else if m := reBranch.FindStringSubmatch(line); m != nil && branches[m[1]] != "" {
				// "Filial: 002" alone refers back to the branch table.
				taxID = branches[m[1]]
			}
		}

		id, start, end, ok := s.findID(line)
		if !ok || isHeader(line) {
			continue
		}
		item, ok := s.parse(line, start, end)
		if !ok {
			skipped++
			continue
		}
		item.ProductID = id
		item.Line = i + 1
		item.OrderNumber = firstNonEmpty(order, fallbackOrder)
		item.TaxID = firstNonEmpty(taxID, fallbackTaxID)
		items = append(items, item)
	}

	s.logger.Debug("textscan.extracted", "file", src.Filename, "lines", len(src.Lines), "items", len(items), "skipped", skipped)
	if len(items) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no line with a product id")
	}
	return items, nil
}

func (s *Scan) findID(line string) (string, int, int, bool) {
	if s.loose {
		return identifiers.FindProductIDLoose(line)
	}
	return identifiers.FindProductID(line)
}

// parse resolves the text around the id at line[start:end].
func (s *Scan) parse(line string, start, end int) (entity.LineItem, bool) {
	rest := line[end:]
	if strings.Count(rest, ":") >= 2 {
		if item, ok := colonFields(rest); ok {
			return item, true
		}
	}

	var item entity.LineItem
	w, ok := moneyAware(rest, s.cfg.ControlCodeMaxDigits)
	if ok {
		item.Description = w.Description
		item.Price = nonEmpty(w.Price)
		item.Total = nonEmpty(w.Total)
		item.Quantity, _ = identifiers.ParseQuantity(w.Quantity)
	} else {
		item.Description = description(strings.Fields(rest), s.cfg.ControlCodeMaxDigits)
	}
	if item.Description == "" {
		// Some dumps print the description before the id.
		item.Description = description(strings.Fields(line[:start]), s.cfg.ControlCodeMaxDigits)
	}
	if item.Description == "" {
		return item, false
	}
	if item.Quantity == 0 {
		item.Quantity = labeledQuantity(line)
	}
	return item, true
}

// colonFields reads ":desc :maker: qty" style dumps.
func colonFields(rest string) (entity.LineItem, bool) {
	var item entity.LineItem
	var money []string
	for _, part := range strings.Split(rest, ":") {
		part = strings.TrimSpace(part)
		switch {
		case part == "":
		case layout.IsMoney(part):
			money = append(money, part)
		case identifiers.IsInteger(part):
			if n, err := strconv.Atoi(part); err == nil && n > 0 && n < colonQuantityMax {
				item.Quantity = n
			}
		case item.Description == "" && hasLetter(part):
			item.Description = part
		}
	}
	if item.Description == "" {
		return item, false
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	if len(money) > 0 {
		item.Price = money[0]
	}
	if len(money) > 1 {
		item.Total = money[len(money)-1]
	}
	return item, true
}

func labeledQuantity(line string) int {
	if m := reLabeledQuantity.FindStringSubmatch(line); m != nil {
		if n, ok := identifiers.ParseQuantity(m[1]); ok {
			return n
		}
	}
	return 1
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
