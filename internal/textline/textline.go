// Package textline extracts line items from plain text lines: PDF text,
// .txt dumps and the row text rebuilt from OCR. Each line that carries a
// product id is split into description, quantity and price around it.
package textline

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/columns"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// Name is the header-anchored strategy identifier.
const Name = "text-line"

// DefaultControlCodeDigits bounds the numeric code some layouts print
// between the product id and the description.
const DefaultControlCodeDigits = 2

// taxIDHeadChars is how far into the text a TaxIDPattern is searched.
const taxIDHeadChars = 500

// Config parametrizes the text strategies per vendor.
type Config struct {
	Name string
	// Terminators end the item block; matched as whole folded words.
	Terminators []string
	// ControlCodeMaxDigits strips a leading numeric code of up to this many
	// digits from the description.
	ControlCodeMaxDigits int
	// TaxIDPattern, when set, is matched against the head of the text
	// before the generic tax id search.
	TaxIDPattern *regexp.Regexp
}

func (c Config) withDefaults(name string) Config {
	if c.Name == "" {
		c.Name = name
	}
	if c.Terminators == nil {
		c.Terminators = DefaultTerminators
	}
	if c.ControlCodeMaxDigits <= 0 {
		c.ControlCodeMaxDigits = DefaultControlCodeDigits
	}
	return c
}

// Strategy is the header-anchored text-line extractor.
type Strategy struct {
	cfg        Config
	terminator *regexp.Regexp
	logger     *slog.Logger
}

// New builds a text-line Strategy.
func New(cfg Config, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults(Name)
	return &Strategy{cfg: cfg, terminator: terminatorPattern(cfg.Terminators), logger: logger}
}

func (s *Strategy) Name() string { return s.cfg.Name }

// Extract implements strategy.Strategy.
func (s *Strategy) Extract(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
	lines := src.Lines
	if len(lines) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no text lines")
	}

	header := -1
	for i, line := range lines {
		if _, _, _, ok := identifiers.FindProductID(line); ok {
			continue
		}
		if isHeader(line) {
			header = i
			break
		}
	}
	if header < 0 {
		return nil, strategy.NoDataf(s.Name(), "no header line")
	}

	text := strings.Join(lines, "\n")
	taxID := taxIDFor(s.cfg.TaxIDPattern, text, lines[:header])
	order, _ := identifiers.ExtractOrderNumber(text)

	var items []entity.LineItem
	skipped := 0
	for i := header + 1; i < len(lines); i++ {
		if i%256 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		line := lines[i]
		id, _, end, ok := identifiers.FindProductID(line)
		if !ok {
			if s.terminated(line) {
				break
			}
			continue
		}
		w, ok := lastTwo(line[end:], s.cfg.ControlCodeMaxDigits)
		if !ok {
			skipped++
			continue
		}
		qty, _ := identifiers.ParseQuantity(w.Quantity)
		items = append(items, entity.LineItem{
			OrderNumber: order,
			TaxID:       taxID,
			ProductID:   id,
			Description: w.Description,
			Quantity:    qty,
			Price:       w.Price,
			Line:        i + 1,
		})
	}

	s.logger.Debug("textline.extracted", "file", src.Filename, "header_line", header+1, "items", len(items), "skipped", skipped)
	if len(items) == 0 {
		return nil, strategy.NoDataf(s.Name(), "no product line after header")
	}
	return items, nil
}

func (s *Strategy) terminated(line string) bool {
	return s.terminator != nil && s.terminator.MatchString(columns.FoldWord(line))
}

// taxIDFor tries the vendor pattern on the head of the text, then the lines
// above the header, then the whole text.
func taxIDFor(pattern *regexp.Regexp, text string, above []string) string {
	if pattern != nil {
		head := text
		if len(head) > taxIDHeadChars {
			head = head[:taxIDHeadChars]
		}
		if m := pattern.FindString(head); m != "" {
			if d := identifiers.DigitsOnly(m); len(d) == 14 {
				return d
			}
		}
	}
	if id := identifiers.PickTaxID(above...); id != "" {
		return id
	}
	return identifiers.PickTaxID(text)
}
