// Package assemble turns intermediate line items into canonical records. It
// is the single place where record rules are enforced.
package assemble

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
	"github.com/izabele-1801/agiliza-backend/internal/multiplier"
)

// MaxDescriptionLen is the description cap, in runes.
const MaxDescriptionLen = 255

// DefaultMaxQuantity bounds the effective quantity after the multiplier.
const DefaultMaxQuantity = 999999

// TotalSemantics tells what a TOTAL value means for a vendor.
type TotalSemantics string

const (
	TotalNone   TotalSemantics = "none"
	TotalUnits  TotalSemantics = "units"  // effective unit count, quantity × multiplier
	TotalAmount TotalSemantics = "amount" // money, quantity × unit price
)

// Reject reasons, as counted in Stats.
const (
	ReasonEmptyDescription = "empty_description"
	ReasonBadQuantity      = "bad_quantity"
	ReasonInvalidProductID = "invalid_product_id"
)

// Options drive one assembler run.
type Options struct {
	// Strict drops records whose product id fails the checksum and blanks
	// invalid tax ids. Lenient keeps both with the valid flag unset.
	Strict          bool
	ApplyMultiplier bool
	TotalSemantics  TotalSemantics
	MaxQuantity     int
	Source          string
	File            string
}

// DefaultOptions is the strict generic contract.
func DefaultOptions() Options {
	return Options{
		Strict:          true,
		ApplyMultiplier: true,
		TotalSemantics:  TotalNone,
		MaxQuantity:     DefaultMaxQuantity,
	}
}

// Stats counts what happened to the items of one run.
type Stats struct {
	In       int            `json:"in"`
	Out      int            `json:"out"`
	Rejected map[string]int `json:"rejected,omitempty"`
}

func (s *Stats) reject(reason string) {
	if s.Rejected == nil {
		s.Rejected = map[string]int{}
	}
	s.Rejected[reason]++
}

// Assembler is stateless apart from its options and is safe for concurrent use.
type Assembler struct {
	opts   Options
	logger *slog.Logger
}

// New builds an Assembler. Zero MaxQuantity and empty TotalSemantics take defaults.
func New(opts Options, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.MaxQuantity <= 0 {
		opts.MaxQuantity = DefaultMaxQuantity
	}
	if opts.TotalSemantics == "" {
		opts.TotalSemantics = TotalNone
	}
	return &Assembler{opts: opts, logger: logger}
}

// Options returns the options in effect.
func (a *Assembler) Options() Options {
	return a.opts
}

// Assemble validates and normalizes one item. It returns the reject reason
// when no record can be built.
func (a *Assembler) Assemble(item entity.LineItem) (entity.CanonicalRecord, string, bool) {
	desc, mult := item.Description, 1
	if a.opts.ApplyMultiplier {
		desc, mult = multiplier.Split(desc)
	}

	if item.Quantity <= 0 {
		return entity.CanonicalRecord{}, ReasonBadQuantity, false
	}
	qty := item.Quantity * mult
	if qty > a.opts.MaxQuantity || qty/mult != item.Quantity {
		return entity.CanonicalRecord{}, ReasonBadQuantity, false
	}

	rec := entity.CanonicalRecord{
		OrderNumber:  strings.TrimSpace(item.OrderNumber),
		Quantity:     qty,
		BaseQuantity: item.Quantity,
		Multiplier:   mult,
		Source:       a.opts.Source,
		File:         a.opts.File,
	}

	// A line total without a unit price is spread over the effective
	// quantity, after the multiplier.
	total := identifiers.NormalizePrice(item.Total)
	p := identifiers.NormalizePrice(item.Price)
	if p <= 0 && total > 0 {
		p = total / float64(qty)
	}
	if p > 0 {
		p = identifiers.Round2(p)
		rec.UnitPrice = &p
	}

	if raw := strings.TrimSpace(item.ProductID); raw != "" {
		id := raw
		if d := identifiers.NormalizeProductID(raw); len(d) == 13 {
			id = d
		}
		rec.ProductIDValid = identifiers.ValidateProductID(id)
		if !rec.ProductIDValid && a.opts.Strict {
			return entity.CanonicalRecord{}, ReasonInvalidProductID, false
		}
		rec.ProductID = id
	}

	rec.Description = CleanDescription(desc)
	if rec.Description == "" {
		return entity.CanonicalRecord{}, ReasonEmptyDescription, false
	}

	if tax := identifiers.DigitsOnly(item.TaxID); tax != "" {
		rec.TaxIDValid = identifiers.ValidateTaxID(tax)
		if rec.TaxIDValid || !a.opts.Strict {
			rec.TaxID = tax
		}
	}

	a.setTotal(&rec, total)
	return rec, "", true
}

// setTotal fills TOTAL per the vendor semantics. A money total read from the
// document is kept as is; it already covers every pack.
func (a *Assembler) setTotal(rec *entity.CanonicalRecord, raw float64) {
	switch a.opts.TotalSemantics {
	case TotalUnits:
		t := float64(rec.Quantity)
		rec.Total, rec.TotalKind = &t, string(TotalUnits)
	case TotalAmount:
		t := raw
		if t <= 0 && rec.UnitPrice != nil {
			t = float64(rec.Quantity) * *rec.UnitPrice
		}
		if t > 0 {
			t = identifiers.Round2(t)
			rec.Total, rec.TotalKind = &t, string(TotalAmount)
		}
	}
}

// AssembleAll runs Assemble over items and keeps the accepted records in order.
func (a *Assembler) AssembleAll(items []entity.LineItem) ([]entity.CanonicalRecord, Stats) {
	stats := Stats{In: len(items)}
	out := make([]entity.CanonicalRecord, 0, len(items))
	for _, it := range items {
		rec, reason, ok := a.Assemble(it)
		if !ok {
			stats.reject(reason)
			a.logger.Debug("assemble.item.rejected",
				"reason", reason, "line", it.Line, "product_id", it.ProductID, "source", a.opts.Source)
			continue
		}
		out = append(out, rec)
	}
	stats.Out = len(out)
	return out, stats
}

// CleanDescription collapses whitespace and caps the length.
func CleanDescription(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= MaxDescriptionLen {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:MaxDescriptionLen]))
}
