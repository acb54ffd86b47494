package pipeline

import (
	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/assemble"
	"github.com/izabele-1801/agiliza-backend/internal/columns"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
	"github.com/izabele-1801/agiliza-backend/internal/tabular"
	"github.com/izabele-1801/agiliza-backend/internal/textline"
	"github.com/izabele-1801/agiliza-backend/internal/vendor"
)

// chainBuilder collects steps, pairing each strategy with an assembler
// configured for it.
type chainBuilder struct {
	p     *Processor
	file  string
	steps []strategy.Step
}

func (b *chainBuilder) add(s strategy.Strategy, opts assemble.Options) {
	opts.Source = s.Name()
	opts.File = b.file
	b.steps = append(b.steps, strategy.Step{Strategy: s, Assembler: assemble.New(opts, b.p.Logger)})
}

// steps builds the ordered fallback chain for a document. Vendor steps,
// when the profile carries any, come first and use the vendor's
// strictness. Generic steps follow and are always strict; they inherit the
// vendor's multiplier and total settings, which describe the documents
// rather than the strategy.
func (p *Processor) steps(doc entity.RawDocument, prof *vendor.Profile) []strategy.Step {
	b := &chainBuilder{p: p, file: doc.Filename}
	vendorOpts := prof.AssembleOptions(p.cfg.MaxQuantity)
	genericOpts := vendorOpts
	genericOpts.Strict = true
	lenientOpts := genericOpts
	lenientOpts.Strict = false

	floor := p.cfg.SimilarityFloor
	genericTabular := tabular.New(tabular.Config{Mapper: columns.New(columns.WithFloor(floor))}, p.Logger)
	textLine := textline.New(textline.Config{}, p.Logger)
	scan := textline.NewScan(textline.Config{}, false, p.Logger)
	specialized := prof.Specialized()

	switch doc.Kind {
	case constants.TABULAR:
		if cfg, ok := prof.TabularConfig(floor); ok && specialized {
			b.add(tabular.New(cfg, p.Logger), vendorOpts)
			if prof.Tabular.SimpleCodeQuantity {
				codeOpts := vendorOpts
				codeOpts.Strict = false
				b.add(tabular.CodeQuantity{}, codeOpts)
			}
		}
		b.add(genericTabular, genericOpts)
		b.add(tabular.CodeQuantity{}, lenientOpts)
		b.add(scan, genericOpts)
		b.looseScan(prof, vendorOpts)

	case constants.TEXT:
		if cfg, ok := prof.TextConfig(); ok && specialized {
			b.add(textline.New(cfg, p.Logger), vendorOpts)
		}
		b.add(textLine, genericOpts)
		b.add(scan, genericOpts)
		b.add(genericTabular, genericOpts)
		b.looseScan(prof, vendorOpts)

	case constants.PDF:
		if cfg, ok := prof.TextConfig(); ok && specialized {
			b.add(textline.New(cfg, p.Logger), vendorOpts)
		}
		if cfg, ok := prof.LayoutConfig(); ok && specialized {
			b.add(layout.New(cfg, p.Logger), vendorOpts)
		}
		b.add(layout.New(layout.Config{}, p.Logger), genericOpts)
		b.add(textLine, genericOpts)
		b.add(scan, genericOpts)
		if p.ocr.Enabled() {
			stage := newOCRStage(p.ocr, doc.Content, p.cfg.RowTolerancePx)
			b.add(layout.New(layout.Config{Name: layout.Name + ":ocr", Pages: stage.Pages}, p.Logger), genericOpts)
			b.add(stage.Text(textLine), genericOpts)
			b.add(stage.Text(scan), genericOpts)
		}

	case constants.IMAGE:
		tol := p.cfg.RowTolerancePx
		if cfg, ok := prof.LayoutConfig(); ok && specialized {
			if cfg.Tolerance <= 0 {
				cfg.Tolerance = tol
			}
			b.add(layout.New(cfg, p.Logger), vendorOpts)
		}
		b.add(layout.New(layout.Config{Tolerance: tol}, p.Logger), genericOpts)
		b.add(textLine, genericOpts)
		b.add(textline.NewStacked(nil, p.Logger), genericOpts)
		b.add(scan, genericOpts)
	}
	return b.steps
}

// looseScan closes the chain of lenient vendors with a scan that accepts
// ids failing the checksum.
func (b *chainBuilder) looseScan(prof *vendor.Profile, opts assemble.Options) {
	if !prof.Specialized() || prof.Strictness != vendor.Lenient {
		return
	}
	cfg := textline.Config{Name: prof.StrategyName() + ":" + textline.ScanName}
	b.add(textline.NewScan(cfg, true, b.p.Logger), opts)
}
