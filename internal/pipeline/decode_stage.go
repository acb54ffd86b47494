package pipeline

import (
	"context"
	"fmt"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/sheet"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
	"github.com/izabele-1801/agiliza-backend/internal/vendor"
)

// decode builds the Source every strategy of the chain reads.
func (p *Processor) decode(ctx context.Context, doc entity.RawDocument, prof *vendor.Profile) (*strategy.Source, error) {
	src := &strategy.Source{Filename: doc.Filename}

	switch doc.Kind {
	case constants.TABULAR:
		name := ""
		if prof.Tabular != nil {
			name = prof.Tabular.Sheet
		}
		grid, err := sheet.Read(doc.Content, doc.FileExt, name)
		if err != nil {
			return nil, err
		}
		src.Grid = grid
		src.Lines = grid.Lines()

	case constants.TEXT:
		src.Lines = sheet.TextLines(doc.Content)
		if len(src.Lines) == 0 {
			return nil, fmt.Errorf("%w: text file has no content", common.ErrMalformed)
		}
		// Delimited dumps also get a grid for the tabular fallback.
		if grid, err := sheet.ReadDelimited(sheet.DecodeText(doc.Content)); err == nil {
			src.Grid = grid
		}

	case constants.PDF:
		pdf, err := p.pdf.Read(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		src.Pages = pdf.Pages
		src.Lines = layout.RowsText(pdf.Pages, 0)
		if pdf.Scanned() {
			p.Logger.Info("processor.pdf.scanned", "file", doc.Filename, "pages", pdf.PageCount, "ocr", p.ocr.Enabled())
		}

	case constants.IMAGE:
		if !p.ocr.Enabled() {
			return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, ocr.ErrDisabled)
		}
		page, err := p.ocr.Recognize(ctx, doc.Content)
		if err != nil {
			return nil, err
		}
		page.Number = 1
		src.Pages = []entity.Page{page}
		src.Lines = layout.RowsText(src.Pages, p.cfg.RowTolerancePx)
		p.Logger.Debug("processor.ocr.ok",
			"file", doc.Filename,
			"words", len(page.Detections),
			"lines", len(src.Lines),
			"confidence", ocr.MeanConfidence(page),
		)

	default:
		return nil, fmt.Errorf("%w: kind %q", common.ErrUnsupportedFormat, doc.Kind)
	}
	return src, nil
}
