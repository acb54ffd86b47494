package pipeline

import (
	"context"
	"sync"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/layout"
	"github.com/izabele-1801/agiliza-backend/internal/ocr"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

// OCRStage rasterizes a PDF and recognizes its pages at most once per
// document, however many steps of the chain ask for them.
type OCRStage struct {
	handle  *ocr.Handle
	content []byte
	tol     float64

	once  sync.Once
	pages []entity.Page
	err   error
}

func newOCRStage(h *ocr.Handle, content []byte, tol float64) *OCRStage {
	return &OCRStage{handle: h, content: content, tol: tol}
}

// Pages returns the recognized pages. A failure is reported as NoData so
// the chain keeps going.
func (s *OCRStage) Pages(ctx context.Context, _ *strategy.Source) ([]entity.Page, error) {
	s.once.Do(func() {
		s.pages, s.err = s.handle.RecognizePDF(ctx, s.content)
	})
	if s.err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, strategy.NoDataf("ocr", "pdf ocr failed: %v", s.err)
	}
	return s.pages, nil
}

// Text wraps a line-based strategy so that it runs over the rows of the
// recognized pages.
func (s *OCRStage) Text(inner strategy.Strategy) strategy.Strategy {
	return strategy.Func{
		ID: inner.Name() + ":ocr",
		Fn: func(ctx context.Context, src *strategy.Source) ([]entity.LineItem, error) {
			pages, err := s.Pages(ctx, src)
			if err != nil {
				return nil, err
			}
			return inner.Extract(ctx, &strategy.Source{
				Filename: src.Filename,
				Lines:    layout.RowsText(pages, s.tol),
				Pages:    pages,
			})
		},
	}
}
