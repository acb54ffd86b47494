// Package pdfdoc reads text PDFs into positioned words. Scanned pages come
// back empty and are left to OCR.
package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// Document is the decoded view of one PDF.
type Document struct {
	PageCount int
	// Pages holds the pages that carry text, in page order.
	Pages []entity.Page
	// Blank lists the 1-based numbers of pages without any glyph.
	Blank []int
}

// Scanned reports whether no page carries extractable text.
func (d *Document) Scanned() bool {
	return len(d.Pages) == 0
}

// Words counts the words over all pages.
func (d *Document) Words() int {
	n := 0
	for _, p := range d.Pages {
		n += len(p.Detections)
	}
	return n
}

// Reader parses PDF payloads.
type Reader struct {
	logger *slog.Logger
}

// NewReader builds a Reader.
func NewReader(logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{logger: logger}
}

// PageCount validates the payload in relaxed mode and returns its page count.
func PageCount(content []byte) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	n, err := api.PageCount(bytes.NewReader(content), conf)
	if err != nil {
		return 0, fmt.Errorf("%w: pdf: %v", common.ErrMalformed, err)
	}
	return n, nil
}

// Read decodes every page into words. A payload pdfcpu rejects is still
// given to the glyph reader; it is malformed only when both fail.
func (r *Reader) Read(ctx context.Context, content []byte) (*Document, error) {
	start := time.Now()
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty pdf", common.ErrMalformed)
	}
	count, verr := PageCount(content)
	if verr != nil {
		r.logger.Warn("pdfdoc.validate.failed", "error", verr)
	}

	pr, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if verr != nil {
			return nil, verr
		}
		return nil, fmt.Errorf("%w: pdf: %v", common.ErrMalformed, err)
	}

	doc := &Document{PageCount: pr.NumPage()}
	if count > 0 && count != doc.PageCount {
		r.logger.Debug("pdfdoc.page_count.mismatch", "pdfcpu", count, "reader", doc.PageCount)
	}
	for i := 1; i <= doc.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := readPage(pr.Page(i), i)
		if err != nil {
			r.logger.Warn("pdfdoc.page.failed", "page", i, "error", err)
			doc.Blank = append(doc.Blank, i)
			continue
		}
		if len(page.Detections) == 0 {
			doc.Blank = append(doc.Blank, i)
			continue
		}
		doc.Pages = append(doc.Pages, page)
	}

	r.logger.Debug("pdfdoc.read.ok",
		"pages", doc.PageCount,
		"text_pages", len(doc.Pages),
		"words", doc.Words(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return doc, nil
}

// readPage recovers from the panics the glyph reader raises on broken
// content streams.
func readPage(p pdf.Page, number int) (page entity.Page, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("content stream: %v", rec)
		}
	}()
	page = entity.Page{Number: number, Unit: entity.UnitPoint}
	if p.V.IsNull() {
		return page, nil
	}
	width, height := mediaBox(p)
	texts := p.Content().Text
	if height <= 0 {
		height = topOf(texts)
	}
	page.Width, page.Height = width, height
	page.Detections = Words(texts, height)
	return page, nil
}

// mediaBox returns the page size in points, zero when absent.
func mediaBox(p pdf.Page) (float64, float64) {
	box := p.V.Key("MediaBox")
	if box.Len() < 4 {
		return 0, 0
	}
	x0, y0 := box.Index(0).Float64(), box.Index(1).Float64()
	x1, y1 := box.Index(2).Float64(), box.Index(3).Float64()
	return x1 - x0, y1 - y0
}

func topOf(texts []pdf.Text) float64 {
	top := 0.0
	for _, t := range texts {
		if y := t.Y + t.FontSize; y > top {
			top = y
		}
	}
	return top
}
