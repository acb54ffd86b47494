//go:build ocr

package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// gosseractEngine wraps an in-process Tesseract client. The client is not
// safe for concurrent use; the Handle semaphore serialises calls.
type gosseractEngine struct {
	client *gosseract.Client
}

func newGosseract(cfg Config) (Engine, error) {
	client := gosseract.NewClient()
	if cfg.TessdataDir != "" {
		if err := client.SetTessdataPrefix(cfg.TessdataDir); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("set tessdata: %w", err)
		}
	}
	if err := client.SetLanguage(strings.Split(cfg.Lang, "+")...); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PageSegMode(cfg.PSM)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("set page segmentation: %w", err)
	}
	return &gosseractEngine{client: client}, nil
}

func (g *gosseractEngine) Name() string { return EngineGosseract }

func (g *gosseractEngine) Close() error { return g.client.Close() }

func (g *gosseractEngine) Recognize(ctx context.Context, image []byte) (entity.Page, error) {
	if err := ctx.Err(); err != nil {
		return entity.Page{}, err
	}
	if err := g.client.SetImageFromBytes(image); err != nil {
		return entity.Page{}, fmt.Errorf("set image: %w", err)
	}
	boxes, err := g.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return entity.Page{}, fmt.Errorf("bounding boxes: %w", err)
	}
	page := entity.Page{Unit: entity.UnitPixel, Detections: make([]entity.Detection, 0, len(boxes))}
	for _, b := range boxes {
		text := strings.TrimSpace(b.Word)
		if text == "" {
			continue
		}
		page.Detections = append(page.Detections, entity.Detection{
			Text:       text,
			MinX:       float64(b.Box.Min.X),
			MinY:       float64(b.Box.Min.Y),
			MaxX:       float64(b.Box.Max.X),
			MaxY:       float64(b.Box.Max.Y),
			Confidence: b.Confidence / 100,
		})
	}
	return page, nil
}
