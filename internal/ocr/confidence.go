package ocr

import "github.com/izabele-1801/agiliza-backend/internal/entity"

// MeanConfidence is the average word confidence of a page, 0..1. Pages
// without words report 0.
func MeanConfidence(page entity.Page) float64 {
	if len(page.Detections) == 0 {
		return 0
	}
	var sum float64
	for _, d := range page.Detections {
		sum += d.Confidence
	}
	return sum / float64(len(page.Detections))
}
