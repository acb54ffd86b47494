package ocr

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

// ImageInfo is what a header probe reveals about an image payload.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// Probe decodes only the image header. Payloads that are not a supported
// image report common.ErrMalformed.
func Probe(data []byte) (ImageInfo, error) {
	if len(data) == 0 {
		return ImageInfo{}, fmt.Errorf("%w: empty image", common.ErrMalformed)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return ImageInfo{}, fmt.Errorf("%w: %v", common.ErrMalformed, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, fmt.Errorf("%w: image has no area", common.ErrMalformed)
	}
	return ImageInfo{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}
