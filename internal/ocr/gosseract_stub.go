//go:build !ocr

package ocr

import "errors"

// ErrGosseractNotBuilt is returned when the gosseract engine is selected but
// the binary was built without the "ocr" tag. Rebuild with -tags ocr, or use
// the tesseract engine.
var ErrGosseractNotBuilt = errors.New("gosseract engine not built; rebuild with -tags ocr")

func newGosseract(Config) (Engine, error) {
	return nil, ErrGosseractNotBuilt
}
