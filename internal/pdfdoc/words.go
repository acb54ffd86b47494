package pdfdoc

import (
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// Glyph runs further apart than wordGap font sizes start a new word;
// baselines further apart than lineShift font sizes start a new line.
const (
	wordGap   = 0.2
	lineShift = 0.4
)

// Words joins glyph runs, in content-stream order, into words. Coordinates
// are flipped so that Y grows downwards like image pixels.
func Words(texts []pdf.Text, pageHeight float64) []entity.Detection {
	var out []entity.Detection
	var cur strings.Builder
	var minX, maxX, baseline, size float64

	flush := func() {
		text := strings.TrimSpace(cur.String())
		cur.Reset()
		if text == "" {
			return
		}
		out = append(out, entity.Detection{
			Text:       text,
			MinX:       minX,
			MaxX:       maxX,
			MinY:       pageHeight - baseline - size,
			MaxY:       pageHeight - baseline,
			Confidence: 1,
		})
	}

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		fs := t.FontSize
		if fs <= 0 {
			fs = 10
		}
		if isSpace(t.S) {
			flush()
			continue
		}
		if cur.Len() > 0 {
			sameLine := math.Abs(t.Y-baseline) <= lineShift*math.Max(fs, size)
			adjacent := t.X >= maxX-fs*0.5 && t.X-maxX <= wordGap*fs
			if !sameLine || !adjacent {
				flush()
			}
		}
		if cur.Len() == 0 {
			minX, baseline, size = t.X, t.Y, fs
		}
		cur.WriteString(t.S)
		w := t.W
		if w <= 0 {
			w = 0.5 * fs * float64(len([]rune(t.S)))
		}
		maxX = t.X + w
		if fs > size {
			size = fs
		}
	}
	flush()
	return out
}

func isSpace(s string) bool {
	for _, r := range s {
		if !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}
