package layout

import (
	"sort"

	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

// VisualRow is a set of detections printed on the same line, ordered by MinX.
type VisualRow struct {
	Y          float64 // mean vertical midpoint
	Detections []entity.Detection
}

// Bucket groups detections into visual rows. Detections are taken in
// vertical order; one joins the current row while its midpoint is less than
// tol below the previous one and no more than 2*tol below the row's first.
// Two detections more than 2*tol apart never share a row.
func Bucket(dets []entity.Detection, tol float64) []VisualRow {
	if len(dets) == 0 {
		return nil
	}
	if tol <= 0 {
		tol = DefaultPixelTolerance
	}
	sorted := make([]entity.Detection, 0, len(dets))
	for _, d := range dets {
		if d.Text != "" {
			sorted = append(sorted, d)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MidY() < sorted[j].MidY() })

	var rows []VisualRow
	var cur []entity.Detection
	var first, last float64
	flush := func() {
		if len(cur) == 0 {
			return
		}
		sort.SliceStable(cur, func(i, j int) bool { return cur[i].MinX < cur[j].MinX })
		sum := 0.0
		for _, d := range cur {
			sum += d.MidY()
		}
		rows = append(rows, VisualRow{Y: sum / float64(len(cur)), Detections: cur})
		cur = nil
	}
	for _, d := range sorted {
		mid := d.MidY()
		if len(cur) > 0 && (mid-last >= tol || mid-first > 2*tol) {
			flush()
		}
		if len(cur) == 0 {
			first = mid
		}
		cur = append(cur, d)
		last = mid
	}
	flush()
	return rows
}

// Text joins the row's tokens with single spaces.
func (r VisualRow) Text() string {
	n := 0
	for _, d := range r.Detections {
		n += len(d.Text) + 1
	}
	b := make([]byte, 0, n)
	for i, d := range r.Detections {
		if i > 0 {
			b = append(b, ' ')
		}
		b = append(b, d.Text...)
	}
	return string(b)
}

// RowsText renders pages as text lines, one per visual row, for the
// text-based fallbacks.
func RowsText(pages []entity.Page, tol float64) []string {
	var lines []string
	for _, p := range pages {
		for _, r := range Bucket(p.Detections, toleranceFor(p, tol)) {
			lines = append(lines, r.Text())
		}
	}
	return lines
}
