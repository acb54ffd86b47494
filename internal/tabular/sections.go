package tabular

import (
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
)

// anchor is a row whose first cell is a tax id opening a section.
type anchor struct {
	row   int
	taxID string
}

// findAnchors lists the tax id anchor rows. A padded product id in the first
// column is not an anchor.
func findAnchors(grid [][]string) []anchor {
	var out []anchor
	for r, row := range grid {
		first := idCell(cell(row, 0))
		if !identifiers.LooksLikeTaxID(first) {
			continue
		}
		digits := identifiers.DigitsOnly(first)
		if identifiers.ValidateProductID(identifiers.NormalizeProductID(digits)) && !identifiers.ValidateTaxID(digits) {
			continue
		}
		out = append(out, anchor{row: r, taxID: digits[:14]})
	}
	return out
}

// extractSections runs the table reader once per anchor. The section header
// is searched in the three rows below the anchor, defaulting to anchor+2.
func (s *Strategy) extractSections(grid [][]string, anchors []anchor) []entity.LineItem {
	var items []entity.LineItem
	for i, a := range anchors {
		end := len(grid)
		if i+1 < len(anchors) {
			end = anchors[i+1].row
		}
		header := -1
		for r := a.row + 1; r < min(a.row+4, end); r++ {
			if headerCells(grid[r], sectionVocabulary) > 0 {
				header = r
				break
			}
		}
		if header < 0 {
			header = a.row + 2
		}
		if header >= end {
			continue
		}
		idx := s.columnIndex(grid[header])
		if len(idx) == 0 {
			continue
		}
		items = append(items, s.rows(grid, header+1, end, idx, Metadata{TaxID: a.taxID})...)
	}
	return items
}
