package tabular

import (
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/columns"
	"github.com/izabele-1801/agiliza-backend/internal/identifiers"
)

// MetadataWindow is how many rows above the header are searched.
const MetadataWindow = 10

// Cell addresses one grid cell, zero-based.
type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// Metadata is the document-level context found around the table.
type Metadata struct {
	TaxID       string
	OrderNumber string
}

// findMetadata reads the tax id and order number above the header row. A
// pinned cell wins over the search.
func findMetadata(grid [][]string, header int, pinned *Cell) Metadata {
	var md Metadata
	if pinned != nil && pinned.Row < len(grid) {
		md.TaxID = taxIDFromCell(cell(grid[pinned.Row], pinned.Col))
	}

	from := max(0, header-MetadataWindow)
	var texts []string
	for r := from; r < header && r < len(grid); r++ {
		row := grid[r]
		for c, v := range row {
			v = strings.TrimSpace(v)
			if v == "" {
				continue
			}
			texts = append(texts, v)
			if md.OrderNumber == "" && strings.Contains(columns.Fold(v), "PEDIDO") {
				if n := nextNumber(row, c); n != "" {
					md.OrderNumber = n
				}
			}
		}
	}
	if md.TaxID == "" {
		md.TaxID = identifiers.PickTaxID(texts...)
	}
	if md.TaxID == "" {
		for _, t := range texts {
			if identifiers.LooksLikeTaxID(t) {
				md.TaxID = identifiers.DigitsOnly(t)
				break
			}
		}
	}
	if md.OrderNumber == "" {
		md.OrderNumber, _ = identifiers.ExtractOrderNumber(strings.Join(texts, "\n"))
	}
	return md
}

// nextNumber returns the first all-digit cell right of column c.
func nextNumber(row []string, c int) string {
	for i := c + 1; i < len(row); i++ {
		v := idCell(row[i])
		if v == "" {
			continue
		}
		if identifiers.IsInteger(v) {
			return v
		}
		return ""
	}
	return ""
}

func taxIDFromCell(v string) string {
	if id, ok := identifiers.ExtractTaxID(v); ok {
		return id
	}
	if d := identifiers.DigitsOnly(idCell(v)); len(d) >= 14 {
		return d[:14]
	}
	return ""
}
