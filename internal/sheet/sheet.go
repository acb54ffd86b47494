// Package sheet decodes tabular and plain-text payloads into the cell grids
// and text lines the extraction strategies read.
package sheet

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

// ErrBinaryWorkbook is returned for legacy BIFF .xls workbooks, which no
// reader in the stack can open.
var ErrBinaryWorkbook = errors.New("binary .xls workbook (BIFF); save it as .xlsx")

// oleMagic opens every OLE2 compound file, BIFF workbooks included.
var oleMagic = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}

// Grid is a worksheet in row-major order. Rows may have different lengths.
type Grid [][]string

// Read decodes a workbook payload into the grid of one worksheet. name
// selects the sheet; empty or unknown names fall back to the first sheet.
//
// .xls files are often something else under the extension: xlsx packages,
// HTML tables or delimited text exported by ERPs. Those are tried in that
// order.
func Read(content []byte, ext, name string) (Grid, error) {
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: empty workbook", common.ErrMalformed)
	}
	grid, err := readWorkbook(content, name)
	if err == nil {
		return grid, nil
	}
	if ext != "xls" {
		return nil, fmt.Errorf("%w: xlsx: %v", common.ErrMalformed, err)
	}

	switch {
	case bytes.HasPrefix(content, oleMagic):
		return nil, fmt.Errorf("%w: %v", common.ErrUnsupportedFormat, ErrBinaryWorkbook)
	case looksLikeHTML(content):
		return ReadHTML(content)
	default:
		text := DecodeText(content)
		if !printable(text) {
			return nil, fmt.Errorf("%w: xls: %v", common.ErrMalformed, err)
		}
		return ReadDelimited(text)
	}
}

func readWorkbook(content []byte, name string) (Grid, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content), excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	target := sheets[0]
	if name != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, name) {
				target = s
				break
			}
		}
	}
	rows, err := f.GetRows(target, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("rows of %q: %w", target, err)
	}
	return Grid(rows), nil
}

// Lines renders every non-empty row as one line, cells joined by a single
// space, for the text strategies that run over tabular sources.
func (g Grid) Lines() []string {
	out := make([]string, 0, len(g))
	for _, row := range g {
		cells := make([]string, 0, len(row))
		for _, c := range row {
			if c = strings.TrimSpace(c); c != "" {
				cells = append(cells, c)
			}
		}
		if len(cells) > 0 {
			out = append(out, strings.Join(cells, " "))
		}
	}
	return out
}

func looksLikeHTML(content []byte) bool {
	head := content
	if len(head) > 2048 {
		head = head[:2048]
	}
	head = bytes.ToLower(head)
	return bytes.Contains(head, []byte("<table")) || bytes.Contains(head, []byte("<html"))
}

// printable reports whether text is mostly letters, digits, punctuation
// and whitespace.
func printable(text string) bool {
	if text == "" {
		return false
	}
	var bad, total int
	for _, r := range text {
		total++
		if r == '�' || (r < 0x20 && r != '\n' && r != '\r' && r != '\t') {
			bad++
		}
	}
	return bad*20 < total
}
