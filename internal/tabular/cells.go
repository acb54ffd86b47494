package tabular

import (
	"strconv"
	"strings"
)

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func emptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func nonEmptyCells(row []string) int {
	n := 0
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			n++
		}
	}
	return n
}

// width is the index of the last non-empty column plus one, over all rows.
func width(grid [][]string) int {
	w := 0
	for _, row := range grid {
		for i := len(row) - 1; i >= w; i-- {
			if strings.TrimSpace(row[i]) != "" {
				w = i + 1
				break
			}
		}
	}
	return w
}

// idCell renders a numeric identifier cell without float artefacts:
// "7891000261965.0" and "7.891000261965E+12" both become "7891000261965".
func idCell(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "eE") {
		if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 1 {
			return strconv.FormatFloat(f, 'f', 0, 64)
		}
		return s
	}
	if i := strings.IndexByte(s, '.'); i > 0 && strings.Trim(s[i+1:], "0") == "" {
		return s[:i]
	}
	return s
}
