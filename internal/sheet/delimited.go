package sheet

import (
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

// delimiters in order of preference when counts tie.
var delimiters = []rune{'\t', ';', ',', '|'}

// ReadDelimited parses tab, semicolon, comma or pipe separated text. The
// delimiter is the candidate that appears on most of the first lines.
func ReadDelimited(text string) (Grid, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	delim := sniffDelimiter(text)
	if delim == 0 {
		return nil, fmt.Errorf("%w: no column delimiter found", common.ErrMalformed)
	}
	r := csv.NewReader(strings.NewReader(text))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: delimited text: %v", common.ErrMalformed, err)
	}
	return Grid(rows), nil
}

func sniffDelimiter(text string) rune {
	lines := strings.SplitN(text, "\n", 21)
	var best rune
	bestScore := 0
	for _, d := range delimiters {
		score := 0
		for _, l := range lines {
			if strings.ContainsRune(l, d) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = d, score
		}
	}
	return best
}
