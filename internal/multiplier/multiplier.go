// Package multiplier strips trailing pack-size markers from product descriptions.
package multiplier

import (
	"regexp"
	"strconv"
	"strings"
)

// MaxFactor bounds a single marker. Larger numbers are read as part of the
// description (a code or a weight), not as a pack size.
const MaxFactor = 9999

// suffix patterns in priority order. Group 1 is the marker to cut, group 2 its count.
var suffixes = []*regexp.Regexp{
	regexp.MustCompile(`(\(\s*(\d+)\s*\))\s*$`),
	regexp.MustCompile(`(\[\s*(\d+)\s*\])\s*$`),
	regexp.MustCompile(`(?:^|[^\p{L}])([xX]\s*(\d+))\s*$`),
	regexp.MustCompile(`(?i)((\d+)\s*un(?:idades)?)\s*$`),
}

// Split returns the description without its pack-size suffix and the
// multiplier the suffix encodes. The outermost marker sets the multiplier;
// markers left under it ("30UN (4)") are stripped without counting, so the
// clean output never carries a marker and Split(clean) returns (clean, 1).
// A count of 0 or 1 gives 1.
func Split(description string) (string, int) {
	clean, mult, ok := cut(description)
	if !ok {
		return description, 1
	}
	if mult < 1 {
		mult = 1
	}
	for ok {
		var next string
		if next, _, ok = cut(clean); ok {
			clean = next
		}
	}
	return clean, mult
}

func cut(s string) (string, int, bool) {
	for _, re := range suffixes {
		loc := re.FindStringSubmatchIndex(s)
		if loc == nil {
			continue
		}
		n, err := strconv.Atoi(s[loc[4]:loc[5]])
		if err != nil || n > MaxFactor {
			continue
		}
		return strings.TrimSpace(s[:loc[2]]), n, true
	}
	return s, 0, false
}
