package identifiers

import (
	"regexp"
)

var productIDLabeled = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Código\s+de\s+Barras\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Codigo\s+de\s+Barras\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Código\s+Barras\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Codigo\s+Barras\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)CodBarra\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Cod\s+Barra\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Ref\.?\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Referência\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Referencia\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)EAN\s*:?\s*(\d{13})`),
	regexp.MustCompile(`(?i)Barras\s*:?\s*(\d{13})`),
	regexp.MustCompile(`:(\d{13})\s`),
}

var reDigitRun = regexp.MustCompile(`\d+`)

// ExtractProductID searches text for a checksum-valid 13-digit product id.
// Labeled variants win over a bare whitespace-bounded run. A 14-digit run
// with a leading zero is read as a padded 13-digit id.
func ExtractProductID(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range productIDLabeled {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if ValidateProductID(m[1]) {
				return m[1], true
			}
		}
	}
	for _, loc := range reDigitRun.FindAllStringIndex(text, -1) {
		if loc[1]-loc[0] != 13 || !spaceBounded(text, loc[0], loc[1]) {
			continue
		}
		if id := text[loc[0]:loc[1]]; ValidateProductID(id) {
			return id, true
		}
	}
	if id, _, _, ok := FindProductID(text); ok {
		return id, true
	}
	return "", false
}

// FindProductID locates the first digit run in line that is a valid product
// id, either 13 digits or 14 digits with a leading zero. start and end are
// the byte offsets of the whole run.
func FindProductID(line string) (id string, start, end int, ok bool) {
	for _, loc := range reDigitRun.FindAllStringIndex(line, -1) {
		run := line[loc[0]:loc[1]]
		switch {
		case len(run) == 13 && ValidateProductID(run):
			return run, loc[0], loc[1], true
		case len(run) == 14 && run[0] == '0' && ValidateProductID(run[1:]):
			return run[1:], loc[0], loc[1], true
		}
	}
	return "", 0, 0, false
}

// FindProductIDLoose is FindProductID without the checksum, for strategies
// that pass unvalidated ids through.
func FindProductIDLoose(line string) (id string, start, end int, ok bool) {
	if id, s, e, ok := FindProductID(line); ok {
		return id, s, e, true
	}
	for _, loc := range reDigitRun.FindAllStringIndex(line, -1) {
		run := line[loc[0]:loc[1]]
		if len(run) == 13 && !repeatedRun(run) {
			return run, loc[0], loc[1], true
		}
	}
	return "", 0, 0, false
}

// ValidateProductID runs the EAN-13 alternating 1/3 weight checksum.
func ValidateProductID(ean string) bool {
	if len(ean) != 13 || !allDigits(ean) || repeatedRun(ean) {
		return false
	}
	sum := 0
	for i := 0; i < 12; i++ {
		w := 1
		if i%2 == 1 {
			w = 3
		}
		sum += int(ean[i]-'0') * w
	}
	return (10-sum%10)%10 == int(ean[12]-'0')
}

// NormalizeProductID strips punctuation and a leading padding zero from a
// 14-digit value. It does not validate.
func NormalizeProductID(raw string) string {
	d := DigitsOnly(raw)
	if len(d) == 14 && d[0] == '0' {
		return d[1:]
	}
	return d
}

func spaceBounded(s string, start, end int) bool {
	if start > 0 && !isSpace(s[start-1]) {
		return false
	}
	if end < len(s) && !isSpace(s[end]) {
		return false
	}
	return true
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r' || b == '\f' || b == '\v'
}
