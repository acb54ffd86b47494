// Package identifiers holds the checksum-validated identifier extractors and
// the locale-aware value parsers shared by every extraction strategy.
package identifiers

import (
	"regexp"
	"strings"
)

var (
	reTaxIDBranch     = regexp.MustCompile(`(?i)Filial:\s+\d*\s*(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}|\d{8}/\d{4}-\d{2})`)
	reTaxIDPunctuated = regexp.MustCompile(`(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2})`)
	reTaxIDSlashed    = regexp.MustCompile(`(\d{8})[/\s]?(\d{4})-?(\d{2})`)
	reTaxIDBare       = regexp.MustCompile(`(?m)(?:^|\s)(\d{14})(?:\s|$)`)

	reTaxIDAllBranches = regexp.MustCompile(`(?i)Filial:\s+(\d{3})\s+(\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}|\d{8}/\d{4}-\d{2})`)
)

var (
	taxIDWeights1 = []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	taxIDWeights2 = []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
)

// ExtractTaxID searches text for a 14-digit tax id, trying a branch label,
// the punctuated form, the slash form and an isolated run, in that order.
// The result holds digits only. Runs of one repeated digit are skipped.
func ExtractTaxID(text string) (string, bool) {
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	for _, re := range []*regexp.Regexp{reTaxIDBranch, reTaxIDPunctuated, reTaxIDSlashed, reTaxIDBare} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			var digits string
			if len(m) == 4 {
				digits = m[1] + m[2] + m[3]
			} else {
				digits = DigitsOnly(m[1])
			}
			if len(digits) == 14 && !repeatedRun(digits) {
				return digits, true
			}
		}
	}
	return "", false
}

// ExtractAllTaxIDs maps branch codes to tax ids for documents that list
// several "Filial: 001 <cnpj>" labels.
func ExtractAllTaxIDs(text string) map[string]string {
	out := map[string]string{}
	for _, m := range reTaxIDAllBranches.FindAllStringSubmatch(text, -1) {
		digits := DigitsOnly(m[2])
		if len(digits) == 14 {
			out[m[1]] = digits
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// PickTaxID returns the first candidate across texts that passes the check
// digits, or the first candidate found at all when none validates.
func PickTaxID(texts ...string) string {
	var first string
	for _, t := range texts {
		id, ok := ExtractTaxID(t)
		if !ok {
			continue
		}
		if ValidateTaxID(id) {
			return id
		}
		if first == "" {
			first = id
		}
	}
	return first
}

// ValidateTaxID runs the modulo-11 dual check-digit formula.
func ValidateTaxID(digits string) bool {
	if len(digits) != 14 || !allDigits(digits) || repeatedRun(digits) {
		return false
	}
	if checkDigit(digits[:12], taxIDWeights1) != int(digits[12]-'0') {
		return false
	}
	return checkDigit(digits[:13], taxIDWeights2) == int(digits[13]-'0')
}

func checkDigit(digits string, weights []int) int {
	sum := 0
	for i := range weights {
		sum += int(digits[i]-'0') * weights[i]
	}
	r := sum % 11
	if r < 2 {
		return 0
	}
	return 11 - r
}

// LooksLikeTaxID reports whether a raw cell value is shaped like a tax id
// anchor: starts with a digit, is 11 to 15 characters long or punctuated,
// and strips to exactly 14 digits.
func LooksLikeTaxID(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == "" || s[0] < '0' || s[0] > '9' {
		return false
	}
	if !(len(s) >= 11 && len(s) <= 15) && !reTaxIDPunctuated.MatchString(s) {
		return false
	}
	return len(DigitsOnly(s)) == 14
}

// DigitsOnly drops every non-digit rune.
func DigitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func repeatedRun(s string) bool {
	return s != "" && strings.Count(s, s[:1]) == len(s)
}
