package multiplier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantDesc string
		wantMult int
	}{
		{"parentheses", "SHAMPOO 400ML (12)", "SHAMPOO 400ML", 12},
		{"parentheses with spaces", "SABONETE ( 6 )  ", "SABONETE", 6},
		{"brackets", "CREME DENTAL [24]", "CREME DENTAL", 24},
		{"lower x", "FRALDA G x8", "FRALDA G", 8},
		{"upper x glued to digit", "LENCO 1X10", "LENCO 1", 10},
		{"un", "ABSORVENTE 16un", "ABSORVENTE", 16},
		{"unidades", "ESCOVA 3 unidades", "ESCOVA", 3},
		{"one is neutral", "DESODORANTE (1)", "DESODORANTE", 1},
		{"zero is neutral", "DESODORANTE [0]", "DESODORANTE", 1},
		{"no suffix", "LEITE EM PO INTEGRAL", "LEITE EM PO INTEGRAL", 1},
		{"middle marker ignored", "KIT (2) ESCOVAS", "KIT (2) ESCOVAS", 1},
		{"x inside a word ignored", "PROTETOR MAX 3", "PROTETOR MAX 3", 1},
		{"outer marker wins", "AGUA 12UN (6)", "AGUA", 6},
		{"inner count dropped", "FRALDA G 30UN (4)", "FRALDA G", 4},
		{"oversized count kept", "CODIGO (123456)", "CODIGO (123456)", 1},
		{"empty", "", "", 1},
		{"only marker", "(12)", "", 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, mult := Split(tt.in)
			assert.Equal(t, tt.wantDesc, desc)
			assert.Equal(t, tt.wantMult, mult)
		})
	}
}

func TestSplitIsIdempotent(t *testing.T) {
	inputs := []string{
		"SHAMPOO 400ML (12)",
		"AGUA 12UN (6)",
		"FRALDA G x8",
		"CAIXA 2 X 3 [4]",
		"ESCOVA 3 unidades",
		"PROTETOR MAX 3",
		"CODIGO (123456)",
		"LEITE",
		"",
	}
	for _, in := range inputs {
		clean, _ := Split(in)
		again, mult := Split(clean)
		assert.Equal(t, clean, again, in)
		assert.Equal(t, 1, mult, in)
	}
}
