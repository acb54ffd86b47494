package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  bool
	}{
		{"valid", "11222333000181", true},
		{"valid second", "28386809000112", true},
		{"valid third", "60546090000142", true},
		{"wrong first digit", "11222333000191", false},
		{"wrong second digit", "11222333000182", false},
		{"repeated run", "00000000000000", false},
		{"repeated ones", "11111111111111", false},
		{"short", "1122233300018", false},
		{"letters", "1122233300018a", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateTaxID(tt.input))
		})
	}
}

func TestExtractTaxID(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"branch label punctuated", "Filial: 001 28.386.809/0001-12 UF: MG", "28386809000112", true},
		{"branch label slashed", "Filial: 28386809/0001-12", "28386809000112", true},
		{"branch beats earlier punctuated", "CNPJ 11.222.333/0001-81\nFilial: 002 28386809/0001-12", "28386809000112", true},
		{"punctuated", "CNPJ: 11.222.333/0001-81", "11222333000181", true},
		{"slashed", "cliente 11222333/0001-81", "11222333000181", true},
		{"space separated", "11222333 0001-81", "11222333000181", true},
		{"bare digits", "loja 11222333000181 centro", "11222333000181", true},
		{"repeated run skipped", "00000000000000", "", false},
		{"nothing", "pedido sem documento", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractTaxID(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractAllTaxIDs(t *testing.T) {
	text := "Filial: 001 28.386.809/0001-12\nitens...\nFilial: 002 11222333/0001-81"
	got := ExtractAllTaxIDs(text)
	require.Len(t, got, 2)
	assert.Equal(t, "28386809000112", got["001"])
	assert.Equal(t, "11222333000181", got["002"])

	assert.Nil(t, ExtractAllTaxIDs("sem filial"))
}

func TestPickTaxIDPrefersValid(t *testing.T) {
	got := PickTaxID("12345678/0001-00", "CNPJ 11.222.333/0001-81")
	assert.Equal(t, "11222333000181", got)

	got = PickTaxID("12345678/0001-00")
	assert.Equal(t, "12345678000100", got)

	assert.Empty(t, PickTaxID("nada", ""))
}

func TestLooksLikeTaxID(t *testing.T) {
	assert.True(t, LooksLikeTaxID("11222333000181"))
	assert.True(t, LooksLikeTaxID("11.222.333/0001-81"))
	assert.True(t, LooksLikeTaxID(" 11222333/000181 "))
	assert.False(t, LooksLikeTaxID("CNPJ 11222333000181"))
	assert.False(t, LooksLikeTaxID("7891000261965"))
	assert.False(t, LooksLikeTaxID(""))
}
