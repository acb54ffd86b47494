package identifiers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractOrderNumber(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		want   string
		wantOK bool
	}{
		{"numero pedido", "Número Pedido: 085786", "085786", true},
		{"upper", "NUMERO PEDIDO 4512", "4512", true},
		{"nr", "NR. PEDIDO: 991", "991", true},
		{"n degree", "N° PEDIDO 77", "77", true},
		{"plain", "Pedido: 12345", "12345", true},
		{"plain start of line", "cliente x\nPEDIDO.  321", "321", true},
		{"label without digits", "Pedido: ABC", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractOrderNumber(tt.text)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
