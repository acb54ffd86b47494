package export

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
)

func ptr(f float64) *float64 { return &f }

var records = []entity.CanonicalRecord{
	{
		OrderNumber: "98765", TaxID: "11222333000181", ProductID: "7891000261965",
		Description: "LEITE EM PO INTEGRAL", Quantity: 12, BaseQuantity: 12, Multiplier: 1,
		UnitPrice: ptr(34.99),
	},
	{
		TaxID: "11222333000181", ProductID: "7896004000855",
		Description: "SHAMPOO 400ML", Quantity: 36, BaseQuantity: 3, Multiplier: 12,
		Total: ptr(36), TotalKind: "units",
	},
}

func readRows(t *testing.T, data []byte, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.Equal(t, []string{sheet}, f.GetSheetList())
	rows, err := f.GetRows(sheet)
	require.NoError(t, err)
	return rows
}

func TestParseMode(t *testing.T) {
	tests := map[string]Mode{
		"winthor":   ModeWinthor,
		"PLANILHA":  ModePlanilha,
		" planilha": ModePlanilha,
		"":          ModeWinthor,
		"csv":       ModeWinthor,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseMode(in), in)
	}
}

func TestWriteWinthor(t *testing.T) {
	s := NewService(common.ExportConfig{}, nil)
	data, err := s.WriteXLSX(context.Background(), records, ModeWinthor)
	require.NoError(t, err)

	rows := readRows(t, data, "Pedido")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"PEDIDO", "CODCLI", "CNPJ", "EAN", "DESCRICAO", "QTDE", "TOTAL"}, rows[0])
	assert.Equal(t, []string{"98765", "", "11222333000181", "7891000261965", "LEITE EM PO INTEGRAL", "12"}, rows[1])
	assert.Equal(t, []string{"", "", "11222333000181", "7896004000855", "SHAMPOO 400ML", "3", "36"}, rows[2])
}

func TestWritePlanilha(t *testing.T) {
	s := NewService(common.ExportConfig{SheetName: "Itens"}, nil)
	data, err := s.WriteXLSX(context.Background(), records, ModePlanilha)
	require.NoError(t, err)

	rows := readRows(t, data, "Itens")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"PEDIDO", "CODCLI", "CNPJ", "EAN", "DESCRICAO", "QTDE", "PREÇO UNIT.", "TOTAL LIQ"}, rows[0])
	assert.Equal(t, "12", rows[1][5])
	assert.Equal(t, "34.99", rows[1][6])
	assert.Equal(t, "419.88", rows[1][7])
	assert.Equal(t, "36", rows[2][5])
	assert.Len(t, rows[2], 6, "no price, no totals")
}

func TestWriteEmpty(t *testing.T) {
	s := NewService(common.ExportConfig{}, nil)
	data, err := s.WriteXLSX(context.Background(), nil, ModeWinthor)
	require.NoError(t, err)
	assert.Len(t, readRows(t, data, "Pedido"), 1)
}

func TestWriteCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewService(common.ExportConfig{}, nil).WriteXLSX(ctx, records, ModeWinthor)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilename(t *testing.T) {
	s := NewService(common.ExportConfig{}, nil)
	s.now = func() time.Time { return time.Date(2025, 3, 7, 15, 0, 0, 0, time.UTC) }
	assert.Equal(t, "AgilizaConverter07.03.2025.xlsx", s.Filename())

	s = NewService(common.ExportConfig{FilenamePrefix: "Pedidos"}, nil)
	s.now = func() time.Time { return time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC) }
	assert.Equal(t, "Pedidos31.12.2025.xlsx", s.Filename())
}
