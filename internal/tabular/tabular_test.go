package tabular

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izabele-1801/agiliza-backend/constants"
	"github.com/izabele-1801/agiliza-backend/internal/assemble"
	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

func extract(t *testing.T, s strategy.Strategy, grid [][]string) ([]string, error) {
	t.Helper()
	items, err := s.Extract(context.Background(), &strategy.Source{Filename: "pedido.xlsx", Grid: grid})
	descs := make([]string, len(items))
	for i, it := range items {
		descs[i] = it.Description
	}
	return descs, err
}

func TestExtractWithMetadataAboveHeader(t *testing.T) {
	grid := [][]string{
		{"PEDIDO DE COMPRA", "", "", ""},
		{"Pedido:", "98765", "", ""},
		{"CNPJ:", "11.222.333/0001-81", "", ""},
		{"", "", "", ""},
		{"Código de Barras", "Descrição", "Qtde", "Preço Unit."},
		{"7891000261965", "LEITE EM PO INTEGRAL", "12", "34.99"},
		{"7896004000855.0", "SHAMPOO 400ML (12)", "3", "10,50"},
		{"", "", "", ""},
		{"", "TOTAL GERAL", "", "500"},
	}
	assert.Equal(t, 4, FindHeader(grid))

	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Grid: grid})
	require.NoError(t, err)
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "7891000261965", first.ProductID)
	assert.Equal(t, "LEITE EM PO INTEGRAL", first.Description)
	assert.Equal(t, 12, first.Quantity)
	assert.Equal(t, "34.99", first.Price)
	assert.Equal(t, "11222333000181", first.TaxID)
	assert.Equal(t, "98765", first.OrderNumber)
	assert.Equal(t, 6, first.Line)

	assert.Equal(t, "7896004000855", items[1].ProductID)
	assert.Equal(t, "SHAMPOO 400ML (12)", items[1].Description)
}

func TestExtractMultiSection(t *testing.T) {
	grid := [][]string{
		{"11222333000181", "LOJA CENTRO"},
		{},
		{"EAN", "Produto", "Qtde"},
		{"7891000100103", "ARROZ 5KG", "2"},
		{"28386809000112", "LOJA NORTE"},
		{},
		{"EAN", "Produto", "Qtde"},
		{"7891000100103", "ARROZ 5KG", "4"},
		{"7898159012349", "FEIJAO 1KG", "1"},
	}
	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Grid: grid})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "11222333000181", items[0].TaxID)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, "28386809000112", items[1].TaxID)
	assert.Equal(t, 4, items[1].Quantity)
	assert.Equal(t, "28386809000112", items[2].TaxID)
	assert.Equal(t, "FEIJAO 1KG", items[2].Description)
}

func TestPaddedProductIDIsNotAnAnchor(t *testing.T) {
	grid := [][]string{
		{"EAN", "Produto", "Qtde"},
		{"07891000100103", "ARROZ", "2"},
		{"07898159012349", "FEIJAO", "1"},
	}
	assert.Empty(t, findAnchors(grid))
	descs, err := extract(t, New(Config{}, nil), grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"ARROZ", "FEIJAO"}, descs)
}

func TestStrictFilter(t *testing.T) {
	grid := [][]string{
		{"Produto", "Qtde"},
		{"SABONETE", "3"},
		{"Produto Descrição", "Qtde"},
		{"Linha Higiene", ""},
		{"AB", "2"},
		{"Total do pedido", "5"},
		{"", ""},
	}
	descs, err := extract(t, New(Config{}, nil), grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"SABONETE"}, descs)
}

func TestLenientFallbackKeepsRawRows(t *testing.T) {
	grid := [][]string{
		{"Descrição", "Qtde"},
		{"XY", "0"},
		{"", ""},
	}
	descs, err := extract(t, New(Config{}, nil), grid)
	require.NoError(t, err)
	assert.Equal(t, []string{"XY"}, descs)
}

func TestPinnedLayout(t *testing.T) {
	header := 2
	cfg := Config{
		Name:         "vendor:LABOTRAT",
		HeaderRow:    &header,
		DataStartRow: 3,
		TaxIDCell:    &Cell{Row: 0, Col: 1},
		Columns: map[constants.Field]int{
			constants.FieldProductID:   0,
			constants.FieldDescription: 1,
			constants.FieldQuantity:    2,
			constants.FieldPrice:       3,
		},
	}
	grid := [][]string{
		{"Cliente", "19.526.317/0004-37"},
		{"", ""},
		{"a", "b", "c", "d"},
		{"7891100007500", "CREME 200G", "6", "8.9"},
	}
	s := New(cfg, nil)
	assert.Equal(t, "vendor:LABOTRAT", s.Name())
	items, err := s.Extract(context.Background(), &strategy.Source{Grid: grid})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "19526317000437", items[0].TaxID)
	assert.Equal(t, 6, items[0].Quantity)
	assert.Equal(t, "8.9", items[0].Price)
}

func TestTotalColumnPricesEffectiveUnits(t *testing.T) {
	grid := [][]string{
		{"EAN", "Descrição", "Qtde", "Valor Total"},
		{"7891000261965", "LEITE", "4", "10,00"},
		{"7896004000855", "SHAMPOO 400ML (12)", "3", "36,00"},
	}
	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Grid: grid})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "36,00", items[1].Total)
	assert.Empty(t, items[1].Price)

	recs, _ := assemble.New(assemble.DefaultOptions(), nil).AssembleAll(items)
	require.Len(t, recs, 2)
	require.NotNil(t, recs[0].UnitPrice)
	assert.InDelta(t, 2.5, *recs[0].UnitPrice, 1e-9)
	assert.Equal(t, 36, recs[1].Quantity)
	require.NotNil(t, recs[1].UnitPrice)
	assert.InDelta(t, 1.0, *recs[1].UnitPrice, 1e-9)
}

func TestNoKnownColumns(t *testing.T) {
	_, err := extract(t, New(Config{}, nil), [][]string{{"foo", "bar"}, {"1", "2"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrNoData))

	_, err = extract(t, New(Config{}, nil), nil)
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestCodeQuantity(t *testing.T) {
	grid := [][]string{{"CODE", "QTY"}, {"123456", "5"}}
	items, err := CodeQuantity{}.Extract(context.Background(), &strategy.Source{Grid: grid})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "123456", items[0].ProductID)
	assert.Equal(t, "Produto 123456", items[0].Description)
	assert.Equal(t, 5, items[0].Quantity)

	_, err = CodeQuantity{}.Extract(context.Background(), &strategy.Source{Grid: [][]string{{"a", "b", "c"}}})
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestIDCell(t *testing.T) {
	assert.Equal(t, "7891000261965", idCell("7891000261965.0"))
	assert.Equal(t, "7891000261965", idCell("7.891000261965E+12"))
	assert.Equal(t, "12.50", idCell("12.50"))
	assert.Equal(t, "ESCOVA", idCell(" ESCOVA "))
}

func TestFindHeaderDefaultsToFirstRow(t *testing.T) {
	assert.Equal(t, 0, FindHeader([][]string{{"a"}, {"b"}}))
}
