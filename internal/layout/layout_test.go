package layout

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izabele-1801/agiliza-backend/internal/common"
	"github.com/izabele-1801/agiliza-backend/internal/entity"
	"github.com/izabele-1801/agiliza-backend/internal/strategy"
)

func det(text string, x, y float64) entity.Detection {
	return entity.Detection{
		Text:       text,
		MinX:       x,
		MaxX:       x + float64(len(text))*10,
		MinY:       y - 10,
		MaxY:       y + 10,
		Confidence: 0.9,
	}
}

func TestBucketPairProperties(t *testing.T) {
	const tol = 25.0
	for delta := 0.0; delta < tol; delta += 0.5 {
		rows := Bucket([]entity.Detection{det("a", 0, 100), det("b", 50, 100+delta)}, tol)
		assert.Len(t, rows, 1, "delta %v", delta)
	}
	for delta := 2*tol + 0.5; delta < 300; delta += 7 {
		rows := Bucket([]entity.Detection{det("a", 0, 100), det("b", 50, 100+delta)}, tol)
		assert.Len(t, rows, 2, "delta %v", delta)
	}
}

func TestBucketCapsRowSpan(t *testing.T) {
	const tol = 25.0
	dets := []entity.Detection{det("a", 0, 0), det("b", 0, 20), det("c", 0, 40), det("d", 0, 60), det("e", 0, 80)}
	rows := Bucket(dets, tol)
	for _, r := range rows {
		lo, hi := r.Detections[0].MidY(), r.Detections[0].MidY()
		for _, d := range r.Detections {
			lo, hi = min(lo, d.MidY()), max(hi, d.MidY())
		}
		assert.LessOrEqual(t, hi-lo, 2*tol)
	}
	assert.Len(t, rows, 2)
}

func TestBucketOrdersByX(t *testing.T) {
	rows := Bucket([]entity.Detection{det("right", 500, 10), det("left", 5, 12), det("", 100, 10)}, 25)
	require.Len(t, rows, 1)
	assert.Equal(t, "left right", rows[0].Text())
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want Role
	}{
		{"12,34", RoleMoney},
		{"12.34", RoleMoney},
		{"1.234,56", RoleMoney},
		{"R$ 5,00", RoleMoney},
		{"7891000261965", RoleProductID},
		{"EAN:7891000261965", RoleProductID},
		{"12", RoleQuantity},
		{"9999", RoleQuantity},
		{"10000", RoleDescription},
		{"0", RoleDescription},
		{"Televendas", RoleBrand},
		{"GAMA", RoleBrand},
		{"11.222.333/0001-81", RoleOther},
		{"|", RoleOther},
		{"SHAMPOO", RoleDescription},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.text, DefaultBrandMarkers), tt.text)
	}
}

func orderPage() entity.Page {
	return entity.Page{
		Number: 1,
		Width:  1200,
		Unit:   entity.UnitPixel,
		Detections: []entity.Detection{
			det("CNPJ:", 10, 40), det("11.222.333/0001-81", 80, 40), det("Pedido", 600, 40), det("12345", 700, 40),

			det("LEITE", 10, 100), det("EM", 80, 100), det("PO", 120, 100), det("INTEGRAL", 160, 100),
			det("34,99", 700, 100), det("Gama", 800, 100), det("12", 1000, 100), det("7891000261965", 1080, 100),

			det("SHAMPOO", 10, 150), det("400ML", 100, 150), det("(12)", 170, 150), det("10,50", 700, 150),
			det("7896004000855", 1080, 185),

			det("SABONETE", 10, 250), det("7891000100103", 1080, 250),
		},
	}
}

func TestExtractPage(t *testing.T) {
	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Pages: []entity.Page{orderPage()}})
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "7891000261965", items[0].ProductID)
	assert.Equal(t, "LEITE EM PO INTEGRAL", items[0].Description)
	assert.Equal(t, 12, items[0].Quantity)
	assert.InDelta(t, 34.99, items[0].Price.(float64), 1e-9)
	assert.Equal(t, "11222333000181", items[0].TaxID)
	assert.Equal(t, "12345", items[0].OrderNumber)

	assert.Equal(t, "7896004000855", items[1].ProductID)
	assert.Equal(t, "SHAMPOO 400ML (12)", items[1].Description)
	assert.Equal(t, 1, items[1].Quantity)
	assert.InDelta(t, 10.5, items[1].Price.(float64), 1e-9)
	assert.Equal(t, "11222333000181", items[1].TaxID)
}

func TestTaxIDFromLaterPageAppliesToAllPages(t *testing.T) {
	first := entity.Page{Width: 1200, Detections: []entity.Detection{
		det("LEITE", 10, 100), det("34,99", 700, 100), det("7891000261965", 1080, 100),
	}}
	second := entity.Page{Width: 1200, Detections: []entity.Detection{
		det("CNPJ:", 10, 40), det("11.222.333/0001-81", 80, 40),
		det("CAFE", 10, 100), det("15,50", 700, 100), det("7891000100103", 1080, 100),
	}}

	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Pages: []entity.Page{first, second}})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "7891000261965", items[0].ProductID)
	assert.Equal(t, "11222333000181", items[0].TaxID)
	assert.Equal(t, "7891000100103", items[1].ProductID)
	assert.Equal(t, "11222333000181", items[1].TaxID)
}

func TestQuantityOutsideWindowIgnored(t *testing.T) {
	page := entity.Page{Width: 1200, Detections: []entity.Detection{
		det("CREME", 10, 100), det("3", 900, 100), det("8,90", 700, 100), det("7891100007500", 1080, 100),
	}}
	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Pages: []entity.Page{page}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 1, items[0].Quantity)

	items, err = New(Config{Quantity: &Window{Min: 0.7, Max: 0.8}}, nil).
		Extract(context.Background(), &strategy.Source{Pages: []entity.Page{page}})
	require.NoError(t, err)
	assert.Equal(t, 3, items[0].Quantity)
}

func TestPointUnitsUseTighterRows(t *testing.T) {
	page := entity.Page{Width: 600, Unit: entity.UnitPoint, Detections: []entity.Detection{
		{Text: "DETERGENTE", MinX: 20, MaxX: 90, MinY: 100, MaxY: 108},
		{Text: "2,49", MinX: 400, MaxX: 420, MinY: 101, MaxY: 109},
		{Text: "6", MinX: 450, MaxX: 455, MinY: 100, MaxY: 108},
		{Text: "7898159012349", MinX: 500, MaxX: 580, MinY: 100, MaxY: 108},
		{Text: "AMACIANTE", MinX: 20, MaxX: 90, MinY: 112, MaxY: 120},
	}}
	items, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{Pages: []entity.Page{page}})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "DETERGENTE", items[0].Description)
	assert.Equal(t, 6, items[0].Quantity)
}

func TestExtractNoData(t *testing.T) {
	_, err := New(Config{}, nil).Extract(context.Background(), &strategy.Source{})
	assert.True(t, errors.Is(err, common.ErrNoData))

	page := entity.Page{Width: 1200, Detections: []entity.Detection{det("SEM", 10, 10), det("CODIGO", 60, 10)}}
	_, err = New(Config{}, nil).Extract(context.Background(), &strategy.Source{Pages: []entity.Page{page}})
	assert.True(t, errors.Is(err, common.ErrNoData))
}

func TestPagesHook(t *testing.T) {
	calls := 0
	s := New(Config{Name: "layout-ocr", Pages: func(context.Context, *strategy.Source) ([]entity.Page, error) {
		calls++
		return []entity.Page{orderPage()}, nil
	}}, nil)
	items, err := s.Extract(context.Background(), &strategy.Source{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, "layout-ocr", s.Name())
}

func TestRowsText(t *testing.T) {
	lines := RowsText([]entity.Page{orderPage()}, 0)
	require.Len(t, lines, 5)
	assert.Equal(t, "LEITE EM PO INTEGRAL 34,99 Gama 12 7891000261965", lines[1])
}
