package sheet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

func workbook(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	first := true
	for name, rows := range sheets {
		if first {
			require.NoError(t, f.SetSheetName("Sheet1", name))
			first = false
		} else {
			_, err := f.NewSheet(name)
			require.NoError(t, err)
		}
		for r, row := range rows {
			for c, v := range row {
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(name, cell, v))
			}
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadWorkbook(t *testing.T) {
	data := workbook(t, map[string][][]any{
		"Pedido": {
			{"EAN", "DESCRICAO", "QTDE", "PRECO"},
			{"7891000261965", "LEITE EM PO", 12, "34,99"},
		},
	})
	grid, err := Read(data, "xlsx", "")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, []string{"EAN", "DESCRICAO", "QTDE", "PRECO"}, grid[0])
	assert.Equal(t, "7891000261965", grid[1][0])
	assert.Equal(t, "12", grid[1][2])
}

func TestReadSelectsSheet(t *testing.T) {
	f := excelize.NewFile()
	_, err := f.NewSheet("Itens")
	require.NoError(t, err)
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "capa"))
	require.NoError(t, f.SetCellValue("Itens", "A1", "itens"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	grid, err := Read(buf.Bytes(), "xlsx", "itens")
	require.NoError(t, err)
	assert.Equal(t, "itens", grid[0][0])

	grid, err = Read(buf.Bytes(), "xlsx", "missing")
	require.NoError(t, err)
	assert.Equal(t, "capa", grid[0][0], "unknown sheet falls back to the first")
}

func TestReadXLSFallbacks(t *testing.T) {
	html := []byte(`<html><body><table>
		<tr><th>Código</th><th colspan="2">Descrição</th><th>Qtd</th></tr>
		<tr><td>7891000261965</td><td>LEITE</td><td>EM PO</td><td>12</td></tr>
	</table></body></html>`)
	grid, err := Read(html, "xls", "")
	require.NoError(t, err)
	require.Len(t, grid, 2)
	assert.Equal(t, []string{"Código", "Descrição", "", "Qtd"}, grid[0])
	assert.Equal(t, "7891000261965", grid[1][0])

	tsv := []byte("EAN\tDESCRICAO\tQTDE\n7891000261965\tLEITE\t12\n")
	grid, err = Read(tsv, "xls", "")
	require.NoError(t, err)
	assert.Equal(t, []string{"7891000261965", "LEITE", "12"}, grid[1])

	biff := append([]byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}, make([]byte, 64)...)
	_, err = Read(biff, "xls", "")
	assert.ErrorIs(t, err, common.ErrUnsupportedFormat)
}

func TestReadMalformed(t *testing.T) {
	_, err := Read(nil, "xlsx", "")
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = Read([]byte("not a zip"), "xlsx", "")
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = Read([]byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05}, "xls", "")
	assert.ErrorIs(t, err, common.ErrMalformed)
}

func TestReadDelimited(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"semicolon", "a;b;c\n1;2;3\n", []string{"1", "2", "3"}},
		{"comma with quotes", "a,b\n\"LEITE, INTEGRAL\",3\n", []string{"LEITE, INTEGRAL", "3"}},
		{"pipe", "a|b\r\n1|2\r\n", []string{"1", "2"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			grid, err := ReadDelimited(tt.text)
			require.NoError(t, err)
			require.Len(t, grid, 2)
			assert.Equal(t, tt.want, grid[1])
		})
	}

	_, err := ReadDelimited("just one column\nand another")
	assert.ErrorIs(t, err, common.ErrMalformed)
}

func TestGridLines(t *testing.T) {
	g := Grid{
		{"", "7891000261965", " LEITE ", "", "12"},
		{"", ""},
		{"CNPJ:", "11.222.333/0001-81"},
	}
	assert.Equal(t, []string{"7891000261965 LEITE 12", "CNPJ: 11.222.333/0001-81"}, g.Lines())
}

func TestDecodeText(t *testing.T) {
	tests := []struct {
		name string
		in   []byte
		want string
	}{
		{"utf8", []byte("Açúcar"), "Açúcar"},
		{"utf8 bom", append([]byte{0xEF, 0xBB, 0xBF}, []byte("Açúcar")...), "Açúcar"},
		{"windows-1252", []byte{'A', 0xE7, 0xFA, 'c', 'a', 'r'}, "Açúcar"},
		{"utf16le bom", []byte{0xFF, 0xFE, 'O', 0, 'K', 0}, "OK"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DecodeText(tt.in))
		})
	}
}

func TestNormalizeText(t *testing.T) {
	in := "PEDIDO 4521\r\n\tCNPJ   11.222.333/0001-81  \r\n-----\r\n\r\n\r\n\r\n7891000261965  LEITE\t12  \n"
	want := "PEDIDO 4521\n CNPJ 11.222.333/0001-81\n\n7891000261965 LEITE 12"
	assert.Equal(t, want, NormalizeText(in))
	assert.Equal(t, "", NormalizeText(""))
}

func TestTextLines(t *testing.T) {
	lines := TextLines([]byte("  PEDIDO 4521 \r\n\r\n7891000261965 LEITE 12 34,99\r\n"))
	assert.Equal(t, []string{"PEDIDO 4521", "7891000261965 LEITE 12 34,99"}, lines)
	assert.Nil(t, TextLines([]byte("   \n\n")))
}
