package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

type textLine struct {
	x, y float64
	text string
}

// buildPDF writes a one-page PDF with Helvetica text lines and a correct
// cross-reference table.
func buildPDF(t *testing.T, lines []textLine) []byte {
	t.Helper()
	var content strings.Builder
	for _, l := range lines {
		fmt.Fprintf(&content, "BT /F1 12 Tf %.0f %.0f Td (%s) Tj ET\n", l.x, l.y, l.text)
	}
	widths := make([]string, 95)
	for i := range widths {
		widths[i] = "500"
	}
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 595 842] /Contents 4 0 R /Resources << /Font << /F1 5 0 R >> >> >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /FirstChar 32 /LastChar 126 /Widths [" +
			strings.Join(widths, " ") + "] >>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}
	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(objects)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestReadTextPDF(t *testing.T) {
	data := buildPDF(t, []textLine{
		{50, 700, "7891000261965 LEITE EM PO"},
		{50, 680, "CNPJ 11.222.333/0001-81"},
	})
	doc, err := NewReader(nil).Read(context.Background(), data)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.PageCount)
	assert.False(t, doc.Scanned())
	require.Len(t, doc.Pages, 1)

	page := doc.Pages[0]
	assert.Equal(t, 1, page.Number)
	assert.InDelta(t, 595, page.Width, 0.01)
	assert.InDelta(t, 842, page.Height, 0.01)

	var texts []string
	for _, d := range page.Detections {
		texts = append(texts, d.Text)
	}
	assert.Equal(t, []string{"7891000261965", "LEITE", "EM", "PO", "CNPJ", "11.222.333/0001-81"}, texts)

	first := page.Detections[0]
	assert.InDelta(t, 50, first.MinX, 0.5)
	assert.InDelta(t, 842-700, first.MaxY, 0.5)
	assert.Greater(t, page.Detections[4].MinY, first.MinY, "second line sits lower on the page")
}

func TestReadBlankPDF(t *testing.T) {
	doc, err := NewReader(nil).Read(context.Background(), buildPDF(t, nil))
	require.NoError(t, err)
	assert.True(t, doc.Scanned())
	assert.Equal(t, []int{1}, doc.Blank)
	assert.Zero(t, doc.Words())
}

func TestReadMalformed(t *testing.T) {
	r := NewReader(nil)
	_, err := r.Read(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = r.Read(context.Background(), []byte("hello, not a pdf"))
	assert.ErrorIs(t, err, common.ErrMalformed)

	_, err = PageCount([]byte("%PDF-1.4\ngarbage"))
	assert.ErrorIs(t, err, common.ErrMalformed)
}

func TestWords(t *testing.T) {
	glyph := func(s string, x, y float64) pdf.Text {
		return pdf.Text{S: s, X: x, Y: y, W: 6, FontSize: 10}
	}
	texts := []pdf.Text{
		glyph("1", 50, 700), glyph("2", 56, 700), glyph(" ", 62, 700),
		glyph("U", 68, 700), glyph("N", 74, 700),
		glyph("3", 120, 700), glyph("4", 126, 700), glyph(",", 132, 700), glyph("9", 138, 700),
		glyph("X", 50, 680),
	}
	words := Words(texts, 800)
	require.Len(t, words, 4)

	assert.Equal(t, "12", words[0].Text)
	assert.Equal(t, 50.0, words[0].MinX)
	assert.Equal(t, 62.0, words[0].MaxX)
	assert.Equal(t, 90.0, words[0].MinY)
	assert.Equal(t, 100.0, words[0].MaxY)
	assert.Equal(t, 1.0, words[0].Confidence)

	assert.Equal(t, "UN", words[1].Text, "split on space glyph")
	assert.Equal(t, "34,9", words[2].Text, "split on horizontal gap")
	assert.Equal(t, "X", words[3].Text, "split on baseline change")
	assert.Equal(t, 110.0, words[3].MinY)
}
