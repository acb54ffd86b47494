package sheet

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	"github.com/izabele-1801/agiliza-backend/internal/common"
)

// ReadHTML turns the rows of every <table> in an HTML export into one grid,
// in document order. colspan is expanded with empty cells so columns line
// up with the header.
func ReadHTML(content []byte) (Grid, error) {
	doc, err := html.Parse(bytes.NewReader([]byte(DecodeText(content))))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing HTML: %v", common.ErrMalformed, err)
	}
	var grid Grid
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			grid = append(grid, rowCells(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if len(grid) == 0 {
		return nil, fmt.Errorf("%w: no table rows in HTML export", common.ErrMalformed)
	}
	return grid, nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		cells = append(cells, textContent(c))
		for i := 1; i < span(c); i++ {
			cells = append(cells, "")
		}
	}
	return cells
}

func span(n *html.Node) int {
	for _, a := range n.Attr {
		if a.Key != "colspan" {
			continue
		}
		var v int
		if _, err := fmt.Sscanf(a.Val, "%d", &v); err == nil && v > 1 && v < 100 {
			return v
		}
	}
	return 1
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.TextNode:
			b.WriteString(n.Data)
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		case n.Type == html.ElementNode && n.Data == "br":
			b.WriteString(" ")
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
