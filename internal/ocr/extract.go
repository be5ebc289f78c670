package ocr

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ExtractText walks merged HTML in document order and renders headings,
// paragraphs, lists and tables into plain text, formatting tables as
// spec.md §4.4 describes: a 【表格内容】 header, a pipe-joined header
// row, then semicolon-joined "header：cell" pairs per data row,
// terminated by 【表格结束】.
func ExtractText(mergedHTML string) string {
	doc, err := html.Parse(strings.NewReader(mergedHTML))
	if err != nil {
		return ""
	}

	var b strings.Builder
	walk(doc, &b)
	return strings.TrimSpace(b.String())
}

func walk(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6", "p", "li":
			text := strings.TrimSpace(textContent(n))
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
			return
		case "table":
			renderTable(n, b)
			return
		case "script", "style":
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, b)
	}
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(n)
	return b.String()
}

func renderTable(table *html.Node, b *strings.Builder) {
	rows := tableRows(table)
	if len(rows) == 0 {
		return
	}

	headers := rowCells(rows[0])

	b.WriteString("【表格内容】\n")
	b.WriteString(strings.Join(headers, "|"))
	b.WriteString("\n")

	for _, row := range rows[1:] {
		cells := rowCells(row)
		var pairs []string
		for i, cell := range cells {
			header := "列" + strconv.Itoa(i+1)
			if i < len(headers) {
				header = headers[i]
			}
			pairs = append(pairs, header+"："+cell)
		}
		b.WriteString(strings.Join(pairs, ";"))
		b.WriteString("\n")
	}
	b.WriteString("【表格结束】\n")
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	rec(table)
	return rows
}

func rowCells(row *html.Node) []string {
	var cells []string
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.TrimSpace(textContent(c)))
		}
	}
	return cells
}

