package format

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const maxUnwrapPasses = 10

var layoutHints = []string{"main", "layout", "wrapper", "container"}

// UnwrapLayoutTables replaces single-column tables used for visual layout
// with the content of their cells. Data tables are kept.
func UnwrapLayoutTables(src string) string {
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return src
	}

	for range maxUnwrapPasses {
		if !unwrapPass(doc) {
			break
		}
	}

	var b strings.Builder
	if err := html.Render(&b, doc); err != nil {
		return src
	}
	return b.String()
}

// unwrapPass works bottom-up so inner tables are resolved first.
func unwrapPass(n *html.Node) bool {
	changed := false
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if unwrapPass(c) {
			changed = true
		}
		c = next
	}

	if n.Type == html.ElementNode && n.DataAtom == atom.Table && isLayoutTable(n) {
		replaceWithCells(n)
		return true
	}
	return changed
}

type tableShape struct {
	headers    bool
	maxCols    int
	rowCells   []int
	filledRows int
}

func (s tableShape) uniform() bool {
	if len(s.rowCells) < 2 {
		return false
	}
	for _, n := range s.rowCells[1:] {
		if n != s.rowCells[0] {
			return false
		}
	}
	return true
}

func shapeOf(table *html.Node) tableShape {
	var s tableShape
	for _, row := range rows(table) {
		cells := 0
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Th:
				s.headers = true
				cells++
			case atom.Td:
				cells++
			}
		}
		s.rowCells = append(s.rowCells, cells)
		s.maxCols = max(s.maxCols, cells)
		if hasText(row) {
			s.filledRows++
		}
	}
	if findChild(table, atom.Thead) != nil {
		s.headers = true
	}
	return s
}

func isLayoutTable(table *html.Node) bool {
	s := shapeOf(table)
	if s.headers || s.maxCols > 1 {
		return false
	}
	if hasLayoutHint(table) {
		return true
	}
	return !(s.filledRows > 5 && s.uniform())
}

func hasLayoutHint(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "id" && a.Key != "class" {
			continue
		}
		v := strings.ToLower(a.Val)
		for _, hint := range layoutHints {
			if strings.Contains(v, hint) {
				return true
			}
		}
	}
	return false
}

// rows returns the tr elements of table, not descending into nested tables.
func rows(table *html.Node) []*html.Node {
	var out []*html.Node
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.Table:
			case atom.Tr:
				out = append(out, c)
			default:
				visit(c)
			}
		}
	}
	visit(table)
	return out
}

func findChild(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
	}
	return nil
}

func hasText(n *html.Node) bool {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data) != ""
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Img {
		return true
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if hasText(c) {
			return true
		}
	}
	return false
}

// replaceWithCells moves every cell's children in front of table, one line per
// row, then drops the table.
func replaceWithCells(table *html.Node) {
	parent := table.Parent
	if parent == nil {
		return
	}

	for _, row := range rows(table) {
		moved := false
		for cell := row.FirstChild; cell != nil; cell = cell.NextSibling {
			if cell.Type != html.ElementNode || (cell.DataAtom != atom.Td && cell.DataAtom != atom.Th) {
				continue
			}

			var kids []*html.Node
			for k := cell.FirstChild; k != nil; k = k.NextSibling {
				kids = append(kids, k)
			}
			for _, k := range kids {
				cell.RemoveChild(k)
				if k.Type == html.TextNode && strings.TrimSpace(k.Data) == "" {
					continue
				}
				parent.InsertBefore(k, table)
				moved = true
			}
		}
		if moved {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: "\n"}, table)
		}
	}

	parent.RemoveChild(table)
}
