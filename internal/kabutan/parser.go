package kabutan

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// maxColspan is the largest span honored, the same clamp browsers apply.
const maxColspan = 1000

// Table is a parsed HTML table: a header row and rectangular data rows.
type Table struct {
	Header []string
	Rows   [][]string
}

// Columns is the width of the table, the widest of the header and the data rows.
func (t Table) Columns() int {
	n := len(t.Header)
	for _, r := range t.Rows {
		if len(r) > n {
			n = len(r)
		}
	}
	return n
}

// ParseTable parses the first <table> in markup.
//
// Rows inside <thead> and leading rows made only of <th> cells form the header; the last
// such row wins. Every other row is data. Cells are the trimmed
// text of <th> and <td> children, colspan repeats a cell, and short rows are padded with
// empty strings so every row has Columns() cells.
func ParseTable(markup string) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Table{}, fmt.Errorf("%w: failed to parse HTML: %w", ErrStructuralMismatch, err)
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return Table{}, fmt.Errorf("%w: no table in markup", ErrStructuralMismatch)
	}
	root := table.Get(0)

	var t Table
	table.Find("tr").Each(func(i int, tr *goquery.Selection) {
		// rows of nested tables belong to those tables
		if tr.Closest("table").Get(0) != root {
			return
		}

		cells := rowCells(tr)
		if len(cells) == 0 {
			return
		}

		if isHeaderRow(tr, len(t.Rows)) {
			t.Header = cells
			return
		}
		t.Rows = append(t.Rows, cells)
	})

	width := t.Columns()
	for i, r := range t.Rows {
		for len(r) < width {
			r = append(r, "")
		}
		t.Rows[i] = r
	}

	return t, nil
}

func rowCells(tr *goquery.Selection) []string {
	var cells []string
	tr.ChildrenFiltered("th, td").Each(func(_ int, cell *goquery.Selection) {
		text := strings.TrimSpace(cell.Text())
		span := 1
		if v, ok := cell.Attr("colspan"); ok {
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 1 {
				span = min(n, maxColspan)
			}
		}
		for j := 0; j < span; j++ {
			cells = append(cells, text)
		}
	})
	return cells
}

// isHeaderRow reports whether tr belongs to the header. Outside <thead> a row only counts
// when no data row has been seen yet and every cell is a <th>.
func isHeaderRow(tr *goquery.Selection, dataRowsSoFar int) bool {
	if tr.ParentsFiltered("thead").Length() > 0 {
		return true
	}
	if dataRowsSoFar > 0 {
		return false
	}
	return tr.ChildrenFiltered("td").Length() == 0
}
