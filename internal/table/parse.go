package table

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/text/unicode/norm"
)

// ErrNoTableElement is returned when the markup holds no <table>.
var ErrNoTableElement = errors.New("no <table> element in markup")

// rawCell is a td/th before span expansion.
type rawCell struct {
	text    string
	header  bool
	colspan int
	rowspan int
}

// Parse reads the first <table> in markup.
//
// Header rows are the <thead> rows or, without a <thead>, the leading rows
// made only of <th> cells. colspan/rowspan are expanded in header and body
// separately. With several header rows each column keeps the label of the
// first one; columns that end up sharing a label collapse into one (first
// position, last value). With no header at all columns are named "0", "1", ...
func Parse(markup string) (*Table, error) {
	root, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("table: parse html: %w", err)
	}
	doc := goquery.NewDocumentFromNode(root)
	sel := doc.Find("table").First()
	if sel.Length() == 0 {
		return nil, ErrNoTableElement
	}

	var head, body [][]rawCell
	sel.Children().Each(func(_ int, section *goquery.Selection) {
		switch goquery.NodeName(section) {
		case "thead":
			head = append(head, readRows(section)...)
		case "tbody", "tfoot":
			body = append(body, readRows(section)...)
		case "tr":
			if row := readRow(section); len(row) > 0 {
				body = append(body, row)
			}
		}
	})
	if len(head) == 0 {
		for len(body) > 0 && allHeader(body[0]) {
			head = append(head, body[0])
			body = body[1:]
		}
	}

	headGrid := expandSpans(head)
	bodyGrid := expandSpans(body)

	width := 0
	for _, g := range [][][]string{headGrid, bodyGrid} {
		for _, row := range g {
			if len(row) > width {
				width = len(row)
			}
		}
	}

	cols := columnLabels(headGrid, width)
	rows := make([][]string, len(bodyGrid))
	for i, row := range bodyGrid {
		padded := make([]string, width)
		copy(padded, row)
		rows[i] = padded
	}

	t := &Table{Columns: cols, Rows: rows, HasHeader: len(headGrid) > 0}
	if len(headGrid) > 1 {
		t = collapseDuplicates(t)
	}
	return t, nil
}

func readRows(section *goquery.Selection) [][]rawCell {
	var rows [][]rawCell
	section.ChildrenFiltered("tr").Each(func(_ int, tr *goquery.Selection) {
		if row := readRow(tr); len(row) > 0 {
			rows = append(rows, row)
		}
	})
	return rows
}

func readRow(tr *goquery.Selection) []rawCell {
	var row []rawCell
	tr.ChildrenFiltered("td, th").Each(func(_ int, c *goquery.Selection) {
		row = append(row, rawCell{
			text:    cleanText(c.Text()),
			header:  goquery.NodeName(c) == "th",
			colspan: spanAttr(c, "colspan"),
			rowspan: spanAttr(c, "rowspan"),
		})
	})
	return row
}

func allHeader(row []rawCell) bool {
	for _, c := range row {
		if !c.header {
			return false
		}
	}
	return len(row) > 0
}

func spanAttr(c *goquery.Selection, name string) int {
	v, ok := c.Attr(name)
	if !ok {
		return 1
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// cleanText collapses runs of whitespace and folds compatibility characters
// (full-width digits, ligatures) that OCR output tends to contain.
func cleanText(s string) string {
	return norm.NFKC.String(strings.Join(strings.Fields(s), " "))
}

// expandSpans lays rows out on a grid, repeating the text of spanned cells.
func expandSpans(rows [][]rawCell) [][]string {
	type pending struct {
		text string
		left int
	}
	// carry[col] holds a cell spilling down from a row above.
	carry := map[int]pending{}
	grid := make([][]string, 0, len(rows))

	place := func(out []string, col int, text string) []string {
		for len(out) <= col {
			out = append(out, "")
		}
		out[col] = text
		return out
	}

	for _, row := range rows {
		var out []string
		col := 0
		fillCarry := func() {
			for {
				p, ok := carry[col]
				if !ok {
					return
				}
				out = place(out, col, p.text)
				if p.left <= 1 {
					delete(carry, col)
				} else {
					carry[col] = pending{text: p.text, left: p.left - 1}
				}
				col++
			}
		}
		for _, c := range row {
			fillCarry()
			for k := 0; k < c.colspan; k++ {
				out = place(out, col, c.text)
				if c.rowspan > 1 {
					carry[col] = pending{text: c.text, left: c.rowspan - 1}
				}
				col++
			}
		}
		// Trailing cells spilling from above.
		for {
			next := -1
			for k := range carry {
				if k >= col && (next == -1 || k < next) {
					next = k
				}
			}
			if next == -1 {
				break
			}
			col = next
			fillCarry()
		}
		grid = append(grid, out)
	}
	return grid
}

func columnLabels(head [][]string, width int) []string {
	cols := make([]string, width)
	if len(head) == 0 {
		for i := range cols {
			cols[i] = strconv.Itoa(i)
		}
		return cols
	}

	top := head[0]
	seen := map[string]bool{}
	for i := range cols {
		label := ""
		if i < len(top) {
			label = top[i]
		}
		if label == "" {
			if len(head) > 1 {
				label = fmt.Sprintf("Unnamed: %d_level_0", i)
			} else {
				label = fmt.Sprintf("Unnamed: %d", i)
			}
		}
		if len(head) == 1 {
			// Single-level labels are made unique: X, X.1, X.2, ...
			base := label
			for n := 1; seen[label]; n++ {
				label = fmt.Sprintf("%s.%d", base, n)
			}
			seen[label] = true
		}
		cols[i] = label
	}
	return cols
}

// collapseDuplicates merges columns sharing a label. The merged column sits
// at the first occurrence and takes the value of the last one.
func collapseDuplicates(t *Table) *Table {
	index := map[string]int{}
	var cols []string
	var source [][]int
	for i, name := range t.Columns {
		if j, ok := index[name]; ok {
			source[j] = append(source[j], i)
			continue
		}
		index[name] = len(cols)
		cols = append(cols, name)
		source = append(source, []int{i})
	}
	if len(cols) == len(t.Columns) {
		return t
	}

	rows := make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(cols))
		for j, src := range source {
			row[j] = t.Cell(r, src[len(src)-1])
		}
		rows[r] = row
	}
	return &Table{Columns: cols, Rows: rows, HasHeader: t.HasHeader}
}
