package extract

import (
	"html"
	"image"
	"sort"
	"strings"
)

// Word is a recognized token and its bounding box in image coordinates.
type Word struct {
	Text string
	Box  image.Rectangle
}

type line struct {
	top, bottom int
	words       []Word
}

// LayoutTable rebuilds a table from loose word boxes and renders it as an
// HTML <table>. Words are grouped into lines by vertical overlap; the first
// line is the header and its word clusters define the column anchors. Every
// other word lands in the right-most column whose anchor starts at or before
// the word's centre. Returns "" when no words are given.
func LayoutTable(words []Word) string {
	lines := groupLines(words)
	if len(lines) == 0 {
		return ""
	}

	anchors, headers := columnAnchors(lines[0].words)

	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, h := range headers {
		b.WriteString("<th>")
		b.WriteString(html.EscapeString(h))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, ln := range lines[1:] {
		cells := make([][]string, len(anchors))
		for _, w := range ln.words {
			col := columnFor(anchors, (w.Box.Min.X+w.Box.Max.X)/2)
			cells[col] = append(cells[col], w.Text)
		}
		b.WriteString("<tr>")
		for _, c := range cells {
			b.WriteString("<td>")
			b.WriteString(html.EscapeString(strings.Join(c, " ")))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func groupLines(words []Word) []line {
	sorted := make([]Word, 0, len(words))
	for _, w := range words {
		if strings.TrimSpace(w.Text) != "" {
			sorted = append(sorted, w)
		}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Box.Min.Y < sorted[j].Box.Min.Y
	})

	var lines []line
	for _, w := range sorted {
		mid := (w.Box.Min.Y + w.Box.Max.Y) / 2
		if n := len(lines); n > 0 && mid >= lines[n-1].top && mid <= lines[n-1].bottom {
			last := &lines[n-1]
			last.words = append(last.words, w)
			if w.Box.Max.Y > last.bottom {
				last.bottom = w.Box.Max.Y
			}
			continue
		}
		lines = append(lines, line{top: w.Box.Min.Y, bottom: w.Box.Max.Y, words: []Word{w}})
	}
	for i := range lines {
		ws := lines[i].words
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].Box.Min.X < ws[b].Box.Min.X })
	}
	return lines
}

// columnAnchors splits the header words into clusters. A gap wider than the
// average character width of the line times three starts a new column.
func columnAnchors(header []Word) ([]int, []string) {
	var chars, width int
	for _, w := range header {
		chars += len([]rune(w.Text))
		width += w.Box.Dx()
	}
	gap := 12
	if chars > 0 {
		gap = 3 * width / chars
	}

	var anchors []int
	var labels []string
	prevEnd := 0
	for i, w := range header {
		if i == 0 || w.Box.Min.X-prevEnd > gap {
			anchors = append(anchors, w.Box.Min.X)
			labels = append(labels, w.Text)
		} else {
			labels[len(labels)-1] += " " + w.Text
		}
		prevEnd = w.Box.Max.X
	}
	return anchors, labels
}

func columnFor(anchors []int, x int) int {
	col := 0
	for i, a := range anchors {
		if a <= x {
			col = i
		}
	}
	return col
}
