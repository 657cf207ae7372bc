// Package table turns a recognized HTML table into named columns and rows
// of plain cell text.
package table

import (
	"errors"
	"strings"
)

// DateMarker identifies day-label columns. Any column whose label contains
// it is dropped by Normalize.
const DateMarker = "Date"

// ErrNoHeader is returned by RequireHeader for a table whose columns only
// carry positional names.
var ErrNoHeader = errors.New("table has no header row")

// Table is a parsed table: one label per column and rows of cell text
// aligned with Columns. Missing cells are stored as "".
type Table struct {
	Columns []string
	Rows    [][]string
	// HasHeader is false when no header row was found and Columns are
	// positional ("0", "1", ...).
	HasHeader bool
}

// RequireHeader returns ErrNoHeader unless the table has a header row.
func (t *Table) RequireHeader() error {
	if !t.HasHeader {
		return ErrNoHeader
	}
	return nil
}

// Cell returns the text at row r, column c, or "" when out of range.
func (t *Table) Cell(r, c int) string {
	if r < 0 || r >= len(t.Rows) || c < 0 || c >= len(t.Rows[r]) {
		return ""
	}
	return t.Rows[r][c]
}

// Normalize returns a copy without any column whose label contains "Date"
// (case-sensitive) and with every row padded to the column count.
func (t *Table) Normalize() *Table {
	keep := make([]int, 0, len(t.Columns))
	cols := make([]string, 0, len(t.Columns))
	for i, name := range t.Columns {
		if strings.Contains(name, DateMarker) {
			continue
		}
		keep = append(keep, i)
		cols = append(cols, name)
	}

	rows := make([][]string, len(t.Rows))
	for r := range t.Rows {
		row := make([]string, len(keep))
		for j, c := range keep {
			row[j] = t.Cell(r, c)
		}
		rows[r] = row
	}
	return &Table{Columns: cols, Rows: rows, HasHeader: t.HasHeader}
}
