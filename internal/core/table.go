package core

import "strings"

// idHeader names the identifier column. Rows with an empty identifier are
// treated as separators and skipped.
const idHeader = "id"

// HeaderSet is the parsed header line of a page.
type HeaderSet struct {
	Names    []string // Non-empty header names in source order
	Columns  []int    // Original column index of each entry in Names
	Dropped  []int    // Original indices of columns with an empty header
	IDColumn int      // Original index of the "id" column, -1 if none
}

// Len returns the number of kept columns.
func (h HeaderSet) Len() int {
	return len(h.Names)
}

// HasID reports whether the page declares an identifier column.
func (h HeaderSet) HasID() bool {
	return h.IDColumn >= 0
}

// Row holds the cells of one data line, aligned with HeaderSet.Names.
type Row []string

// Table is one page after header analysis and row filtering.
type Table struct {
	Headers HeaderSet
	Rows    []Row
}

// ReadTable parses raw page text into a header set and filtered rows.
//
// Columns with an empty header are dropped from the header set and from
// every row. When an "id" column exists, rows whose id cell is empty are
// discarded. Zero-length lines are ignored.
func ReadTable(text string) Table {
	lines := SplitLines(text)
	headers := readHeaders(SplitLine(lines[0]))

	rows := make([]Row, 0, len(lines)-1)
	for _, line := range lines[1:] {
		if line == "" {
			continue
		}

		cells := SplitLine(line)
		if headers.HasID() && cellAt(cells, headers.IDColumn) == "" {
			continue
		}

		row := make(Row, len(headers.Columns))
		for i, col := range headers.Columns {
			row[i] = cellAt(cells, col)
		}
		rows = append(rows, row)
	}

	return Table{Headers: headers, Rows: rows}
}

func readHeaders(raw []string) HeaderSet {
	h := HeaderSet{
		Names:    make([]string, 0, len(raw)),
		Columns:  make([]int, 0, len(raw)),
		IDColumn: -1,
	}

	for i, name := range raw {
		if name == "" {
			h.Dropped = append(h.Dropped, i)
			continue
		}
		if h.IDColumn == -1 && strings.EqualFold(name, idHeader) {
			h.IDColumn = i
		}
		h.Names = append(h.Names, name)
		h.Columns = append(h.Columns, i)
	}

	return h
}

// cellAt returns cells[i], or "" when the line is too short.
func cellAt(cells []string, i int) string {
	if i < len(cells) {
		return cells[i]
	}
	return ""
}
