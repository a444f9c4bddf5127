package query

import (
	"time"
)

// View is the result of a range query: the matching rows of one dataset in
// source order. DATE and DATETIME cells hold their coerced text; Times and
// Dates hold the coerced values row for row.
type View struct {
	Dataset string
	Columns []string
	Rows    [][]string
	Times   []time.Time // DATETIME
	Dates   []time.Time // DATE, time of day kept
}

func (v *View) Len() int {
	return len(v.Rows)
}

func (v *View) Empty() bool {
	return len(v.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (v *View) ColumnIndex(name string) int {
	for i, c := range v.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (v *View) HasColumn(name string) bool {
	return v.ColumnIndex(name) >= 0
}

// Column returns the named column's cells in row order.
func (v *View) Column(name string) ([]string, bool) {
	idx := v.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		out[i] = row[idx]
	}
	return out, true
}

// Records returns the view as one map per row, keyed by column name.
func (v *View) Records() []map[string]string {
	out := make([]map[string]string, len(v.Rows))
	for i, row := range v.Rows {
		rec := make(map[string]string, len(v.Columns))
		for j, col := range v.Columns {
			rec[col] = row[j]
		}
		out[i] = rec
	}
	return out
}
