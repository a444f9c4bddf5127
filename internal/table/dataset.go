package table

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Structural column names. They are never offered as measurements.
const (
	ColDateTime = "DATETIME"
	ColDate     = "DATE"
	ColCW       = "CW"
	ColLCL      = "LCL"
	ColUCL      = "UCL"
)

// Dataset is one loaded tabular source. Cells are kept in their stored
// text form; DATE and DATETIME are coerced at query time.
//
// A Dataset is never modified after NewDataset returns. Callers must treat
// Headers and Rows as read-only.
type Dataset struct {
	Name     string
	Headers  []string
	Rows     [][]string
	FilePath string

	colIdx map[string]int
}

// NewDataset cleans the headers and pads every row to the header width.
// Blank headers are named "Unnamed: N" after their 0-based position and
// repeated names get ".1", ".2", ... suffixes, so every column has a
// unique, non-empty name.
func NewDataset(name string, headers []string, rows [][]string) *Dataset {
	clean := uniqueHeaders(headers)
	colIdx := make(map[string]int, len(clean))
	for i, h := range clean {
		colIdx[h] = i
	}

	padded := make([][]string, 0, len(rows))
	for _, row := range rows {
		r := make([]string, len(clean))
		copy(r, row)
		padded = append(padded, r)
	}

	return &Dataset{
		Name:    name,
		Headers: clean,
		Rows:    padded,
		colIdx:  colIdx,
	}
}

// CleanHeader trims a column name (and any byte order mark) and puts it in
// NFC form so that names typed on different systems compare equal.
func CleanHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return norm.NFC.String(strings.TrimSpace(h))
}

func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	counts := make(map[string]int, len(headers))
	for i, h := range headers {
		col := CleanHeader(h)
		if col == "" {
			col = fmt.Sprintf("Unnamed: %d", i)
		}
		n := counts[col]
		for n > 0 {
			counts[col] = n + 1
			col = fmt.Sprintf("%s.%d", col, n)
			n = counts[col]
		}
		out[i] = col
		counts[col] = n + 1
	}
	return out
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if i, ok := d.colIdx[name]; ok {
		return i
	}
	return -1
}

func (d *Dataset) HasColumn(name string) bool {
	_, ok := d.colIdx[name]
	return ok
}

// Column returns a copy of the named column's cells in row order.
func (d *Dataset) Column(name string) ([]string, bool) {
	idx := d.ColumnIndex(name)
	if idx < 0 {
		return nil, false
	}
	out := make([]string, len(d.Rows))
	for i, row := range d.Rows {
		out[i] = row[idx]
	}
	return out, true
}

func (d *Dataset) NumRows() int {
	return len(d.Rows)
}

func (d *Dataset) NumColumns() int {
	return len(d.Headers)
}
