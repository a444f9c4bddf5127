package analysis

import "strings"

// Quality counts the cells of one column that cannot be charted.
type Quality struct {
	Rows         int     `json:"rows"`
	Missing      int     `json:"missing"`
	NonNumeric   int     `json:"non_numeric"`
	Completeness float64 `json:"completeness"` // numeric cells / rows, 0-1
}

// ProfileColumn profiles column idx of rows. Empty cells and the usual null
// spellings count as missing; anything else that is not a number counts as
// non-numeric.
func ProfileColumn(rows [][]string, idx int) Quality {
	q := Quality{Rows: len(rows)}
	for _, row := range rows {
		if idx < 0 || idx >= len(row) || isNull(row[idx]) {
			q.Missing++
			continue
		}
		if _, ok := parseFloat(row[idx]); !ok {
			q.NonNumeric++
		}
	}
	if q.Rows > 0 {
		q.Completeness = float64(q.Rows-q.Missing-q.NonNumeric) / float64(q.Rows)
	}
	return q
}

func isNull(value string) bool {
	switch strings.TrimSpace(value) {
	case "", "null", "NULL", "None", "NaN", "nan", "#N/A":
		return true
	}
	return false
}
