// Package analysis computes per-measurement statistics over a filtered view.
package analysis

import (
	"math"
	"sort"
	"strconv"

	"github.com/pkg/errors"

	"ovenprofile/internal/query"
	"ovenprofile/internal/table"
)

// ErrNoNumericValues is returned by CalculateStats for a column with no
// numeric cells.
var ErrNoNumericValues = errors.New("no numeric values")

// Summary describes one measurement column of a view.
type Summary struct {
	Name     string  `json:"name"`
	Count    int     `json:"count"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Mean     float64 `json:"mean"`
	Median   float64 `json:"median"`
	BelowLCL int     `json:"below_lcl"`
	AboveUCL int     `json:"above_ucl"`

	SlopePerDay float64 `json:"slope_per_day"`
	RSquared    float64 `json:"r_squared"`
	Quality     Quality `json:"quality"`
}

// Summarize returns a Summary per measurement, in the order given.
// Measurements that are not columns of the view, or have no numeric cells,
// are left out. Limit counts compare each reading with the LCL/UCL cell of
// the same row when those columns exist.
func Summarize(v *query.View, measurements []string) []Summary {
	lcl := v.ColumnIndex(table.ColLCL)
	ucl := v.ColumnIndex(table.ColUCL)

	out := make([]Summary, 0, len(measurements))
	for _, name := range measurements {
		idx := v.ColumnIndex(name)
		if idx < 0 {
			continue
		}
		lowest, highest, mean, median, err := CalculateStats(v.Rows, idx)
		if err != nil {
			continue
		}
		s := Summary{Name: name, Min: lowest, Max: highest, Mean: mean, Median: median}
		s.SlopePerDay, s.RSquared = Trend(v.Times, v.Rows, idx)
		s.Quality = ProfileColumn(v.Rows, idx)
		for _, row := range v.Rows {
			val, ok := parseFloat(row[idx])
			if !ok {
				continue
			}
			s.Count++
			if lo, ok := cellFloat(row, lcl); ok && val < lo {
				s.BelowLCL++
			}
			if hi, ok := cellFloat(row, ucl); ok && val > hi {
				s.AboveUCL++
			}
		}
		out = append(out, s)
	}
	return out
}

// CalculateStats computes basic stats for a numeric column
func CalculateStats(rows [][]string, colIndex int) (lowest, highest, mean, median float64, err error) {
	values := []float64{}
	for _, row := range rows {
		if colIndex >= len(row) {
			continue
		}
		if val, ok := parseFloat(row[colIndex]); ok {
			values = append(values, val)
		}
	}

	if len(values) == 0 {
		return 0, 0, 0, 0, ErrNoNumericValues
	}

	sort.Float64s(values)
	lowest = values[0]
	highest = values[len(values)-1]

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	if len(values)%2 == 0 {
		median = (values[len(values)/2-1] + values[len(values)/2]) / 2
	} else {
		median = values[len(values)/2]
	}

	return
}

func cellFloat(row []string, idx int) (float64, bool) {
	if idx < 0 || idx >= len(row) {
		return 0, false
	}
	return parseFloat(row[idx])
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
