// Package query answers inclusive date-range queries against a dataset.
package query

import (
	"time"

	"github.com/pkg/errors"

	"ovenprofile/internal/table"
)

// ErrNoRows is returned by Bounds for a dataset without data rows.
var ErrNoRows = errors.New("dataset has no rows")

// Query returns the rows of ds whose DATE falls within [start, end] by
// calendar date. DATE and DATETIME are coerced for every row before
// filtering, so a bad cell fails the query even when it lies outside the
// range. A query matching nothing returns an empty view and no error.
func Query(ds *table.Dataset, start, end time.Time) (*View, error) {
	times, dates, err := coerce(ds)
	if err != nil {
		return nil, err
	}
	r := NewRange(start, end)

	dtIdx := ds.ColumnIndex(table.ColDateTime)
	dIdx := ds.ColumnIndex(table.ColDate)
	dtLayout := timestampLayout(times)
	dLayout := timestampLayout(dates)

	view := &View{
		Dataset: ds.Name,
		Columns: append([]string(nil), ds.Headers...),
		Rows:    [][]string{},
		Times:   []time.Time{},
		Dates:   []time.Time{},
	}
	for i, row := range ds.Rows {
		if !r.Contains(dates[i]) {
			continue
		}
		out := make([]string, len(row))
		copy(out, row)
		out[dtIdx] = times[i].Format(dtLayout)
		out[dIdx] = dates[i].Format(dLayout)

		view.Rows = append(view.Rows, out)
		view.Times = append(view.Times, times[i])
		view.Dates = append(view.Dates, dates[i])
	}
	return view, nil
}

// QueryRange is Query with a Range.
func QueryRange(ds *table.Dataset, r Range) (*View, error) {
	return Query(ds, r.Start, r.End)
}

// Bounds returns the earliest and latest calendar DATE of ds, the default
// range offered for a selection.
func Bounds(ds *table.Dataset) (Range, error) {
	if ds.NumRows() == 0 {
		return Range{}, errors.Wrap(ErrNoRows, ds.Name)
	}
	cells, ok := ds.Column(table.ColDate)
	if !ok {
		return Range{}, errors.Wrapf(table.ErrMissingColumn, "%s: %s", ds.Name, table.ColDate)
	}
	dates, err := coerceColumn(ds.Name, table.ColDate, cells)
	if err != nil {
		return Range{}, err
	}

	lo, hi := dates[0], dates[0]
	for _, d := range dates[1:] {
		if d.Before(lo) {
			lo = d
		}
		if d.After(hi) {
			hi = d
		}
	}
	return NewRange(lo, hi), nil
}

func coerce(ds *table.Dataset) (times, dates []time.Time, err error) {
	dtCells, ok := ds.Column(table.ColDateTime)
	if !ok {
		return nil, nil, errors.Wrapf(table.ErrMissingColumn, "%s: %s", ds.Name, table.ColDateTime)
	}
	dCells, ok := ds.Column(table.ColDate)
	if !ok {
		return nil, nil, errors.Wrapf(table.ErrMissingColumn, "%s: %s", ds.Name, table.ColDate)
	}
	if times, err = coerceColumn(ds.Name, table.ColDateTime, dtCells); err != nil {
		return nil, nil, err
	}
	if dates, err = coerceColumn(ds.Name, table.ColDate, dCells); err != nil {
		return nil, nil, err
	}
	return times, dates, nil
}
