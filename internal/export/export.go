// Package export encodes a filtered view as a workbook or delimited text.
package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"ovenprofile/internal/query"
	"ovenprofile/internal/table"
)

// Download metadata.
const (
	SheetName = "FilteredData"

	SpreadsheetFilename = "filtered_data.xlsx"
	SpreadsheetMIME     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	DelimitedFilename = "filtered_data.csv"
	DelimitedMIME     = "text/csv"
)

// DefaultSeparator is the field separator of the csv download.
const DefaultSeparator = ','

// ErrInvalidSeparator is returned for a separator that cannot delimit
// fields: a quote, CR, LF, the replacement character or an invalid rune.
var ErrInvalidSeparator = errors.New("invalid separator")

// ValidSeparator reports whether sep can delimit fields.
func ValidSeparator(sep rune) bool {
	return sep != 0 && sep != '"' && sep != '\r' && sep != '\n' &&
		utf8.ValidRune(sep) && sep != utf8.RuneError
}

// Spreadsheet writes the view to a single-sheet workbook: a header row then
// every row in column order. Numeric cells become numbers and DATE/DATETIME
// cells become date-times; everything else is written as text.
func Spreadsheet(v *query.View) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return nil, errors.Wrap(err, "name sheet")
	}

	header := make([]interface{}, len(v.Columns))
	for i, c := range v.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return nil, errors.Wrap(err, "write header")
	}

	dtIdx := v.ColumnIndex(table.ColDateTime)
	dIdx := v.ColumnIndex(table.ColDate)
	for i, row := range v.Rows {
		cells := make([]interface{}, len(row))
		for j, s := range row {
			switch {
			case j == dtIdx && i < len(v.Times):
				cells[j] = v.Times[i]
			case j == dIdx && i < len(v.Dates):
				cells[j] = v.Dates[i]
			default:
				cells[j] = cellValue(s)
			}
		}
		axis, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(SheetName, axis, &cells); err != nil {
			return nil, errors.Wrapf(err, "write row %d", i+1)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "encode workbook")
	}
	return buf.Bytes(), nil
}

// cellValue returns a float for numeric text that a number cell would show
// unchanged, and the text otherwise. "007" and "1e3" stay text.
func cellValue(s string) interface{} {
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return s
	}
	if strconv.FormatFloat(f, 'f', -1, 64) != s {
		return s
	}
	return f
}

// Delimited writes the view as UTF-8 text: a header line then one line per
// row, fields separated by sep. No index column is written.
func Delimited(v *query.View, sep rune) ([]byte, error) {
	if !ValidSeparator(sep) {
		return nil, errors.Wrapf(ErrInvalidSeparator, "%q", sep)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = sep

	if err := w.Write(v.Columns); err != nil {
		return nil, errors.Wrap(err, "write header")
	}
	if err := w.WriteAll(v.Rows); err != nil {
		return nil, errors.Wrap(err, "write rows")
	}
	return buf.Bytes(), nil
}

// CSV is Delimited with a comma.
func CSV(v *query.View) ([]byte, error) {
	return Delimited(v, DefaultSeparator)
}
