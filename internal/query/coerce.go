package query

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// CoercionError reports a DATE or DATETIME cell that is not a date. It makes
// every query on that dataset fail; the row is never silently dropped.
type CoercionError struct {
	Dataset string
	Column  string
	Row     int // 1-based data row
	Value   string
}

func (e *CoercionError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: empty %s value in row %d", e.Dataset, e.Column, e.Row)
	}
	return fmt.Sprintf("%s: cannot parse %s value %q in row %d", e.Dataset, e.Column, e.Value, e.Row)
}

// Layouts accepted for text timestamps, most specific first.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006/01/02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
	"2 Jan 2006",
}

// largest Excel serial, 9999-12-31
const maxExcelSerial = 2958465

// ParseTime converts a stored DATE or DATETIME cell to a time. Excel serial
// numbers and the text layouts above are accepted.
func ParseTime(value string) (time.Time, error) {
	v := strings.TrimSpace(value)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty value")
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		if math.IsNaN(f) || f <= 0 || f > maxExcelSerial+1 {
			return time.Time{}, fmt.Errorf("serial %v out of range", f)
		}
		t, err := excelize.ExcelDateToTime(f, false)
		if err != nil {
			return time.Time{}, err
		}
		// serials carry float noise in the sub-second part
		return t.Round(time.Millisecond), nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised time %q", v)
}

// DateOf drops the time-of-day component.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// coerceColumn parses every cell of a column. The first bad cell fails the
// whole column.
func coerceColumn(dataset, column string, cells []string) ([]time.Time, error) {
	out := make([]time.Time, len(cells))
	for i, c := range cells {
		t, err := ParseTime(c)
		if err != nil {
			return nil, &CoercionError{Dataset: dataset, Column: column, Row: i + 1, Value: c}
		}
		out[i] = t
	}
	return out, nil
}

// timestampLayout picks how a coerced column is written back: date only
// when no value has a time of day.
func timestampLayout(ts []time.Time) string {
	for _, t := range ts {
		if t.Hour() != 0 || t.Minute() != 0 || t.Second() != 0 || t.Nanosecond() != 0 {
			return TimestampLayout
		}
	}
	return DateLayout
}
