package query

import (
	"time"
)

// Layouts used when coerced timestamps are written back into a view.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Range is an inclusive pair of calendar dates. Start after End is legal
// and matches nothing.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange truncates both ends to calendar dates.
func NewRange(start, end time.Time) Range {
	return Range{Start: DateOf(start), End: DateOf(end)}
}

// ParseRange parses two YYYY-MM-DD dates.
func ParseRange(start, end string) (Range, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Range{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Range{}, err
	}
	return Range{Start: s, End: e}, nil
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// Contains reports whether the calendar date of t is within the range.
func (r Range) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

func (r Range) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}
