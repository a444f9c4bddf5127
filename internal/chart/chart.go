// Package chart turns a filtered view into a time-series chart with optional
// control-limit bands.
package chart

import (
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"ovenprofile/internal/query"
	"ovenprofile/internal/table"
)

var (
	// ErrEmptyView is returned for a view with no rows. Callers show a
	// "no data in selected range" warning instead of a chart.
	ErrEmptyView = errors.New("no data in selected range")
	// ErrMissingColumn is returned when a selected measurement is not a
	// column of the queried dataset.
	ErrMissingColumn = errors.New("measurement not in dataset")
	// ErrNoMeasurements is returned when nothing was selected.
	ErrNoMeasurements = errors.New("no measurements selected")
)

const limitColor = "#FF0000"

// Series is one line of the chart.
type Series struct {
	Name   string      `json:"name"`
	X      []time.Time `json:"x"`
	Y      []float64   `json:"y"`
	Dashed bool        `json:"dashed"`
	Color  string      `json:"color,omitempty"`
}

// Spec is a renderer-neutral description of the chart.
type Spec struct {
	Title  string   `json:"title"`
	XAxis  string   `json:"x_axis"`
	Series []Series `json:"series"`
}

// Build makes one series per measurement plus dashed LCL and UCL series when
// the view carries them. Cells that are not numbers are skipped.
func Build(v *query.View, measurements []string) (*Spec, error) {
	if len(measurements) == 0 {
		return nil, ErrNoMeasurements
	}
	if v.Empty() {
		return nil, ErrEmptyView
	}

	var missing []string
	for _, m := range measurements {
		if !v.HasColumn(m) {
			missing = append(missing, m)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrMissingColumn, "%s: %s", v.Dataset, strings.Join(missing, ", "))
	}

	spec := &Spec{
		Title: "Temperature Profile: " + strings.Join(measurements, ", "),
		XAxis: table.ColDateTime,
	}
	for _, m := range measurements {
		spec.Series = append(spec.Series, series(v, m))
	}
	for _, limit := range []string{table.ColLCL, table.ColUCL} {
		if !v.HasColumn(limit) {
			continue
		}
		s := series(v, limit)
		s.Dashed = true
		s.Color = limitColor
		spec.Series = append(spec.Series, s)
	}
	return spec, nil
}

func series(v *query.View, column string) Series {
	idx := v.ColumnIndex(column)
	s := Series{Name: column, X: []time.Time{}, Y: []float64{}}
	for i, row := range v.Rows {
		y, err := strconv.ParseFloat(row[idx], 64)
		if err != nil || math.IsNaN(y) || math.IsInf(y, 0) {
			continue
		}
		s.X = append(s.X, v.Times[i])
		s.Y = append(s.Y, y)
	}
	return s
}

// Size of rendered images. Requested sizes are clamped to the maximum.
const (
	DefaultWidth  = 1280
	DefaultHeight = 540
	MaxWidth      = 4096
	MaxHeight     = 4096
)

// ClampSize replaces a non-positive size with def and caps it at limit.
func ClampSize(size, def, limit int) int {
	if size <= 0 {
		return def
	}
	if size > limit {
		return limit
	}
	return size
}

// Padding around an axis whose values are all equal.
const (
	singleTimePad  = 30 * time.Minute
	singleValuePad = 1.0
)

// RenderPNG draws spec to w. Series without points are left out. An axis
// whose values are all equal, as with a single reading, is widened around
// that value.
func RenderPNG(spec *Spec, w io.Writer, width, height int) error {
	width = ClampSize(width, DefaultWidth, MaxWidth)
	height = ClampSize(height, DefaultHeight, MaxHeight)

	var series []chart.Series
	colorIdx := 0
	for _, s := range spec.Series {
		if len(s.X) == 0 {
			continue
		}
		style := chart.Style{StrokeWidth: 2}
		if s.Dashed {
			style.StrokeColor = drawing.ColorFromHex(strings.TrimPrefix(s.Color, "#"))
			style.StrokeDashArray = []float64{6, 4}
		} else {
			style.StrokeColor = chart.GetDefaultColor(colorIdx)
			colorIdx++
		}
		series = append(series, chart.TimeSeries{
			Name:    s.Name,
			XValues: s.X,
			YValues: s.Y,
			Style:   style,
		})
	}
	if len(series) == 0 {
		return ErrEmptyView
	}

	graph := chart.Chart{
		Title:  spec.Title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:           spec.XAxis,
			ValueFormatter: chart.TimeValueFormatterWithFormat("2006-01-02 15:04"),
		},
		YAxis:  chart.YAxis{Name: "Temperature"},
		Series: series,
	}
	graph.XAxis.Range, graph.YAxis.Range = padRanges(spec.Series)
	graph.Elements = []chart.Renderable{chart.LegendLeft(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return errors.Wrap(err, "render chart")
	}
	return nil
}

// padRanges returns fixed axis ranges for axes that would otherwise have no
// width, and nil for axes go-chart can size itself.
func padRanges(series []Series) (x, y chart.Range) {
	var (
		minX, maxX time.Time
		minY, maxY = math.Inf(1), math.Inf(-1)
		points     int
	)
	for _, s := range series {
		for i, t := range s.X {
			if points == 0 || t.Before(minX) {
				minX = t
			}
			if points == 0 || t.After(maxX) {
				maxX = t
			}
			minY = math.Min(minY, s.Y[i])
			maxY = math.Max(maxY, s.Y[i])
			points++
		}
	}
	if points == 0 {
		return nil, nil
	}
	if minX.Equal(maxX) {
		x = &chart.ContinuousRange{
			Min: chart.TimeToFloat64(minX.Add(-singleTimePad)),
			Max: chart.TimeToFloat64(maxX.Add(singleTimePad)),
		}
	}
	if minY == maxY {
		y = &chart.ContinuousRange{Min: minY - singleValuePad, Max: maxY + singleValuePad}
	}
	return x, y
}
