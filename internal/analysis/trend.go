package analysis

import (
	"time"
)

// Trend fits a least-squares line through the numeric cells of column idx
// against their timestamps. slope is in units per day. Fewer than three
// points, or points that all share one timestamp, give zeros.
func Trend(times []time.Time, rows [][]string, idx int) (slope, rsquared float64) {
	if len(times) != len(rows) {
		return 0, 0
	}

	var xs, ys []float64
	for i, row := range rows {
		y, ok := cellFloat(row, idx)
		if !ok {
			continue
		}
		xs = append(xs, times[i].Sub(times[0]).Hours()/24)
		ys = append(ys, y)
	}
	if len(ys) < 3 {
		return 0, 0
	}

	// Simple linear regression: y = mx + b
	n := float64(len(ys))
	sumX, sumY, sumXY, sumX2 := 0.0, 0.0, 0.0, 0.0
	for i := range ys {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumX2 += xs[i] * xs[i]
	}

	denominator := n*sumX2 - sumX*sumX
	if denominator == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denominator

	meanY := sumY / n
	intercept := meanY - slope*(sumX/n)
	ssTotal, ssResidual := 0.0, 0.0
	for i, y := range ys {
		predicted := slope*xs[i] + intercept
		ssTotal += (y - meanY) * (y - meanY)
		ssResidual += (y - predicted) * (y - predicted)
	}
	if ssTotal == 0 {
		return slope, 0
	}
	return slope, 1 - ssResidual/ssTotal
}
