// Package stats holds the descriptive statistics used by the BI reports.
//
// Every function is total: degenerate input yields a defined default
// (usually 0) instead of an error, NaN or Inf.
package stats

import (
	"math"
	"sort"
)

// DefaultForecastPeriods is the horizon used when callers do not pick one.
const DefaultForecastPeriods = 12

// snapEpsilon absorbs rounding when a correlation is perfect.
const snapEpsilon = 1e-12

// Mean returns the arithmetic mean, 0 if xs is empty.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// Median returns the middle element, or the average of the two middle
// elements, of the sorted input. 0 if xs is empty. xs is not modified.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, xs)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// StdDev returns the population standard deviation, 0 for fewer than two values.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	m := Mean(xs)
	var acc float64
	for _, x := range xs {
		d := x - m
		acc += d * d
	}
	return math.Sqrt(acc / float64(len(xs)))
}

// GrowthRate returns (last-first)/first*100. 0 for fewer than two values or
// when first is 0.
func GrowthRate(xs []float64) float64 {
	if len(xs) < 2 || xs[0] == 0 {
		return 0
	}
	first, last := xs[0], xs[len(xs)-1]
	return (last - first) / first * 100
}

// Pearson returns the correlation coefficient of xs and ys in [-1, 1].
// 0 when the lengths differ, the input is empty or either series is constant.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n == 0 || n != len(ys) {
		return 0
	}

	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := 0; i < n; i++ {
		x, y := xs[i], ys[i]
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
		sumY2 += y * y
	}

	fn := float64(n)
	num := fn*sumXY - sumX*sumY
	varX := fn*sumX2 - sumX*sumX
	varY := fn*sumY2 - sumY*sumY
	if varX <= 0 || varY <= 0 {
		return 0
	}
	den := math.Sqrt(varX * varY)
	if den == 0 || math.IsNaN(den) || math.IsInf(den, 0) {
		return 0
	}

	r := num / den
	switch {
	case r >= 1-snapEpsilon:
		return 1
	case r <= -1+snapEpsilon:
		return -1
	}
	return r
}

// MovingAverage returns, for every index i, the mean of
// xs[max(0,i-window+1)..i]. The window runs over positions, not calendar
// time, so gaps in the series are not reindexed. A window below 1 returns nil.
func MovingAverage(xs []float64, window int) []float64 {
	if len(xs) == 0 || window < 1 {
		return nil
	}
	out := make([]float64, len(xs))
	var sum float64
	for i, x := range xs {
		sum += x
		if i >= window {
			sum -= xs[i-window]
		}
		size := window
		if i+1 < window {
			size = i + 1
		}
		out[i] = sum / float64(size)
	}
	return out
}

// Forecast extrapolates periods values from the last element of xs:
// last * (1 + GrowthRate(xs)/100 * (i+1)). This is a naive placeholder, kept
// exactly as reported to users. Empty input or periods < 1 returns nil.
func Forecast(xs []float64, periods int) []float64 {
	if len(xs) == 0 || periods < 1 {
		return nil
	}
	last := xs[len(xs)-1]
	gr := GrowthRate(xs) / 100
	out := make([]float64, periods)
	for i := range out {
		out[i] = last * (1 + gr*float64(i+1))
	}
	return out
}

// Percentage returns part/total*100, 0 when total is 0.
func Percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// Summary is the descriptive triple reported per category.
type Summary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
}

// Summarize computes Summary for xs.
func Summarize(xs []float64) Summary {
	return Summary{
		Count:  len(xs),
		Mean:   Mean(xs),
		Median: Median(xs),
		StdDev: StdDev(xs),
	}
}
