package stats

import (
	"math"

	talib "github.com/markcheno/go-talib"
)

// LinearRegression fits y = a + b*x over x = 0..len(ys)-1 and returns the
// slope b and the coefficient of determination R². Any zero-denominator case
// (fewer than two points, zero variance) yields 0, never NaN/Inf.
func LinearRegression(ys []float64) (slope, r2 float64) {
	n := float64(len(ys))
	if len(ys) < 2 {
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssTot, ssRes float64
	for i, y := range ys {
		fit := intercept + slope*float64(i)
		ssTot += (y - meanY) * (y - meanY)
		ssRes += (y - fit) * (y - fit)
	}
	if ssTot == 0 {
		return slope, 0
	}
	r2 = 1 - ssRes/ssTot
	if !isFinite(r2) {
		r2 = 0
	}
	return slope, r2
}

// Pearson returns the correlation of two equal-length series via talib.Correl
// over the full span. Degenerate inputs (short series, zero variance) yield 0.
func Pearson(xs, ys []float64) float64 {
	n := len(xs)
	if n < 2 || len(ys) != n {
		return 0
	}
	out := talib.Correl(xs, ys, n)
	if len(out) == 0 {
		return 0
	}
	v := out[len(out)-1]
	if !isFinite(v) {
		return 0
	}
	return v
}

// WilderRSI computes a Wilder-smoothed RSI over an arbitrary series (price,
// cumulative delta, anything). Returns nil when the series is too short for
// the period. Leading warm-up values are NaN-free: talib pads with zeros.
func WilderRSI(values []float64, period int) []float64 {
	if period <= 0 {
		period = 14
	}
	if len(values) <= period {
		return nil
	}
	out := talib.Rsi(values, period)
	for i, v := range out {
		if !isFinite(v) {
			out[i] = 0
		}
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
