// Package stats contains trailing window aggregates and fit scores over plain float slices
package stats

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

const DefaultWindow = 7

// RollingMean computes the trailing mean over window points. Indices before window-1 are left
// as NaN and any window containing a NaN is NaN.
func RollingMean(y []float64, window int) []float64 {
	if window < 1 {
		window = DefaultWindow
	}
	res := make([]float64, len(y))
	for i := range y {
		if i < window-1 {
			res[i] = math.NaN()
			continue
		}
		res[i] = stat.Mean(y[i-window+1:i+1], nil)
	}
	return res
}

// ShiftAlign trims the last k points off of raw and shifts avg left by k points so both tracks
// line up when the most recent days are still incomplete. k is clamped to the series length.
func ShiftAlign(raw, avg []float64, k int) ([]float64, []float64) {
	n := min(len(raw), len(avg))
	k = max(0, min(k, n))

	rawRes := make([]float64, n-k)
	avgRes := make([]float64, n-k)
	copy(rawRes, raw[:n-k])
	copy(avgRes, avg[k:k+n-k])
	return rawRes, avgRes
}
