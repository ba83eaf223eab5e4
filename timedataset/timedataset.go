package timedataset

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aouyang1/go-covid-forecaster/stats"
	"gonum.org/v1/gonum/floats"
)

var (
	ErrNoTrainingData      = errors.New("no training data")
	ErrNonMontonic         = errors.New("time feature is not monotonic")
	ErrDatasetLenMismatch  = errors.New("time feature has a different length than observations")
	ErrNotDaily            = errors.New("time feature is not one point per calendar day")
	ErrInsufficientHistory = errors.New("insufficient history for window")
	ErrNoAverage           = errors.New("rolling average has not been computed")
	ErrInsufficientData    = errors.New("insufficient data for ratio")
)

// TimePoint is a single daily observation
type TimePoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// TimeDataset represents a daily time series storing a slice of dates and values.
// Both must be of the same length. Avg holds the trailing rolling mean once computed
// with WithRollingMean and is nil otherwise.
type TimeDataset struct {
	T   []time.Time
	Y   []float64
	Avg []float64
}

// NewUnivariateDataset returns an instance of a TimeDataset given a date and value slice.
// Dates must advance by exactly one calendar day.
func NewUnivariateDataset(t []time.Time, y []float64) (*TimeDataset, error) {
	if len(y) == 0 {
		return nil, ErrNoTrainingData
	}
	if len(t) != len(y) {
		return nil, fmt.Errorf(
			"time feature has length of %d, but values has a length of %d, %w",
			len(t), len(y), ErrDatasetLenMismatch,
		)
	}

	for i := 1; i < len(t); i++ {
		if !t[i].After(t[i-1]) {
			return nil, fmt.Errorf("non-monotonic at %d, %w", i, ErrNonMontonic)
		}
		if !t[i].Equal(t[i-1].AddDate(0, 0, 1)) {
			return nil, fmt.Errorf("gap between %s and %s, %w", t[i-1].Format(time.DateOnly), t[i].Format(time.DateOnly), ErrNotDaily)
		}
	}

	tSeries := make([]time.Time, len(t))
	ySeries := make([]float64, len(t))
	copy(tSeries, t)
	copy(ySeries, y)
	td := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}

	return td, nil
}

func (td *TimeDataset) Copy() *TimeDataset {
	tSeries := make([]time.Time, len(td.T))
	ySeries := make([]float64, len(td.T))
	copy(tSeries, td.T)
	copy(ySeries, td.Y)
	res := &TimeDataset{
		T: tSeries,
		Y: ySeries,
	}
	if td.Avg != nil {
		res.Avg = make([]float64, len(td.Avg))
		copy(res.Avg, td.Avg)
	}
	return res
}

// Len returns the number of days in the dataset
func (td *TimeDataset) Len() int {
	if td == nil {
		return 0
	}
	return len(td.Y)
}

// Points returns the dataset as date/value pairs
func (td *TimeDataset) Points() []TimePoint {
	if td == nil {
		return nil
	}
	pts := make([]TimePoint, len(td.T))
	for i := range td.T {
		pts[i] = TimePoint{Date: td.T[i], Value: td.Y[i]}
	}
	return pts
}

// AveragePoints returns the rolling average as date/value pairs skipping undefined days
func (td *TimeDataset) AveragePoints() []TimePoint {
	if td == nil || td.Avg == nil {
		return nil
	}
	pts := make([]TimePoint, 0, len(td.Avg))
	for i, v := range td.Avg {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, TimePoint{Date: td.T[i], Value: v})
	}
	return pts
}

// WithRollingMean computes the trailing rolling mean of the values and stores it on the dataset
func (td *TimeDataset) WithRollingMean(window int) *TimeDataset {
	td.Avg = stats.RollingMean(td.Y, window)
	return td
}

// Slice returns a copy of the dataset between the from and to indices. Negative indices
// count back from the end like Window.
func (td *TimeDataset) Slice(from, to int) (*TimeDataset, error) {
	start, end, err := resolve(td.Len(), from, to)
	if err != nil {
		return nil, err
	}
	res := &TimeDataset{
		T: append([]time.Time(nil), td.T[start:end]...),
		Y: append([]float64(nil), td.Y[start:end]...),
	}
	if td.Avg != nil {
		res.Avg = append([]float64(nil), td.Avg[start:end]...)
	}
	return res, nil
}

// Window returns a copy of the values in the half open range [from, to). Negative indices are
// relative to the end of the series so Window(-8, -1) holds the seven days before the last one.
// Ranges falling outside of the series return ErrInsufficientHistory.
func (td *TimeDataset) Window(from, to int) ([]float64, error) {
	start, end, err := resolve(td.Len(), from, to)
	if err != nil {
		return nil, err
	}
	res := make([]float64, end-start)
	copy(res, td.Y[start:end])
	return res, nil
}

// Tail returns a copy of the last k values
func (td *TimeDataset) Tail(k int) ([]float64, error) {
	n := td.Len()
	if k < 0 || k > n {
		return nil, fmt.Errorf("tail of %d with %d points, %w", k, n, ErrInsufficientHistory)
	}
	return td.Window(n-k, n)
}

// Sum returns the sum of the values in the window [from, to)
func (td *TimeDataset) Sum(from, to int) (float64, error) {
	w, err := td.Window(from, to)
	if err != nil {
		return 0, err
	}
	return floats.Sum(w), nil
}

// Total returns the sum of all values
func (td *TimeDataset) Total() float64 {
	if td == nil {
		return 0
	}
	return floats.Sum(td.Y)
}

// AverageAt returns the rolling average at index i, negative indices count from the end
func (td *TimeDataset) AverageAt(i int) (float64, error) {
	if td.Avg == nil {
		return 0, ErrNoAverage
	}
	idx, err := resolveIndex(len(td.Avg), i)
	if err != nil {
		return 0, err
	}
	return td.Avg[idx], nil
}

// DateAt returns the date at index i, negative indices count from the end
func (td *TimeDataset) DateAt(i int) (time.Time, error) {
	idx, err := resolveIndex(td.Len(), i)
	if err != nil {
		return time.Time{}, err
	}
	return td.T[idx], nil
}

// SumSince returns the sum of all values on or after the given date
func (td *TimeDataset) SumSince(since time.Time) float64 {
	var total float64
	for i, t := range td.T {
		if t.Before(since) {
			continue
		}
		total += td.Y[i]
	}
	return total
}

func resolveIndex(n, i int) (int, error) {
	idx := i
	if idx < 0 {
		idx += n
	}
	if idx < 0 || idx >= n {
		return 0, fmt.Errorf("index %d with %d points, %w", i, n, ErrInsufficientHistory)
	}
	return idx, nil
}

func resolve(n, from, to int) (int, int, error) {
	start, end := from, to
	if start < 0 {
		start += n
	}
	if end < 0 {
		end += n
	}
	if start < 0 || end > n || start > end {
		return 0, 0, fmt.Errorf("window [%d, %d) with %d points, %w", from, to, n, ErrInsufficientHistory)
	}
	return start, end, nil
}
