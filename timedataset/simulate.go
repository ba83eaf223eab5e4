package timedataset

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/floats"
)

// GenerateDays returns n consecutive UTC midnight dates starting at start
func GenerateDays(n int, start time.Time) []time.Time {
	t := make([]time.Time, 0, n)
	ct := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		t = append(t, ct.AddDate(0, 0, i))
	}
	return t
}

type Series []float64

func (s Series) Add(src Series) Series {
	floats.Add(s, src)
	return s
}

func (s Series) MaskWithWeekend(t []time.Time) Series {
	n := len(s)
	for i := 0; i < n; i++ {
		switch t[i].Weekday() {
		case time.Saturday, time.Sunday:
			continue
		default:
			s[i] = 0.0
		}
	}
	return s
}

// Cumulative returns the running total of the series
func (s Series) Cumulative() Series {
	res := make(Series, len(s))
	var total float64
	for i, v := range s {
		total += v
		res[i] = total
	}
	return res
}

// Records converts the series into feed records with the values stored under field
func (s Series) Records(t []time.Time, field string) []Record {
	recs := make([]Record, len(s))
	for i, v := range s {
		recs[i] = Record{
			DefaultTimeField: float64(t[i].Unix()),
			field:            v,
		}
	}
	return recs
}

func GenerateConstY(n int, val float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, val)
	}
	return Series(y)
}

// GenerateGrowthY generates n values starting at base growing by weeklyRatio every seven days
func GenerateGrowthY(n int, base, weeklyRatio float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, base*math.Pow(weeklyRatio, float64(i)/7.0))
	}
	return Series(y)
}

// GenerateWeeklyY repeats the weekly profile for n days
func GenerateWeeklyY(n int, profile [7]float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, profile[i%7])
	}
	return Series(y)
}

func GenerateNoise(n int, noiseScale float64) Series {
	y := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		y = append(y, rand.NormFloat64()*noiseScale)
	}
	return Series(y)
}
