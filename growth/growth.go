// Package growth fits a week over week growth ratio and a day of week reporting profile to a
// daily series.
package growth

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"gonum.org/v1/gonum/floats"
)

var ErrInsufficientData = timedataset.ErrInsufficientData

// MinHistory is the number of trailing days needed to compare the last two weeks
const MinHistory = 15

// Model is the fitted growth state of a series. It is derived once from the observed days and is
// not modified afterwards.
type Model struct {
	LastWeekTotal   float64    `json:"last_week_total"`
	WeekBeforeTotal float64    `json:"week_before_total"`
	GrowthRatio     float64    `json:"growth_ratio"`
	DayOfWeekShare  [7]float64 `json:"day_of_week_share"`
}

// Fit computes the model from the series. The last observed day is left out of both weekly totals
// as it is usually incomplete. The growth ratio is Inf or NaN when the week before totals zero.
func Fit(td *timedataset.TimeDataset) (Model, error) {
	if td.Len() < MinHistory {
		return Model{}, fmt.Errorf(
			"need %d days but got %d, %w",
			MinHistory, td.Len(), timedataset.ErrInsufficientHistory,
		)
	}

	lastWeek, err := td.Sum(-8, -1)
	if err != nil {
		return Model{}, err
	}
	weekBefore, err := td.Sum(-15, -8)
	if err != nil {
		return Model{}, err
	}

	share, err := DayOfWeekShare(td.Y)
	if err != nil {
		return Model{}, err
	}

	return Model{
		LastWeekTotal:   lastWeek,
		WeekBeforeTotal: weekBefore,
		GrowthRatio:     lastWeek / weekBefore,
		DayOfWeekShare:  share,
	}, nil
}

// DayOfWeekShare returns the fraction of the series total falling on each index modulo 7 over the
// entire history
func DayOfWeekShare(y []float64) ([7]float64, error) {
	var share [7]float64
	total := floats.Sum(y)
	if total == 0 || math.IsNaN(total) {
		return share, fmt.Errorf("series total of %f, %w", total, ErrInsufficientData)
	}
	for i, v := range y {
		share[i%7] += v
	}
	floats.Scale(1/total, share[:])
	return share, nil
}

// HasFiniteRatio reports if the growth ratio can be used for exponential extrapolation
func (m Model) HasFiniteRatio() bool {
	return !math.IsNaN(m.GrowthRatio) && !math.IsInf(m.GrowthRatio, 0)
}
