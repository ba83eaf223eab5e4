// Package forecast extrapolates a daily series with a fitted growth model until its cumulative
// total reaches the final threshold of a target.
package forecast

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-covid-forecaster/growth"
	"github.com/aouyang1/go-covid-forecaster/target"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

var (
	ErrUnsupportedModel = errors.New("unsupported extrapolation model")
	ErrInsufficientData = timedataset.ErrInsufficientData
)

// Stop reasons of a simulation
const (
	StopTarget   = "target_reached"
	StopMaxDays  = "max_days"
	StopNegative = "negative_estimate"
)

// Point is a single simulated day tagged with the region its cumulative total falls into
type Point struct {
	Date   time.Time `json:"date"`
	Value  float64   `json:"value"`
	Region string    `json:"region"`
}

// Origin is where a simulation continues from: the last observed date, the number of observed
// days and the sum of all observed values
type Origin struct {
	Date  time.Time `json:"date"`
	Index int       `json:"index"`
	Total float64   `json:"total"`
}

// OriginOf returns the simulation origin at the end of the observed series
func OriginOf(td *timedataset.TimeDataset) (Origin, error) {
	last, err := td.DateAt(-1)
	if err != nil {
		return Origin{}, err
	}
	return Origin{
		Date:  last,
		Index: td.Len(),
		Total: td.Total(),
	}, nil
}

// Forecast is the simulated continuation of a series
type Forecast struct {
	Model      string  `json:"model"`
	Points     []Point `json:"points"`
	Cumulative float64 `json:"cumulative"`
	StopReason string  `json:"stop_reason"`
}

// Values returns the simulated daily values
func (f *Forecast) Values() []float64 {
	if f == nil {
		return nil
	}
	vals := make([]float64, len(f.Points))
	for i, p := range f.Points {
		vals[i] = p.Value
	}
	return vals
}

// End returns the date of the last simulated day or the zero time if nothing was simulated
func (f *Forecast) End() time.Time {
	if f == nil || len(f.Points) == 0 {
		return time.Time{}
	}
	return f.Points[len(f.Points)-1].Date
}

// Estimate returns the extrapolated value for the absolute day index given the number of observed
// days
func Estimate(model string, m growth.Model, dayIndex, observed int) (float64, error) {
	daysElapsed := dayIndex - observed + 1
	weeks := float64(daysElapsed) / 7.0
	share := m.DayOfWeekShare[((dayIndex%7)+7)%7]

	switch model {
	case ModelExponential:
		return m.LastWeekTotal * math.Pow(m.GrowthRatio, weeks) * share, nil
	case ModelLinear:
		return (m.LastWeekTotal + (m.LastWeekTotal-m.WeekBeforeTotal)*weeks) * share, nil
	case ModelNoGrowth:
		return m.LastWeekTotal * share, nil
	default:
		return 0, fmt.Errorf("%q, %w", model, ErrUnsupportedModel)
	}
}

// Extrapolate simulates one day at a time from the origin until the cumulative total reaches the
// final threshold of the target, MaxDays have been simulated or the estimate turns negative.
func Extrapolate(m growth.Model, origin Origin, tgt target.Target, opt *Options) (*Forecast, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if err := opt.Validate(); err != nil {
		return nil, err
	}
	if len(tgt) == 0 {
		return nil, target.ErrNoThresholds
	}
	if origin.Index < 0 {
		return nil, fmt.Errorf("origin index of %d, %w", origin.Index, timedataset.ErrInsufficientHistory)
	}
	if opt.Model == ModelExponential && !m.HasFiniteRatio() {
		return nil, fmt.Errorf("growth ratio of %f, %w", m.GrowthRatio, ErrInsufficientData)
	}

	final := tgt.Final().Level
	maxDays := opt.maxDays()

	f := &Forecast{
		Model:      opt.Model,
		Cumulative: origin.Total,
		StopReason: StopTarget,
	}
	dayIndex := origin.Index
	currentDate := origin.Date

	for f.Cumulative < final {
		if len(f.Points) >= maxDays {
			f.StopReason = StopMaxDays
			break
		}

		dayEst, err := Estimate(opt.Model, m, dayIndex, origin.Index)
		if err != nil {
			return nil, err
		}
		if dayEst < 0 || math.IsNaN(dayEst) {
			f.StopReason = StopNegative
			break
		}

		currentDate = currentDate.AddDate(0, 0, 1)
		f.Points = append(f.Points, Point{
			Date:   currentDate,
			Value:  dayEst,
			Region: tgt.RegionFor(f.Cumulative + dayEst),
		})
		f.Cumulative += dayEst
		dayIndex++
	}

	if f.StopReason != StopTarget {
		slog.Warn("extrapolation stopped before final threshold",
			"model", opt.Model,
			"reason", f.StopReason,
			"days", len(f.Points),
			"cumulative", f.Cumulative,
			"final", final,
		)
	}
	return f, nil
}
