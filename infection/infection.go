// Package infection projects case and ICU counts a few weeks ahead from their rolling average,
// adjusting for vaccination uptake and the rising share of a more transmissible variant.
package infection

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

var ErrInsufficientData = timedataset.ErrInsufficientData

const (
	DefaultHorizon = 21

	// weekly change compares the latest average against the one a week earlier
	weekSpan = 8
)

// Config holds the constants of the infection projection
type Config struct {
	AdultPopulation float64 `json:"adult_population" mapstructure:"adult_population"`

	// RegimenFactor converts recent doses into the number of people whose protection changes
	RegimenFactor float64 `json:"regimen_factor" mapstructure:"regimen_factor"`

	// Transmissibility is the weekly growth multiplier of the variant relative to the others
	Transmissibility float64 `json:"transmissibility" mapstructure:"transmissibility"`

	// WeeklyShareGrowth ages a stale variant share forward per elapsed week
	WeeklyShareGrowth float64 `json:"weekly_share_growth" mapstructure:"weekly_share_growth"`

	// ProjectedShareGrowth is the expected weekly share increase over the horizon
	ProjectedShareGrowth float64 `json:"projected_share_growth" mapstructure:"projected_share_growth"`

	Horizon int `json:"horizon" mapstructure:"horizon"`
}

// NewDefaultConfig returns the constants of the latest projection revision
func NewDefaultConfig() *Config {
	return &Config{
		AdultPopulation:      15_200_000,
		RegimenFactor:        1.5,
		Transmissibility:     1.5,
		WeeklyShareGrowth:    0.15,
		ProjectedShareGrowth: 0.2,
		Horizon:              DefaultHorizon,
	}
}

// Variant is the latest measured share of the dominant variant and when it was measured
type Variant struct {
	Share     float64   `json:"share"`
	Freshness time.Time `json:"freshness"`
}

// Inputs are the observations a projection starts from
type Inputs struct {
	// Series must have its rolling average computed
	Series *timedataset.TimeDataset

	Variant     Variant
	RecentDoses float64

	// Now is the date the variant share is aged to
	Now time.Time

	// Shift anchors the first projected date that many days before the last observed day
	Shift int
}

// Point is a projected day with the baseline track in Value and the variant adjusted track in
// Delta
type Point struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
	Delta float64   `json:"delta"`
}

// Rates are the daily multipliers derived for a projection
type Rates struct {
	VaccineDampening float64 `json:"vaccine_dampening"`
	WeeklyChange     float64 `json:"weekly_change"`
	DailyChange      float64 `json:"daily_change"`
	NowShare         float64 `json:"now_share"`
	SoonShare        float64 `json:"soon_share"`
	RawR             float64 `json:"raw_r"`
	DeltaDailyChange float64 `json:"delta_daily_change"`
}

// Prediction is a projection with the rates it was derived from
type Prediction struct {
	Rates  Rates   `json:"rates"`
	Points []Point `json:"points"`
}

// Rates derives the baseline and variant adjusted daily multipliers
func (c *Config) Rates(in Inputs) (Rates, error) {
	if c == nil {
		c = NewDefaultConfig()
	}
	if in.Series == nil {
		return Rates{}, timedataset.ErrNoTrainingData
	}
	if c.AdultPopulation <= 0 {
		return Rates{}, fmt.Errorf("adult population of %.0f, %w", c.AdultPopulation, ErrInsufficientData)
	}

	dampening := 1 - in.RecentDoses*c.RegimenFactor/c.AdultPopulation
	if dampening <= 0 {
		return Rates{}, fmt.Errorf("vaccine dampening of %f, %w", dampening, ErrInsufficientData)
	}

	latest, err := in.Series.AverageAt(-1)
	if err != nil {
		return Rates{}, err
	}
	weekAgo, err := in.Series.AverageAt(-weekSpan)
	if err != nil {
		return Rates{}, err
	}
	if weekAgo == 0 || math.IsNaN(weekAgo) || math.IsNaN(latest) {
		return Rates{}, fmt.Errorf("average of %f a week ago, %w", weekAgo, ErrInsufficientData)
	}

	weekly := latest / weekAgo
	daily := math.Pow(weekly, 1.0/7) * math.Pow(dampening, 1.0/7)

	nowShare, soonShare := c.ageShare(in.Variant, in.Now)

	variantDaily := math.Pow(c.Transmissibility, 1.0/7)
	rawR := daily / (variantDaily*nowShare + (1 - nowShare))
	deltaDaily := rawR * (variantDaily*soonShare + (1 - soonShare))

	return Rates{
		VaccineDampening: dampening,
		WeeklyChange:     weekly,
		DailyChange:      daily,
		NowShare:         nowShare,
		SoonShare:        soonShare,
		RawR:             rawR,
		DeltaDailyChange: deltaDaily,
	}, nil
}

// ageShare moves the measured share forward by the weeks since it was measured and projects it
// over the horizon. Both shares are clamped to [0, 1].
func (c *Config) ageShare(v Variant, now time.Time) (float64, float64) {
	gap := now.Sub(v.Freshness)
	weeksOld := math.Floor(gap.Hours()/24)/7 - 1

	nowShare := clamp(v.Share + c.WeeklyShareGrowth*weeksOld)
	horizonWeeks := float64(c.horizon()) / 7
	soonShare := clamp(nowShare + horizonWeeks*c.ProjectedShareGrowth)
	return nowShare, soonShare
}

func (c *Config) horizon() int {
	if c.Horizon <= 0 {
		return DefaultHorizon
	}
	return c.Horizon
}

// Predict projects the series over the horizon. Both tracks start from the latest rolling
// average and are multiplied independently by their daily rate.
func (c *Config) Predict(in Inputs) (*Prediction, error) {
	if c == nil {
		c = NewDefaultConfig()
	}
	rates, err := c.Rates(in)
	if err != nil {
		return nil, err
	}
	if in.Shift < 0 {
		return nil, fmt.Errorf("negative shift of %d, %w", in.Shift, timedataset.ErrInsufficientHistory)
	}

	currentDay, err := in.Series.DateAt(-(1 + in.Shift))
	if err != nil {
		return nil, fmt.Errorf("unable to anchor shift of %d, %w", in.Shift, err)
	}
	value, err := in.Series.AverageAt(-1)
	if err != nil {
		return nil, err
	}
	delta := value

	horizon := c.horizon()
	pts := make([]Point, 0, horizon)
	for i := 0; i < horizon; i++ {
		currentDay = currentDay.AddDate(0, 0, 1)
		value *= rates.DailyChange
		delta *= rates.DeltaDailyChange
		pts = append(pts, Point{Date: currentDay, Value: value, Delta: delta})
	}

	slog.Debug("projected infections",
		"daily_change", rates.DailyChange,
		"delta_daily_change", rates.DeltaDailyChange,
		"now_share", rates.NowShare,
		"soon_share", rates.SoonShare,
	)
	return &Prediction{Rates: rates, Points: pts}, nil
}

func clamp(share float64) float64 {
	return math.Max(0, math.Min(share, 1))
}
