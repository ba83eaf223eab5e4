package forecaster

import (
	"log/slog"
	"time"

	"github.com/aouyang1/go-covid-forecaster/event"
	"github.com/aouyang1/go-covid-forecaster/forecast"
	"github.com/aouyang1/go-covid-forecaster/infection"
	"github.com/aouyang1/go-covid-forecaster/stats"
	"github.com/aouyang1/go-covid-forecaster/target"
)

const (
	DefaultLocation    = "Europe/Amsterdam"
	DefaultICUCapacity = 1350
)

// Level is a named horizontal reference value drawn on a chart
type Level struct {
	Name  string  `json:"name" mapstructure:"name"`
	Value float64 `json:"value" mapstructure:"value"`
}

// Options configures a full forecasting run
type Options struct {
	Target    *target.Config    `json:"target" mapstructure:"target"`
	Infection *infection.Config `json:"infection" mapstructure:"infection"`

	// Models lists the extrapolation models to run, in order
	Models  []string `json:"models" mapstructure:"models"`
	MaxDays int      `json:"max_days" mapstructure:"max_days"`

	RollingWindow int `json:"rolling_window" mapstructure:"rolling_window"`

	// Shift compensates for incomplete recent days in the infection projections and the
	// reported case and intensive care tracks
	Shift int `json:"shift" mapstructure:"shift"`

	Suppliers []string `json:"suppliers" mapstructure:"suppliers"`

	// PaceDeadline is the date the full coverage threshold should be reached by
	PaceDeadline time.Time `json:"pace_deadline" mapstructure:"-"`

	// ICUCapacity is the total number of intensive care beds, non covid occupation is subtracted
	ICUCapacity float64 `json:"icu_capacity" mapstructure:"icu_capacity"`
	CaseLevels  []Level `json:"case_levels" mapstructure:"case_levels"`

	// Milestones are policy dates annotated on the charts
	Milestones []event.Event `json:"milestones" mapstructure:"-"`
	Holidays   bool          `json:"holidays" mapstructure:"holidays"`

	// Location is used to find the calendar date of the feed timestamps
	Location *time.Location `json:"-" mapstructure:"-"`
}

// NewDefaultOptions returns the settings used for the national dashboard feed
func NewDefaultOptions() *Options {
	loc, err := time.LoadLocation(DefaultLocation)
	if err != nil {
		slog.Warn("unable to load location, using UTC", "location", DefaultLocation, "error", err)
		loc = time.UTC
	}

	return &Options{
		Target:        target.NewDefaultConfig(),
		Infection:     infection.NewDefaultConfig(),
		Models:        []string{forecast.ModelLinear, forecast.ModelNoGrowth},
		MaxDays:       forecast.DefaultMaxDays,
		RollingWindow: stats.DefaultWindow,
		Suppliers:     []string{"astra_zeneca", "bio_n_tech_pfizer", "janssen", "moderna"},
		PaceDeadline:  time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC),
		ICUCapacity:   DefaultICUCapacity,
		CaseLevels: []Level{
			{Name: "zeer ernstig", Value: 6250},
			{Name: "ernstig", Value: 2500},
			{Name: "zorgelijk", Value: 875},
		},
		Milestones: DefaultMilestones(),
		Holidays:   true,
		Location:   loc,
	}
}

// DefaultMilestones returns the 2021 national measures and reopening steps
func DefaultMilestones() []event.Event {
	steps := []struct {
		date string
		name string
	}{
		{"2021-01-12", "persco: no changes"},
		{"2021-01-20", "persco: curfew 9pm"},
		{"2021-02-02", "persco: schools open"},
		{"2021-02-23", "persco: small relaxations"},
		{"2021-03-08", "persco: small relaxations"},
		{"2021-03-23", "persco: curfew 10pm"},
		{"2021-04-13", "persco: reopening plan"},
		{"2021-04-28", "step 1: terraces"},
		{"2021-05-11", "step 2: outdoor venues"},
		{"2021-05-26", "step 3: dining and indoor culture"},
		{"2021-06-16", "step 4: events"},
		{"2021-07-07", "step 5: indoor hospitality"},
	}

	events := make([]event.Event, 0, len(steps))
	for _, s := range steps {
		d, err := time.Parse(time.DateOnly, s.date)
		if err != nil {
			continue
		}
		events = append(events, event.NewEvent(s.name, d, d.AddDate(0, 0, 1)))
	}
	return events
}

func (o *Options) location() *time.Location {
	if o.Location == nil {
		return time.UTC
	}
	return o.Location
}

func (o *Options) rollingWindow() int {
	if o.RollingWindow <= 0 {
		return stats.DefaultWindow
	}
	return o.RollingWindow
}
