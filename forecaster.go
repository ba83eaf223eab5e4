// Package forecaster runs the vaccination and infection forecasts over a dashboard feed and
// renders the results.
package forecaster

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/aouyang1/go-covid-forecaster/event"
	"github.com/aouyang1/go-covid-forecaster/feed"
	"github.com/aouyang1/go-covid-forecaster/forecast"
	"github.com/aouyang1/go-covid-forecaster/growth"
	"github.com/aouyang1/go-covid-forecaster/infection"
	"github.com/aouyang1/go-covid-forecaster/stats"
	"github.com/aouyang1/go-covid-forecaster/supply"
	"github.com/aouyang1/go-covid-forecaster/target"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

var (
	ErrNoModels   = errors.New("no extrapolation models configured")
	ErrNoForecast = errors.New("no model produced a forecast")
)

// Feed fields read by the pipeline
const (
	FieldEstimated        = "estimated"
	FieldInfected         = "infected"
	FieldBedsCovid        = "beds_occupied_covid"
	FieldBedsNonCovid     = "beds_occupied_non_covid"
	FieldSupport          = "percentage_average"
	FieldVariantShare     = "delta_percentage"
	FieldVariantFreshness = "date_end_unix"
	FieldPlannedDoses     = supply.FieldDoses
)

// Run computes every forecast of the document. Now is the moment the variant share is aged to.
func Run(doc *feed.Document, opt *Options, now time.Time) (*Results, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if len(opt.Models) == 0 {
		return nil, ErrNoModels
	}
	loc := opt.location()
	window := opt.rollingWindow()

	vaccinations, err := vaccinationSeries(doc, loc)
	if err != nil {
		return nil, err
	}
	vaccinations.WithRollingMean(window)

	cases, err := optionalSeries(doc, feed.KeyTested, FieldInfected, loc)
	if err != nil {
		return nil, err
	}
	if cases != nil {
		cases.WithRollingMean(window)
	}
	icu, err := optionalSeries(doc, feed.KeyIntensiveCare, FieldBedsCovid, loc)
	if err != nil {
		return nil, err
	}
	if icu != nil {
		icu.WithRollingMean(window)
	}

	est, err := estimateTarget(doc, opt, vaccinations, cases)
	if err != nil {
		return nil, err
	}

	m, err := growth.Fit(vaccinations)
	if err != nil {
		return nil, fmt.Errorf("unable to fit growth model, %w", err)
	}
	origin, err := forecast.OriginOf(vaccinations)
	if err != nil {
		return nil, err
	}

	forecasts, err := extrapolate(m, origin, est.Target, opt)
	if err != nil {
		return nil, err
	}

	today := timedataset.Day(now.Unix(), loc)
	res := &Results{
		GeneratedAt:  now.UTC(),
		LastObserved: origin.Date,
		Vaccinations: NewSeriesResult(vaccinations, 0),
		Target:       est,
		Forecasts:    forecasts,
		Milestones:   opt.Milestones,
	}
	if m.HasFiniteRatio() {
		res.Growth = &m
	}

	planned, recentDoses := plannedDoses(doc, loc)
	res.Planned = planned

	if err := addSupply(doc, loc, res); err != nil {
		return nil, err
	}

	res.Pace = requiredPace(origin, est.Target, opt)

	variant, err := variantShare(doc, loc)
	if err != nil {
		slog.Warn("no variant share, skipping infection projections", "error", err)
	}
	cfg := opt.Infection
	if cases != nil {
		r := NewSeriesResult(cases, opt.Shift)
		res.Cases = &r
		if err == nil {
			res.CasePrediction = predict(cfg, cases, variant, recentDoses, today, opt.Shift, feed.KeyTested)
		}
	}
	if icu != nil {
		r := NewSeriesResult(icu, opt.Shift)
		res.IntensiveCare = &r
		res.ICUCapacity = icuCapacity(doc, opt.ICUCapacity)
		if err == nil {
			res.IntensiveCarePrediction = predict(cfg, icu, variant, recentDoses, today, opt.Shift, feed.KeyIntensiveCare)
		}
	}

	if opt.Holidays {
		res.Holidays = event.Holidays(vaccinations.T[0], res.End())
	}

	slog.Info("forecast complete",
		"last_observed", origin.Date.Format(time.DateOnly),
		"final_target", est.Target.Final().Level,
		"models", len(res.Forecasts),
	)
	return res, nil
}

// RunBacktests scores every configured model on the last holdout days of the vaccinations
func RunBacktests(doc *feed.Document, opt *Options, holdout int) ([]*forecast.Backtest, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if len(opt.Models) == 0 {
		return nil, ErrNoModels
	}
	vaccinations, err := vaccinationSeries(doc, opt.location())
	if err != nil {
		return nil, err
	}

	var backtests []*forecast.Backtest
	for _, model := range opt.Models {
		bt, err := forecast.RunBacktest(vaccinations, holdout, &forecast.Options{Model: model})
		if errors.Is(err, forecast.ErrInsufficientData) {
			slog.Warn("skipping model", "model", model, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("unable to backtest %s, %w", model, err)
		}
		backtests = append(backtests, bt)
	}
	return backtests, nil
}

func vaccinationSeries(doc *feed.Document, loc *time.Location) (*timedataset.TimeDataset, error) {
	records, err := doc.Values(feed.KeyAdministered)
	if err != nil {
		return nil, err
	}
	td, err := timedataset.Build(records, timedataset.BuildOptions{
		ValueField: FieldEstimated,
		Mode:       timedataset.ModeDelta,
		Gaps:       timedataset.GapZeroFill,
		Location:   loc,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to build vaccinations, %w", err)
	}
	return td, nil
}

// optionalSeries builds a reported series, returning nil without error when the feed lacks it
func optionalSeries(doc *feed.Document, key, field string, loc *time.Location) (*timedataset.TimeDataset, error) {
	records, err := doc.Values(key)
	if errors.Is(err, feed.ErrMissingSeries) {
		slog.Warn("series missing from feed", "series", key)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	td, err := timedataset.Build(records, timedataset.BuildOptions{
		ValueField: field,
		Mode:       timedataset.ModeDirect,
		Gaps:       timedataset.GapInterpolate,
		Location:   loc,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to build %s, %w", key, err)
	}
	return td, nil
}

func estimateTarget(doc *feed.Document, opt *Options, vaccinations, cases *timedataset.TimeDataset) (*target.Estimate, error) {
	deliveries, err := doc.SupplierTotals(opt.Suppliers)
	if err != nil {
		return nil, err
	}
	support, err := doc.Field(feed.KeySupport, FieldSupport)
	if err != nil {
		return nil, err
	}

	est, err := opt.Target.Estimate(target.Inputs{
		Deliveries:        deliveries,
		SupportPercentage: support,
		Cases:             cases,
		Administered:      vaccinations,
	})
	if err != nil {
		return nil, fmt.Errorf("unable to estimate target, %w", err)
	}
	return est, nil
}

func extrapolate(m growth.Model, origin forecast.Origin, tgt target.Target, opt *Options) ([]*forecast.Forecast, error) {
	var forecasts []*forecast.Forecast
	for _, model := range opt.Models {
		fopt := &forecast.Options{Model: model, MaxDays: opt.MaxDays}
		if err := fopt.Validate(); err != nil {
			return nil, err
		}
		f, err := forecast.Extrapolate(m, origin, tgt, fopt)
		if errors.Is(err, forecast.ErrInsufficientData) {
			slog.Warn("skipping model", "model", model, "error", err)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("unable to extrapolate %s, %w", model, err)
		}
		forecasts = append(forecasts, f)
	}
	if len(forecasts) == 0 {
		return nil, ErrNoForecast
	}
	return forecasts, nil
}

// plannedDoses spreads the first planned week and returns its doses
func plannedDoses(doc *feed.Document, loc *time.Location) ([]timedataset.TimePoint, float64) {
	records, err := doc.Values(feed.KeyAdministeredPlanned)
	if err != nil || len(records) == 0 {
		slog.Warn("no planned administrations, assuming no recent doses", "error", err)
		return nil, 0
	}
	pts, err := supply.WeekPlanning(records[0], supply.Options{Location: loc})
	if err != nil {
		slog.Warn("unable to spread planned administrations", "error", err)
		return nil, 0
	}
	doses := records[0][FieldPlannedDoses]
	if math.IsNaN(doses) {
		doses = 0
	}
	return pts, doses
}

func addSupply(doc *feed.Document, loc *time.Location, res *Results) error {
	opt := supply.Options{Location: loc}

	delivered, err := doc.Values(feed.KeyDelivery)
	if errors.Is(err, feed.ErrMissingSeries) {
		slog.Warn("series missing from feed", "series", feed.KeyDelivery)
		return nil
	}
	if err != nil {
		return err
	}
	pts, prev, err := supply.Deliveries(delivered, 0, opt)
	if err != nil {
		return fmt.Errorf("unable to spread deliveries, %w", err)
	}
	res.Delivered = pts

	estimated, err := doc.Values(feed.KeyDeliveryEstimate)
	if errors.Is(err, feed.ErrMissingSeries) {
		return nil
	}
	if err != nil {
		return err
	}
	pts, _, err = supply.Deliveries(estimated, prev, opt)
	if err != nil {
		return fmt.Errorf("unable to spread delivery estimates, %w", err)
	}
	res.DeliveryEstimate = pts
	return nil
}

func requiredPace(origin forecast.Origin, tgt target.Target, opt *Options) []timedataset.TimePoint {
	if opt.PaceDeadline.IsZero() {
		return nil
	}
	level := tgt.Final().Level
	if opt.Target != nil {
		if idx := tgt.RegionIndex(opt.Target.FullRegion); idx >= 0 {
			level = tgt[idx].Level
		}
	}
	pts, err := forecast.RequiredPace(origin, level, opt.PaceDeadline)
	if err != nil {
		slog.Warn("skipping required pace", "error", err)
		return nil
	}
	return pts
}

func variantShare(doc *feed.Document, loc *time.Location) (infection.Variant, error) {
	rec, err := doc.LastValue(feed.KeyVariants)
	if err != nil {
		return infection.Variant{}, err
	}
	share, exists := rec[FieldVariantShare]
	if !exists || math.IsNaN(share) {
		return infection.Variant{}, fmt.Errorf("%s.%s, %w", feed.KeyVariants, FieldVariantShare, feed.ErrMissingSeries)
	}
	freshness, exists := rec[FieldVariantFreshness]
	if !exists || math.IsNaN(freshness) {
		return infection.Variant{}, fmt.Errorf("%s.%s, %w", feed.KeyVariants, FieldVariantFreshness, feed.ErrMissingSeries)
	}
	return infection.Variant{
		Share:     share / 100,
		Freshness: timedataset.Day(int64(freshness), loc),
	}, nil
}

// predict projects the series, logging and returning nil when it has too little history
func predict(cfg *infection.Config, td *timedataset.TimeDataset, v infection.Variant, doses float64, now time.Time, shift int, name string) *infection.Prediction {
	pred, err := cfg.Predict(infection.Inputs{
		Series:      td,
		Variant:     v,
		RecentDoses: doses,
		Now:         now,
		Shift:       shift,
	})
	if err != nil {
		slog.Warn("unable to project series", "series", name, "error", err)
		return nil
	}
	return pred
}

func icuCapacity(doc *feed.Document, beds float64) float64 {
	if beds <= 0 {
		return 0
	}
	nonCovid, err := doc.Field(feed.KeyIntensiveCare, FieldBedsNonCovid)
	if err != nil || math.IsNaN(nonCovid) {
		return beds
	}
	return beds - nonCovid
}

// alignedPoints returns the raw and average tracks after shifting the average left by k days,
// leaving out days without an average
func alignedPoints(td *timedataset.TimeDataset, k int) ([]timedataset.TimePoint, []timedataset.TimePoint) {
	if len(td.Avg) != td.Len() {
		return td.Points(), nil
	}
	raw, avg := stats.ShiftAlign(td.Y, td.Avg, k)
	observed := make([]timedataset.TimePoint, 0, len(raw))
	average := make([]timedataset.TimePoint, 0, len(avg))
	for i := range raw {
		observed = append(observed, timedataset.TimePoint{Date: td.T[i], Value: raw[i]})
		if math.IsNaN(avg[i]) {
			continue
		}
		average = append(average, timedataset.TimePoint{Date: td.T[i], Value: avg[i]})
	}
	return observed, average
}
