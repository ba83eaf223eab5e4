package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	forecaster "github.com/aouyang1/go-covid-forecaster"
	"github.com/aouyang1/go-covid-forecaster/event"
	"github.com/aouyang1/go-covid-forecaster/feed"
	"github.com/spf13/viper"
)

type milestoneConfig struct {
	Date string `mapstructure:"date"`
	Name string `mapstructure:"name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("feed.url", feed.DefaultURL)
	v.SetDefault("feed.retry_max", feed.DefaultRetryMax)
	v.SetDefault("feed.archive_entry", "")
	v.SetDefault("forecast.location", forecaster.DefaultLocation)
}

// loadOptions overlays the forecast section of the config onto the default options
func loadOptions(v *viper.Viper) (*forecaster.Options, error) {
	opt := forecaster.NewDefaultOptions()

	// configured lists replace the defaults instead of overwriting them element by element
	lists := map[string]func(){
		"forecast.models":                       func() { opt.Models = nil },
		"forecast.suppliers":                    func() { opt.Suppliers = nil },
		"forecast.case_levels":                  func() { opt.CaseLevels = nil },
		"forecast.target.single_dose_suppliers": func() { opt.Target.SingleDoseSuppliers = nil },
		"forecast.target.segments":              func() { opt.Target.Segments = nil },
	}
	for key, reset := range lists {
		if v.IsSet(key) {
			reset()
		}
	}

	if err := v.UnmarshalKey("forecast", opt); err != nil {
		return nil, fmt.Errorf("unable to decode forecast config, %w", err)
	}

	if name := v.GetString("forecast.location"); name != "" {
		loc, err := time.LoadLocation(name)
		if err != nil {
			return nil, fmt.Errorf("unable to load location %q, %w", name, err)
		}
		opt.Location = loc
	}

	dates := []struct {
		key string
		dst *time.Time
	}{
		{"forecast.pace_deadline", &opt.PaceDeadline},
		{"forecast.target.immunity_since", &opt.Target.ImmunitySince},
	}
	for _, d := range dates {
		raw := v.GetString(d.key)
		if raw == "" {
			continue
		}
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return nil, fmt.Errorf("unable to parse %s, %w", d.key, err)
		}
		*d.dst = parsed
	}

	if v.IsSet("forecast.milestones") {
		var milestones []milestoneConfig
		if err := v.UnmarshalKey("forecast.milestones", &milestones); err != nil {
			return nil, fmt.Errorf("unable to decode milestones, %w", err)
		}
		opt.Milestones = make([]event.Event, 0, len(milestones))
		for _, m := range milestones {
			d, err := time.Parse(time.DateOnly, m.Date)
			if err != nil {
				return nil, fmt.Errorf("unable to parse milestone %q, %w", m.Name, err)
			}
			e := event.NewEvent(m.Name, d, d.AddDate(0, 0, 1))
			if err := e.Valid(); err != nil {
				return nil, fmt.Errorf("invalid milestone on %s, %w", m.Date, err)
			}
			opt.Milestones = append(opt.Milestones, e)
		}
	}
	return opt, nil
}

// newLoader builds the feed loader from the feed section of the config. The returned cache is
// nil when no cache path is configured and must be closed by the caller otherwise.
func newLoader(v *viper.Viper) (*feed.Loader, *feed.Cache, error) {
	l := &feed.Loader{
		Client:       feed.NewClient(v.GetString("feed.url"), v.GetInt("feed.retry_max")),
		ArchivePath:  v.GetString("feed.archive"),
		ArchiveEntry: v.GetString("feed.archive_entry"),
	}

	path := v.GetString("feed.cache")
	if path == "" {
		return l, nil, nil
	}
	cache, err := feed.OpenCache(path)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to open cache %s, %w", path, err)
	}
	l.Cache = cache
	return l, cache, nil
}

func loadFeed(ctx context.Context, v *viper.Viper) (*feed.Document, error) {
	l, cache, err := newLoader(v)
	if err != nil {
		return nil, err
	}
	if cache != nil {
		defer cache.Close()
	}

	doc, err := l.Load(ctx)
	if err != nil {
		return nil, err
	}
	slog.Debug("loaded feed", "series", len(doc.Keys()))
	return doc, nil
}
