// Package supply turns planned administrations and vaccine deliveries into per day series
package supply

import (
	"errors"
	"fmt"
	"time"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

var ErrInvalidPeriod = errors.New("period ends before it starts")

const (
	FieldStartUnix = "date_start_unix"
	FieldEndUnix   = "date_end_unix"
	FieldDoses     = "doses"
	FieldTotal     = "total"
)

// Options configures the field names and calendar location of the period records
type Options struct {
	StartField string
	EndField   string
	ValueField string
	Location   *time.Location
}

func (o Options) withDefaults(valueField string) Options {
	if o.StartField == "" {
		o.StartField = FieldStartUnix
	}
	if o.EndField == "" {
		o.EndField = FieldEndUnix
	}
	if o.ValueField == "" {
		o.ValueField = valueField
	}
	return o
}

func (o Options) period(rec timedataset.Record) (timedataset.TimeSlice, error) {
	start, exists := rec[o.StartField]
	if !exists {
		return nil, fmt.Errorf("missing %s, %w", o.StartField, timedataset.ErrMalformedRecord)
	}
	end, exists := rec[o.EndField]
	if !exists {
		return nil, fmt.Errorf("missing %s, %w", o.EndField, timedataset.ErrMalformedRecord)
	}
	days := timedataset.DateRange(
		timedataset.Day(int64(start), o.Location),
		timedataset.Day(int64(end), o.Location),
	)
	if len(days) == 0 {
		return nil, ErrInvalidPeriod
	}
	return days, nil
}

// WeekPlanning spreads the planned doses of the record evenly over its period
func WeekPlanning(rec timedataset.Record, opt Options) ([]timedataset.TimePoint, error) {
	opt = opt.withDefaults(FieldDoses)
	days, err := opt.period(rec)
	if err != nil {
		return nil, err
	}
	doses, exists := rec[opt.ValueField]
	if !exists {
		return nil, fmt.Errorf("missing %s, %w", opt.ValueField, timedataset.ErrMalformedRecord)
	}

	perDay := doses / float64(len(days))
	pts := make([]timedataset.TimePoint, len(days))
	for i, d := range days {
		pts[i] = timedataset.TimePoint{Date: d, Value: perDay}
	}
	return pts, nil
}

// Deliveries spreads the increase of the cumulative total of each record evenly over its period.
// Estimated records continue from the last delivered total. The returned previous total is the
// last cumulative total seen.
func Deliveries(records []timedataset.Record, prev float64, opt Options) ([]timedataset.TimePoint, float64, error) {
	opt = opt.withDefaults(FieldTotal)

	var pts []timedataset.TimePoint
	for i, rec := range records {
		days, err := opt.period(rec)
		if err != nil {
			return nil, 0, fmt.Errorf("record %d, %w", i, err)
		}
		total, exists := rec[opt.ValueField]
		if !exists {
			return nil, 0, fmt.Errorf("record %d missing %s, %w", i, opt.ValueField, timedataset.ErrMalformedRecord)
		}

		perDay := (total - prev) / float64(len(days))
		for _, d := range days {
			pts = append(pts, timedataset.TimePoint{Date: d, Value: perDay})
		}
		prev = total
	}
	return pts, prev, nil
}
