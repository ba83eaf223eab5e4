package timedataset

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"
)

var ErrMalformedRecord = errors.New("malformed record")

// Record is a single decoded feed entry keyed by field name. JSON nulls are stored as NaN.
type Record map[string]float64

// Mode determines how the value field of a record is turned into a daily value
type Mode string

const (
	// ModeDirect passes the value field through unchanged
	ModeDirect Mode = "direct"

	// ModeDelta treats the value field as a cumulative counter and emits the day over day
	// difference with an implicit zero before the first record
	ModeDelta Mode = "delta"
)

// GapPolicy determines how missing calendar days and unknown values are filled
type GapPolicy string

const (
	GapZeroFill    GapPolicy = "zero_fill"
	GapInterpolate GapPolicy = "interpolate"
)

const DefaultTimeField = "date_unix"

// BuildOptions configures how a list of records becomes a daily TimeDataset
type BuildOptions struct {
	TimeField  string
	ValueField string
	Mode       Mode
	Gaps       GapPolicy

	// Location is used to find the calendar date of each unix timestamp, defaults to UTC
	Location *time.Location
}

// Day returns the calendar date of the unix timestamp in loc as UTC midnight
func Day(unix int64, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t := time.Unix(unix, 0).In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Build converts the records into a daily dataset covering every calendar day from the first to
// the last record. Records on the same day are averaged and missing days are filled according to
// the gap policy.
func Build(records []Record, opt BuildOptions) (*TimeDataset, error) {
	if len(records) == 0 {
		return nil, ErrNoTrainingData
	}
	timeField := opt.TimeField
	if timeField == "" {
		timeField = DefaultTimeField
	}

	type daily struct {
		sum float64
		cnt int
	}
	days := make(map[time.Time]*daily)

	var prev float64
	for i, rec := range records {
		ts, exists := rec[timeField]
		if !exists || math.IsNaN(ts) {
			return nil, fmt.Errorf("record %d missing %s, %w", i, timeField, ErrMalformedRecord)
		}
		val, exists := rec[opt.ValueField]
		if !exists {
			return nil, fmt.Errorf("record %d missing %s, %w", i, opt.ValueField, ErrMalformedRecord)
		}

		switch opt.Mode {
		case ModeDelta:
			if math.IsNaN(val) {
				return nil, fmt.Errorf("record %d has null counter %s, %w", i, opt.ValueField, ErrMalformedRecord)
			}
			val, prev = val-prev, val
		case ModeDirect, "":
		default:
			return nil, fmt.Errorf("unknown mode %q, %w", opt.Mode, ErrMalformedRecord)
		}

		day := Day(int64(ts), opt.Location)
		d, exists := days[day]
		if !exists {
			d = &daily{}
			days[day] = d
		}
		// unknown values do not count towards the daily mean
		if math.IsNaN(val) {
			continue
		}
		d.sum += val
		d.cnt++
	}

	known := make(TimeSlice, 0, len(days))
	for day := range days {
		known = append(known, day)
	}
	sort.Slice(known, func(i, j int) bool { return known[i].Before(known[j]) })

	n := known.Days()
	t := make([]time.Time, n)
	y := make([]float64, n)
	start := known.StartTime()
	for i := 0; i < n; i++ {
		t[i] = start.AddDate(0, 0, i)
		y[i] = math.NaN()
		if d, exists := days[t[i]]; exists && d.cnt > 0 {
			y[i] = d.sum / float64(d.cnt)
		}
	}

	switch opt.Gaps {
	case GapInterpolate:
		interpolate(y)
	default:
		for i := range y {
			if math.IsNaN(y[i]) {
				y[i] = 0
			}
		}
	}

	return NewUnivariateDataset(t, y)
}

// interpolate linearly fills NaNs between known neighbours in place. Leading and trailing NaNs take
// the nearest known value. A slice without any known values is left untouched.
func interpolate(y []float64) {
	last := -1
	for i := 0; i < len(y); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		if last == -1 {
			for j := 0; j < i; j++ {
				y[j] = y[i]
			}
		} else if i-last > 1 {
			step := (y[i] - y[last]) / float64(i-last)
			for j := last + 1; j < i; j++ {
				y[j] = y[last] + step*float64(j-last)
			}
		}
		last = i
	}
	if last == -1 {
		return
	}
	for j := last + 1; j < len(y); j++ {
		y[j] = y[last]
	}
}
