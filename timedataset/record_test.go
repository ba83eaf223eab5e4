package timedataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unix(year int, month time.Month, day int) float64 {
	return float64(time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Unix())
}

func TestBuild(t *testing.T) {
	testData := map[string]struct {
		records   []Record
		opt       BuildOptions
		expectedT []time.Time
		expectedY []float64
		err       error
	}{
		"no records": {
			err: ErrNoTrainingData,
		},
		"missing time field": {
			records: []Record{{"estimated": 1}},
			opt:     BuildOptions{ValueField: "estimated"},
			err:     ErrMalformedRecord,
		},
		"missing value field": {
			records: []Record{{"date_unix": unix(2021, 1, 1)}},
			opt:     BuildOptions{ValueField: "estimated"},
			err:     ErrMalformedRecord,
		},
		"null counter in delta mode": {
			records: []Record{{"date_unix": unix(2021, 1, 1), "estimated": math.NaN()}},
			opt:     BuildOptions{ValueField: "estimated", Mode: ModeDelta},
			err:     ErrMalformedRecord,
		},
		"unknown mode": {
			records: []Record{{"date_unix": unix(2021, 1, 1), "estimated": 1}},
			opt:     BuildOptions{ValueField: "estimated", Mode: "cumulative"},
			err:     ErrMalformedRecord,
		},
		"delta against implicit zero": {
			records: []Record{
				{"date_unix": unix(2021, 1, 1), "estimated": 100},
				{"date_unix": unix(2021, 1, 2), "estimated": 150},
				{"date_unix": unix(2021, 1, 3), "estimated": 225},
			},
			opt: BuildOptions{ValueField: "estimated", Mode: ModeDelta, Gaps: GapZeroFill},
			expectedT: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
			},
			expectedY: []float64{100, 50, 75},
		},
		"zero fill missing days": {
			records: []Record{
				{"date_unix": unix(2021, 1, 1), "estimated": 100},
				{"date_unix": unix(2021, 1, 4), "estimated": 160},
			},
			opt: BuildOptions{ValueField: "estimated", Mode: ModeDelta, Gaps: GapZeroFill},
			expectedT: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
			},
			expectedY: []float64{100, 0, 0, 60},
		},
		"interpolate missing days and nulls": {
			records: []Record{
				{"date_unix": unix(2021, 1, 4), "beds": 40},
				{"date_unix": unix(2021, 1, 1), "beds": 10},
				{"date_unix": unix(2021, 1, 5), "beds": math.NaN()},
				{"date_unix": unix(2021, 1, 6), "beds": 60},
			},
			opt: BuildOptions{ValueField: "beds", Gaps: GapInterpolate},
			expectedT: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 6, 0, 0, 0, 0, time.UTC),
			},
			expectedY: []float64{10, 20, 30, 40, 50, 60},
		},
		"interpolate edges take nearest": {
			records: []Record{
				{"date_unix": unix(2021, 1, 1), "beds": math.NaN()},
				{"date_unix": unix(2021, 1, 2), "beds": 20},
				{"date_unix": unix(2021, 1, 3), "beds": math.NaN()},
			},
			opt: BuildOptions{ValueField: "beds", Gaps: GapInterpolate},
			expectedT: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 3, 0, 0, 0, 0, time.UTC),
			},
			expectedY: []float64{20, 20, 20},
		},
		"same day records are averaged": {
			records: []Record{
				{"date_unix": unix(2021, 1, 1), "infected": 10},
				{"date_unix": unix(2021, 1, 1) + 60, "infected": 30},
				{"date_unix": unix(2021, 1, 2), "infected": 5},
			},
			opt: BuildOptions{ValueField: "infected"},
			expectedT: []time.Time{
				time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
				time.Date(2021, 1, 2, 0, 0, 0, 0, time.UTC),
			},
			expectedY: []float64{20, 5},
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			ds, err := Build(td.records, td.opt)
			if td.err != nil {
				assert.ErrorIs(t, err, td.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, td.expectedT, ds.T)
			assert.InDeltaSlice(t, td.expectedY, ds.Y, 1e-9)
		})
	}
}

func TestBuildZeroFillCoversEveryDay(t *testing.T) {
	start := time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)
	days := []int{0, 3, 4, 10, 31, 32, 60}

	counter := 0.0
	records := make([]Record, 0, len(days))
	for _, d := range days {
		counter += 1000
		records = append(records, Record{
			"date_unix": float64(start.AddDate(0, 0, d).Unix()),
			"estimated": counter,
		})
	}

	ds, err := Build(records, BuildOptions{ValueField: "estimated", Mode: ModeDelta, Gaps: GapZeroFill})
	require.NoError(t, err)

	first, last := ds.T[0], ds.T[len(ds.T)-1]
	assert.Equal(t, int(last.Sub(first).Hours()/24)+1, ds.Len())
	assert.Equal(t, counter, ds.Total())
}

func TestDay(t *testing.T) {
	ams, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// 23:30 UTC on the 1st is already the 2nd in Amsterdam
	ts := time.Date(2021, 3, 1, 23, 30, 0, 0, time.UTC).Unix()
	assert.Equal(t, time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Day(ts, nil))
	assert.Equal(t, time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC), Day(ts, ams))
}
