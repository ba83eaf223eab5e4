package supply

import (
	"testing"
	"time"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unix(year int, month time.Month, day int) float64 {
	return float64(time.Date(year, month, day, 12, 0, 0, 0, time.UTC).Unix())
}

func TestWeekPlanning(t *testing.T) {
	rec := timedataset.Record{
		FieldStartUnix: unix(2021, 7, 5),
		FieldEndUnix:   unix(2021, 7, 11),
		FieldDoses:     700_000,
	}

	pts, err := WeekPlanning(rec, Options{})
	require.NoError(t, err)
	require.Len(t, pts, 7)
	assert.Equal(t, time.Date(2021, 7, 5, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, time.Date(2021, 7, 11, 0, 0, 0, 0, time.UTC), pts[6].Date)
	for _, p := range pts {
		assert.InDelta(t, 100_000.0, p.Value, 1e-9)
	}
}

func TestWeekPlanningErrors(t *testing.T) {
	testData := map[string]struct {
		rec timedataset.Record
		err error
	}{
		"missing start": {
			rec: timedataset.Record{FieldEndUnix: unix(2021, 7, 11), FieldDoses: 1},
			err: timedataset.ErrMalformedRecord,
		},
		"missing doses": {
			rec: timedataset.Record{FieldStartUnix: unix(2021, 7, 5), FieldEndUnix: unix(2021, 7, 11)},
			err: timedataset.ErrMalformedRecord,
		},
		"reversed period": {
			rec: timedataset.Record{FieldStartUnix: unix(2021, 7, 11), FieldEndUnix: unix(2021, 7, 5), FieldDoses: 1},
			err: ErrInvalidPeriod,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			_, err := WeekPlanning(td.rec, Options{})
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestDeliveries(t *testing.T) {
	delivered := []timedataset.Record{
		{FieldStartUnix: unix(2021, 6, 28), FieldEndUnix: unix(2021, 7, 4), FieldTotal: 1400},
		{FieldStartUnix: unix(2021, 7, 5), FieldEndUnix: unix(2021, 7, 11), FieldTotal: 2100},
	}
	estimated := []timedataset.Record{
		{FieldStartUnix: unix(2021, 7, 12), FieldEndUnix: unix(2021, 7, 14), FieldTotal: 2400},
	}

	pts, prev, err := Deliveries(delivered, 0, Options{})
	require.NoError(t, err)
	require.Len(t, pts, 14)
	assert.InDelta(t, 200.0, pts[0].Value, 1e-9)
	assert.InDelta(t, 100.0, pts[13].Value, 1e-9)
	assert.Equal(t, 2100.0, prev)

	pts, prev, err = Deliveries(estimated, prev, Options{})
	require.NoError(t, err)
	require.Len(t, pts, 3)
	assert.InDelta(t, 100.0, pts[0].Value, 1e-9)
	assert.Equal(t, time.Date(2021, 7, 12, 0, 0, 0, 0, time.UTC), pts[0].Date)
	assert.Equal(t, 2400.0, prev)

	_, _, err = Deliveries([]timedataset.Record{{FieldStartUnix: unix(2021, 7, 12), FieldEndUnix: unix(2021, 7, 14)}}, 0, Options{})
	assert.ErrorIs(t, err, timedataset.ErrMalformedRecord)
}

func TestDeliveriesLocation(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Amsterdam")
	require.NoError(t, err)

	// 23:30 UTC on the 4th is already the 5th in Amsterdam
	start := float64(time.Date(2021, 7, 4, 23, 30, 0, 0, time.UTC).Unix())
	end := float64(time.Date(2021, 7, 5, 12, 0, 0, 0, time.UTC).Unix())
	pts, _, err := Deliveries([]timedataset.Record{{FieldStartUnix: start, FieldEndUnix: end, FieldTotal: 10}}, 0, Options{Location: loc})
	require.NoError(t, err)
	require.Len(t, pts, 1)
	assert.Equal(t, 10.0, pts[0].Value)
}
