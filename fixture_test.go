package forecaster

import (
	"testing"
	"time"

	"github.com/aouyang1/go-covid-forecaster/feed"
	"github.com/aouyang1/go-covid-forecaster/supply"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"
)

const fixtureDays = 70

var (
	fixtureStart = time.Date(2021, 4, 26, 0, 0, 0, 0, time.UTC)
	fixtureEnd   = fixtureStart.AddDate(0, 0, fixtureDays-1)
)

// fixtureSeries holds the daily values a synthetic feed is generated from
type fixtureSeries struct {
	administered timedataset.Series
	infected     timedataset.Series
	beds         timedataset.Series
}

func newFixtureSeries() fixtureSeries {
	weekly := [7]float64{5000, 5000, 5000, 5000, 5000, -10000, -15000}
	return fixtureSeries{
		administered: timedataset.GenerateGrowthY(fixtureDays, 80_000, 1.03).
			Add(timedataset.GenerateWeeklyY(fixtureDays, weekly)),
		infected: timedataset.GenerateGrowthY(fixtureDays, 4000, 0.8),
		beds:     timedataset.GenerateGrowthY(fixtureDays, 500, 0.9),
	}
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}

func series(values []timedataset.Record) map[string]interface{} {
	s := map[string]interface{}{"values": values}
	if len(values) > 0 {
		s["last_value"] = values[len(values)-1]
	}
	return s
}

// buildFeed encodes a dashboard document for the series. Keys listed in drop are left out.
func buildFeed(tb testing.TB, fs fixtureSeries, drop ...string) *feed.Document {
	tb.Helper()
	days := timedataset.GenerateDays(fixtureDays, fixtureStart)

	// one day of cases is never reported
	cases := fs.infected.Records(days, FieldInfected)
	cases = append(cases[:30], cases[31:]...)

	icu := series(fs.beds.Records(days, FieldBedsCovid))
	icu["last_value"].(timedataset.Record)[FieldBedsNonCovid] = 800

	weekStart := fixtureEnd.AddDate(0, 0, 1)
	delivery := []timedataset.Record{
		{supply.FieldStartUnix: unix(fixtureEnd.AddDate(0, 0, -13)), supply.FieldEndUnix: unix(fixtureEnd.AddDate(0, 0, -7)), supply.FieldTotal: 7_000_000},
		{supply.FieldStartUnix: unix(fixtureEnd.AddDate(0, 0, -6)), supply.FieldEndUnix: unix(fixtureEnd), supply.FieldTotal: 8_400_000},
	}
	estimate := []timedataset.Record{
		{supply.FieldStartUnix: unix(weekStart), supply.FieldEndUnix: unix(weekStart.AddDate(0, 0, 6)), supply.FieldTotal: 9_100_000},
	}

	doc := map[string]interface{}{
		feed.KeyAdministered:  series(fs.administered.Cumulative().Records(days, FieldEstimated)),
		feed.KeyTested:        series(cases),
		feed.KeyIntensiveCare: icu,
		feed.KeyDeliveryPerSupplier: series([]timedataset.Record{
			{"astra_zeneca": 1_000_000, "bio_n_tech_pfizer": 4_000_000, "janssen": 500_000, "moderna": 1_000_000, timedataset.DefaultTimeField: unix(fixtureStart)},
			{"bio_n_tech_pfizer": 2_000_000, "janssen": 500_000, "moderna": 1_000_000, timedataset.DefaultTimeField: unix(fixtureEnd)},
		}),
		feed.KeySupport: series([]timedataset.Record{
			{FieldSupport: 85, timedataset.DefaultTimeField: unix(fixtureEnd)},
		}),
		feed.KeyVariants: series([]timedataset.Record{
			{FieldVariantShare: 30, FieldVariantFreshness: unix(fixtureEnd.AddDate(0, 0, -14))},
		}),
		feed.KeyAdministeredPlanned: series([]timedataset.Record{
			{supply.FieldStartUnix: unix(weekStart), supply.FieldEndUnix: unix(weekStart.AddDate(0, 0, 6)), supply.FieldDoses: 1_400_000},
		}),
		feed.KeyDelivery:         series(delivery),
		feed.KeyDeliveryEstimate: series(estimate),
	}
	for _, key := range drop {
		delete(doc, key)
	}

	raw, err := json.Marshal(doc)
	require.NoError(tb, err)
	parsed, err := feed.Parse(raw)
	require.NoError(tb, err)
	return parsed
}

func testOptions() *Options {
	opt := NewDefaultOptions()
	opt.Location = time.UTC
	return opt
}
