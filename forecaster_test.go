package forecaster

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/aouyang1/go-covid-forecaster/feed"
	"github.com/aouyang1/go-covid-forecaster/forecast"
	"github.com/aouyang1/go-covid-forecaster/infection"
	"github.com/aouyang1/go-covid-forecaster/target"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixtureNow = fixtureEnd.Add(12 * time.Hour)

func TestRun(t *testing.T) {
	doc := buildFeed(t, newFixtureSeries())

	res, err := Run(doc, testOptions(), fixtureNow)
	require.NoError(t, err)

	assert.Equal(t, fixtureEnd, res.LastObserved)
	assert.Len(t, res.Vaccinations.Observed, fixtureDays)
	assert.Len(t, res.Vaccinations.Average, fixtureDays-6)

	require.NotNil(t, res.Target)
	assert.Equal(t, []string{target.RegionFirst, target.RegionAdults, target.RegionKids}, res.Target.Target.Regions())
	assert.InDelta(t, 0.1, res.Target.SingleDoseShare, 1e-9)

	require.NotNil(t, res.Growth)
	require.Len(t, res.Forecasts, 2)
	for _, f := range res.Forecasts {
		assert.Equal(t, forecast.StopTarget, f.StopReason, f.Model)
		assert.GreaterOrEqual(t, f.Cumulative, res.Target.Target.Final().Level)
		assert.Equal(t, fixtureEnd.AddDate(0, 0, 1), f.Points[0].Date)
	}
	assert.NotNil(t, res.Forecast(forecast.ModelLinear))
	assert.Nil(t, res.Forecast(forecast.ModelExponential))

	require.Len(t, res.Planned, 7)
	assert.InDelta(t, 200_000.0, res.Planned[0].Value, 1e-9)
	assert.Len(t, res.Delivered, 14)
	assert.InDelta(t, 1_000_000.0, res.Delivered[0].Value, 1e-9)
	require.Len(t, res.DeliveryEstimate, 7)
	assert.InDelta(t, 100_000.0, res.DeliveryEstimate[0].Value, 1e-9)

	require.NotEmpty(t, res.Pace)
	assert.Equal(t, fixtureEnd, res.Pace[0].Date)
	assert.Equal(t, time.Date(2021, 9, 1, 0, 0, 0, 0, time.UTC), res.Pace[len(res.Pace)-1].Date)

	require.NotNil(t, res.Cases)
	assert.Len(t, res.Cases.Observed, fixtureDays)
	require.NotNil(t, res.CasePrediction)
	assert.Len(t, res.CasePrediction.Points, infection.DefaultHorizon)
	assert.InDelta(t, 0.45, res.CasePrediction.Rates.NowShare, 1e-9)
	require.NotNil(t, res.IntensiveCarePrediction)
	assert.Equal(t, 550.0, res.ICUCapacity)

	var holidays []time.Time
	for _, h := range res.Holidays {
		holidays = append(holidays, h.Start)
	}
	assert.Contains(t, holidays, time.Date(2021, 4, 27, 0, 0, 0, 0, time.UTC))
	assert.Contains(t, holidays, time.Date(2021, 5, 13, 0, 0, 0, 0, time.UTC))
	assert.False(t, res.End().Before(res.Forecasts[0].End()))
}

func TestRunInterpolatesCases(t *testing.T) {
	fs := newFixtureSeries()
	res, err := Run(buildFeed(t, fs), testOptions(), fixtureNow)
	require.NoError(t, err)

	missing := res.Cases.Observed[30]
	assert.Equal(t, fixtureStart.AddDate(0, 0, 30), missing.Date)
	assert.InDelta(t, (fs.infected[29]+fs.infected[31])/2, missing.Value, 1e-9)
}

func TestRunShift(t *testing.T) {
	opt := testOptions()
	opt.Shift = 3

	res, err := Run(buildFeed(t, newFixtureSeries()), opt, fixtureNow)
	require.NoError(t, err)

	assert.Len(t, res.Cases.Observed, fixtureDays-3)
	// the first six averages are undefined and three of them shift out of range
	assert.Len(t, res.Cases.Average, fixtureDays-3-3)
	assert.Len(t, res.Vaccinations.Observed, fixtureDays)
	require.NotNil(t, res.CasePrediction)
	assert.Equal(t, fixtureEnd.AddDate(0, 0, -2), res.CasePrediction.Points[0].Date)
}

func TestRunOptionalSeries(t *testing.T) {
	doc := buildFeed(t, newFixtureSeries(),
		feed.KeyTested,
		feed.KeyIntensiveCare,
		feed.KeyVariants,
		feed.KeyAdministeredPlanned,
		feed.KeyDelivery,
	)
	opt := testOptions()
	opt.Holidays = false

	res, err := Run(doc, opt, fixtureNow)
	require.NoError(t, err)
	assert.Nil(t, res.Cases)
	assert.Nil(t, res.CasePrediction)
	assert.Nil(t, res.IntensiveCare)
	assert.Nil(t, res.Planned)
	assert.Nil(t, res.Delivered)
	assert.Nil(t, res.DeliveryEstimate)
	assert.Empty(t, res.Holidays)
	assert.Zero(t, res.ICUCapacity)
	assert.NotEmpty(t, res.Forecasts)

	// cases without a variant share are still reported
	doc = buildFeed(t, newFixtureSeries(), feed.KeyVariants)
	res, err = Run(doc, testOptions(), fixtureNow)
	require.NoError(t, err)
	assert.NotNil(t, res.Cases)
	assert.Nil(t, res.CasePrediction)
}

func TestRunErrors(t *testing.T) {
	testData := map[string]struct {
		drop   []string
		modify func(opt *Options)
		err    error
	}{
		"no vaccinations": {
			drop: []string{feed.KeyAdministered},
			err:  feed.ErrMissingSeries,
		},
		"no support": {
			drop: []string{feed.KeySupport},
			err:  feed.ErrMissingSeries,
		},
		"no supplier deliveries": {
			drop: []string{feed.KeyDeliveryPerSupplier},
			err:  feed.ErrMissingSeries,
		},
		"no models": {
			modify: func(opt *Options) { opt.Models = nil },
			err:    ErrNoModels,
		},
		"unsupported model": {
			modify: func(opt *Options) { opt.Models = []string{forecast.ModelLinear, "logistic"} },
			err:    forecast.ErrUnsupportedModel,
		},
		"no deliveries counted": {
			modify: func(opt *Options) { opt.Suppliers = []string{"novavax"} },
			err:    target.ErrInsufficientData,
		},
	}

	for name, td := range testData {
		t.Run(name, func(t *testing.T) {
			opt := testOptions()
			if td.modify != nil {
				td.modify(opt)
			}
			_, err := Run(buildFeed(t, newFixtureSeries(), td.drop...), opt, fixtureNow)
			assert.ErrorIs(t, err, td.err)
		})
	}
}

func TestRunNullSupport(t *testing.T) {
	raw := string(buildFeed(t, newFixtureSeries()).Raw())
	field := `"` + FieldSupport + `":85`
	require.Contains(t, raw, field)

	doc, err := feed.Parse([]byte(strings.ReplaceAll(raw, field, `"`+FieldSupport+`":null`)))
	require.NoError(t, err)

	_, err = Run(doc, testOptions(), fixtureNow)
	assert.ErrorIs(t, err, target.ErrSupportOutOfRange)
}

func TestRunSkipsUnusableExponential(t *testing.T) {
	fs := newFixtureSeries()
	// nothing administered the week before the last
	for i := fixtureDays - 15; i < fixtureDays-8; i++ {
		fs.administered[i] = 0
	}

	opt := testOptions()
	opt.Models = []string{forecast.ModelExponential}
	_, err := Run(buildFeed(t, fs), opt, fixtureNow)
	assert.ErrorIs(t, err, ErrNoForecast)

	opt.Models = forecast.Models
	res, err := Run(buildFeed(t, fs), opt, fixtureNow)
	require.NoError(t, err)
	assert.Nil(t, res.Growth)
	assert.Len(t, res.Forecasts, 2)
	assert.Nil(t, res.Forecast(forecast.ModelExponential))
}

func TestRunBacktests(t *testing.T) {
	opt := testOptions()
	opt.Models = forecast.Models

	backtests, err := RunBacktests(buildFeed(t, newFixtureSeries()), opt, 14)
	require.NoError(t, err)
	require.Len(t, backtests, len(forecast.Models))
	for i, bt := range backtests {
		assert.Equal(t, forecast.Models[i], bt.Model)
		assert.Equal(t, 14, bt.Holdout)
		assert.Len(t, bt.Actual, 14)
		require.NotNil(t, bt.Scores)
	}

	var buf bytes.Buffer
	require.NoError(t, BacktestTablePrint(&buf, backtests, "", "  "))
	assert.Contains(t, buf.String(), forecast.ModelNoGrowth)

	_, err = RunBacktests(buildFeed(t, newFixtureSeries()), opt, fixtureDays)
	assert.ErrorIs(t, err, timedataset.ErrInsufficientHistory)
}

func TestResultsOutput(t *testing.T) {
	res, err := Run(buildFeed(t, newFixtureSeries()), testOptions(), fixtureNow)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, res.WriteJSON(&buf))

	var decoded Results
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, res.LastObserved, decoded.LastObserved)
	assert.Len(t, decoded.Forecasts, len(res.Forecasts))
	assert.Equal(t, res.Target.Target, decoded.Target.Target)

	buf.Reset()
	require.NoError(t, res.TablePrint(&buf, "", "  "))
	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Last Observed: "+fixtureEnd.Format(time.DateOnly)))
	assert.Contains(t, out, "Forecasts:")
	assert.Contains(t, out, forecast.StopTarget)
	assert.Contains(t, out, "Cases Projection:")
	assert.Contains(t, out, "IC Capacity: 550")

	buf.Reset()
	require.NoError(t, RenderResults(res, &buf, testOptions().CaseLevels))
	page := buf.String()
	assert.Contains(t, page, "Vaccinations per day")
	assert.Contains(t, page, "Cases per day")
	assert.Contains(t, page, "IC occupation")
	assert.Contains(t, page, "zorgelijk")

	assert.Error(t, RenderResults(&Results{}, &buf, nil))
}
