package forecast

import (
	"fmt"
	"math"

	"github.com/aouyang1/go-covid-forecaster/growth"
	"github.com/aouyang1/go-covid-forecaster/stats"
	"github.com/aouyang1/go-covid-forecaster/target"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

const regionBacktest = "backtest"

// Backtest is the outcome of forecasting the last holdout days of a series from the days before
type Backtest struct {
	Model     string        `json:"model"`
	Holdout   int           `json:"holdout"`
	Predicted []float64     `json:"predicted"`
	Actual    []float64     `json:"actual"`
	Scores    *stats.Scores `json:"scores"`
}

// RunBacktest fits the growth model on all but the last holdout days, simulates holdout days
// and scores them against what was observed. Days not simulated because the estimate turned
// negative are left out of Predicted and skipped when scoring.
func RunBacktest(td *timedataset.TimeDataset, holdout int, opt *Options) (*Backtest, error) {
	if opt == nil {
		opt = NewDefaultOptions()
	}
	if holdout <= 0 || holdout >= td.Len() {
		return nil, fmt.Errorf("holdout of %d days with %d observed, %w", holdout, td.Len(), timedataset.ErrInsufficientHistory)
	}

	train, err := td.Slice(0, td.Len()-holdout)
	if err != nil {
		return nil, fmt.Errorf("unable to split training days, %w", err)
	}
	actual, err := td.Tail(holdout)
	if err != nil {
		return nil, err
	}

	m, err := growth.Fit(train)
	if err != nil {
		return nil, fmt.Errorf("unable to fit growth model, %w", err)
	}
	origin, err := OriginOf(train)
	if err != nil {
		return nil, err
	}

	tgt := target.Target{{Region: regionBacktest, Level: math.Inf(1)}}
	f, err := Extrapolate(m, origin, tgt, &Options{Model: opt.Model, MaxDays: holdout})
	if err != nil {
		return nil, err
	}

	predicted := f.Values()
	padded := make([]float64, holdout)
	for i := range padded {
		padded[i] = math.NaN()
	}
	copy(padded, predicted)

	scores, err := stats.NewScores(padded, actual)
	if err != nil {
		return nil, fmt.Errorf("unable to score backtest, %w", err)
	}
	return &Backtest{
		Model:     opt.Model,
		Holdout:   holdout,
		Predicted: predicted,
		Actual:    actual,
		Scores:    scores,
	}, nil
}
