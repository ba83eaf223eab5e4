package forecaster

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/aouyang1/go-covid-forecaster/event"
	"github.com/aouyang1/go-covid-forecaster/forecast"
	"github.com/aouyang1/go-covid-forecaster/growth"
	"github.com/aouyang1/go-covid-forecaster/infection"
	"github.com/aouyang1/go-covid-forecaster/target"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/goccy/go-json"
)

// SeriesResult is an observed daily series with its rolling average
type SeriesResult struct {
	Observed []timedataset.TimePoint `json:"observed"`
	Average  []timedataset.TimePoint `json:"average"`
}

// NewSeriesResult returns the series with the average shifted left by shift days
func NewSeriesResult(td *timedataset.TimeDataset, shift int) SeriesResult {
	observed, average := alignedPoints(td, shift)
	return SeriesResult{Observed: observed, Average: average}
}

// Results holds every output of a forecasting run
type Results struct {
	GeneratedAt  time.Time `json:"generated_at"`
	LastObserved time.Time `json:"last_observed"`

	Vaccinations SeriesResult         `json:"vaccinations"`
	Target       *target.Estimate     `json:"target"`
	Growth       *growth.Model        `json:"growth,omitempty"`
	Forecasts    []*forecast.Forecast `json:"forecasts"`

	Planned          []timedataset.TimePoint `json:"planned,omitempty"`
	Delivered        []timedataset.TimePoint `json:"delivered,omitempty"`
	DeliveryEstimate []timedataset.TimePoint `json:"delivery_estimate,omitempty"`
	Pace             []timedataset.TimePoint `json:"pace,omitempty"`

	Cases                   *SeriesResult         `json:"cases,omitempty"`
	CasePrediction          *infection.Prediction `json:"case_prediction,omitempty"`
	IntensiveCare           *SeriesResult         `json:"intensive_care,omitempty"`
	IntensiveCarePrediction *infection.Prediction `json:"intensive_care_prediction,omitempty"`
	ICUCapacity             float64               `json:"icu_capacity,omitempty"`

	Holidays   []event.Event `json:"holidays,omitempty"`
	Milestones []event.Event `json:"milestones,omitempty"`
}

// End returns the last date covered by any forecast, projection or schedule
func (r *Results) End() time.Time {
	end := r.LastObserved
	later := func(t time.Time) {
		if t.After(end) {
			end = t
		}
	}
	for _, f := range r.Forecasts {
		later(f.End())
	}
	for _, pred := range []*infection.Prediction{r.CasePrediction, r.IntensiveCarePrediction} {
		if pred != nil && len(pred.Points) > 0 {
			later(pred.Points[len(pred.Points)-1].Date)
		}
	}
	for _, pts := range [][]timedataset.TimePoint{r.Planned, r.Delivered, r.DeliveryEstimate, r.Pace} {
		if len(pts) > 0 {
			later(pts[len(pts)-1].Date)
		}
	}
	return end
}

// Forecast returns the forecast of the named model or nil
func (r *Results) Forecast(model string) *forecast.Forecast {
	for _, f := range r.Forecasts {
		if f.Model == model {
			return f
		}
	}
	return nil
}

// WriteJSON encodes the results as indented json
func (r *Results) WriteJSON(w io.Writer) error {
	out, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to encode results, %w", err)
	}
	_, err = w.Write(out)
	return err
}

// TablePrint writes a human readable summary of the results
func (r *Results) TablePrint(w io.Writer, prefix, indent string) error {
	if _, err := fmt.Fprintf(w, "%s%sLast Observed: %s\n", prefix, indentExpand(indent, 0), r.LastObserved.Format(time.DateOnly)); err != nil {
		return err
	}

	if r.Target != nil {
		if _, err := fmt.Fprintf(w, "%s%sTarget:\n", prefix, indentExpand(indent, 0)); err != nil {
			return err
		}
		tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
		if _, err := fmt.Fprintf(tbl, "%s%sRegion\tLevel\t\n", prefix, indentExpand(indent, 1)); err != nil {
			return err
		}
		for _, th := range r.Target.Target {
			if _, err := fmt.Fprintf(tbl, "%s%s%s\t%.0f\t\n", prefix, indentExpand(indent, 1), th.Region, th.Level); err != nil {
				return err
			}
		}
		if err := tbl.Flush(); err != nil {
			return err
		}
	}

	if r.Growth != nil {
		if _, err := fmt.Fprintf(w, "%s%sWeekly Growth: %.3f\n", prefix, indentExpand(indent, 0), r.Growth.GrowthRatio); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "%s%sForecasts:\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sModel\tDays\tEnd\tCumulative\tStop\t\n", prefix, indentExpand(indent, 1)); err != nil {
		return err
	}
	for _, f := range r.Forecasts {
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%d\t%s\t%.0f\t%s\t\n",
			prefix, indentExpand(indent, 1),
			f.Model, len(f.Points), f.End().Format(time.DateOnly), f.Cumulative, f.StopReason); err != nil {
			return err
		}
	}
	if err := tbl.Flush(); err != nil {
		return err
	}

	preds := []struct {
		name string
		pred *infection.Prediction
	}{
		{"Cases", r.CasePrediction},
		{"Intensive Care", r.IntensiveCarePrediction},
	}
	for _, p := range preds {
		if p.pred == nil || len(p.pred.Points) == 0 {
			continue
		}
		last := p.pred.Points[len(p.pred.Points)-1]
		if _, err := fmt.Fprintf(w, "%s%s%s Projection:\n", prefix, indentExpand(indent, 0), p.name); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%sDaily: %.3f    Variant Daily: %.3f    Variant Share: %.2f -> %.2f\n",
			prefix, indentExpand(indent, 1),
			p.pred.Rates.DailyChange,
			p.pred.Rates.DeltaDailyChange,
			p.pred.Rates.NowShare,
			p.pred.Rates.SoonShare,
		); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s%s%s: %.0f    With Variant: %.0f\n",
			prefix, indentExpand(indent, 1),
			last.Date.Format(time.DateOnly), last.Value, last.Delta,
		); err != nil {
			return err
		}
	}

	if r.ICUCapacity > 0 {
		if _, err := fmt.Fprintf(w, "%s%sIC Capacity: %.0f\n", prefix, indentExpand(indent, 0), r.ICUCapacity); err != nil {
			return err
		}
	}
	return nil
}

// BacktestTablePrint writes the scores of each backtest
func BacktestTablePrint(w io.Writer, backtests []*forecast.Backtest, prefix, indent string) error {
	tbl := tabwriter.NewWriter(w, 0, 0, 1, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintf(tbl, "%s%sModel\tHoldout\tSimulated\tMAPE\tMSE\tR2\t\n", prefix, indentExpand(indent, 0)); err != nil {
		return err
	}
	for _, bt := range backtests {
		if bt.Scores == nil {
			continue
		}
		if _, err := fmt.Fprintf(tbl, "%s%s%s\t%d\t%d\t%.3f\t%.3f\t%.3f\t\n",
			prefix, indentExpand(indent, 0),
			bt.Model, bt.Holdout, len(bt.Predicted),
			bt.Scores.MAPE, bt.Scores.MSE, bt.Scores.R2); err != nil {
			return err
		}
	}
	return tbl.Flush()
}

func indentExpand(indent string, growth int) string {
	indentByte := []byte(indent)
	out := make([]byte, 0, len(indent)*growth)
	for i := 0; i < growth; i++ {
		out = append(out, indentByte...)
	}
	return string(out)
}
