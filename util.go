package forecaster

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/aouyang1/go-covid-forecaster/event"
	"github.com/aouyang1/go-covid-forecaster/infection"
	"github.com/aouyang1/go-covid-forecaster/timedataset"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// missing is rendered by echarts as a gap in the line
const missing = "-"

// DateAxis maps calendar days to positions on a shared chart x axis
type DateAxis struct {
	days  timedataset.TimeSlice
	index map[time.Time]int
}

// NewDateAxis covers every day from start to end inclusive
func NewDateAxis(start, end time.Time) *DateAxis {
	days := timedataset.DateRange(start, end)
	index := make(map[time.Time]int, len(days))
	for i, d := range days {
		index[d] = i
	}
	return &DateAxis{days: days, index: index}
}

// Labels returns the x axis labels
func (a *DateAxis) Labels() []string {
	labels := make([]string, len(a.days))
	for i, d := range a.days {
		labels[i] = d.Format(time.DateOnly)
	}
	return labels
}

// LineData places the points on the axis leaving gaps for days without a point
func (a *DateAxis) LineData(pts []timedataset.TimePoint) []opts.LineData {
	data := make([]opts.LineData, len(a.days))
	for i := range data {
		data[i] = opts.LineData{Value: missing}
	}
	for _, p := range pts {
		idx, exists := a.index[p.Date]
		if !exists || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		data[idx] = opts.LineData{Value: p.Value}
	}
	return data
}

// LineTSeries generates an echart multi-line chart for named point series on a shared date axis
func LineTSeries(title string, axis *DateAxis, seriesName []string, pts [][]timedataset.TimePoint) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(
			opts.Title{
				Title: title,
			},
		),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Top: "bottom"}),
		charts.WithInitializationOpts(opts.Initialization{Width: "1400px", Height: "600px"}),
	)

	line = line.SetXAxis(axis.Labels())
	for i, series := range seriesName {
		line = line.AddSeries(series, axis.LineData(pts[i]))
	}
	return line
}

// eventMarks annotates the first series of the chart with vertical lines on each event start
func eventMarks(line *charts.Line, events ...[]event.Event) {
	var items []opts.MarkLineNameXAxisItem
	for _, evs := range events {
		for _, e := range evs {
			items = append(items, opts.MarkLineNameXAxisItem{
				Name:  e.Name,
				XAxis: e.Start.Format(time.DateOnly),
			})
		}
	}
	if len(items) == 0 || len(line.MultiSeries) == 0 {
		return
	}
	line.MultiSeries[0].ConfigureSeriesOpts(charts.WithMarkLineNameXAxisItemOpts(items...))
}

// levelMarks annotates the first series of the chart with horizontal lines
func levelMarks(line *charts.Line, levels []Level) {
	items := make([]opts.MarkLineNameYAxisItem, 0, len(levels))
	for _, l := range levels {
		items = append(items, opts.MarkLineNameYAxisItem{Name: l.Name, YAxis: l.Value})
	}
	if len(items) == 0 || len(line.MultiSeries) == 0 {
		return
	}
	line.MultiSeries[0].ConfigureSeriesOpts(charts.WithMarkLineNameYAxisItemOpts(items...))
}

func predictionPoints(pred *infection.Prediction) ([]timedataset.TimePoint, []timedataset.TimePoint) {
	if pred == nil {
		return nil, nil
	}
	value := make([]timedataset.TimePoint, len(pred.Points))
	delta := make([]timedataset.TimePoint, len(pred.Points))
	for i, p := range pred.Points {
		value[i] = timedataset.TimePoint{Date: p.Date, Value: p.Value}
		delta[i] = timedataset.TimePoint{Date: p.Date, Value: p.Delta}
	}
	return value, delta
}

// VaccinationChart plots the administered doses against every forecast and the supply schedules
func VaccinationChart(res *Results, axis *DateAxis) *charts.Line {
	names := []string{"Vaccinated", "Average"}
	pts := [][]timedataset.TimePoint{res.Vaccinations.Observed, res.Vaccinations.Average}
	for _, f := range res.Forecasts {
		fpts := make([]timedataset.TimePoint, len(f.Points))
		for i, p := range f.Points {
			fpts[i] = timedataset.TimePoint{Date: p.Date, Value: p.Value}
		}
		names = append(names, "Extrapolate "+f.Model)
		pts = append(pts, fpts)
	}
	extra := []struct {
		name string
		pts  []timedataset.TimePoint
	}{
		{"Required pace", res.Pace},
		{"Scheduled this week", res.Planned},
		{"Delivered", res.Delivered},
		{"Delivery estimate", res.DeliveryEstimate},
	}
	for _, e := range extra {
		if len(e.pts) == 0 {
			continue
		}
		names = append(names, e.name)
		pts = append(pts, e.pts)
	}

	line := LineTSeries("Vaccinations per day", axis, names, pts)
	lastObserved := event.NewEvent("last observed", res.LastObserved, res.LastObserved.AddDate(0, 0, 1))
	eventMarks(line, []event.Event{lastObserved}, res.Holidays)
	return line
}

// InfectionChart plots a reported series with its projection
func InfectionChart(title string, series *SeriesResult, pred *infection.Prediction, axis *DateAxis) *charts.Line {
	value, delta := predictionPoints(pred)
	return LineTSeries(
		title,
		axis,
		[]string{"Reported", "Average", "Prediction", "Prediction with variant"},
		[][]timedataset.TimePoint{series.Observed, series.Average, value, delta},
	)
}

// PlotResults uses the Apache Echarts library to generate an html file showing the vaccination
// forecasts, the case and intensive care projections
func PlotResults(res *Results, path string, levels []Level) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return RenderResults(res, file, levels)
}

// RenderResults writes the html page of PlotResults to w
func RenderResults(res *Results, w io.Writer, levels []Level) error {
	if len(res.Vaccinations.Observed) == 0 {
		return fmt.Errorf("no vaccinations to plot, %w", timedataset.ErrNoTrainingData)
	}
	axis := NewDateAxis(res.Vaccinations.Observed[0].Date, res.End())

	page := components.NewPage()
	page.SetPageTitle("covid forecast")
	page.AddCharts(VaccinationChart(res, axis))

	if res.Cases != nil {
		cases := InfectionChart("Cases per day", res.Cases, res.CasePrediction, axis)
		eventMarks(cases, res.Milestones)
		levelMarks(cases, levels)
		page.AddCharts(cases)
	}
	if res.IntensiveCare != nil {
		icu := InfectionChart("IC occupation", res.IntensiveCare, res.IntensiveCarePrediction, axis)
		if res.ICUCapacity > 0 {
			levelMarks(icu, []Level{{Name: "IC capacity for covid", Value: res.ICUCapacity}})
		}
		page.AddCharts(icu)
	}
	return page.Render(w)
}
