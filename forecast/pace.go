package forecast

import (
	"fmt"
	"time"

	"github.com/aouyang1/go-covid-forecaster/timedataset"
)

// RequiredPace spreads the remainder between the origin total and level evenly over every day
// from the origin date up to and including the deadline
func RequiredPace(origin Origin, level float64, deadline time.Time) ([]timedataset.TimePoint, error) {
	days := timedataset.DateRange(origin.Date, deadline)
	if len(days) == 0 {
		return nil, fmt.Errorf(
			"deadline %s before %s, %w",
			deadline.Format(time.DateOnly), origin.Date.Format(time.DateOnly), ErrInsufficientData,
		)
	}

	perDay := (level - origin.Total) / float64(len(days))
	pts := make([]timedataset.TimePoint, len(days))
	for i, d := range days {
		pts[i] = timedataset.TimePoint{Date: d, Value: perDay}
	}
	return pts, nil
}
