package timedataset

import "time"

type TimeSlice []time.Time

func (t TimeSlice) StartTime() time.Time {
	var startTime time.Time
	if len(t) < 1 {
		return startTime
	}
	return t[0]
}

func (t TimeSlice) EndTime() time.Time {
	var lastTime time.Time
	if len(t) < 1 {
		return lastTime
	}

	lastTime = t[len(t)-1]
	return lastTime
}

// Days returns the number of calendar days spanned by the slice, inclusive of both ends.
// The slice is expected to be sorted and hold UTC midnight dates.
func (t TimeSlice) Days() int {
	if len(t) < 1 {
		return 0
	}
	return int(t.EndTime().Sub(t.StartTime())/(24*time.Hour)) + 1
}

// DateRange returns every calendar day from start to end inclusive
func DateRange(start, end time.Time) TimeSlice {
	if end.Before(start) {
		return nil
	}
	var res TimeSlice
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		res = append(res, d)
	}
	return res
}
