package event

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rickar/cal/v2"
	"github.com/rickar/cal/v2/nl"
)

var (
	ErrStartAfterEnd = errors.New("event start time is after end time")
	ErrUnsetTime     = errors.New("unset event start or end time")
	ErrNoEventName   = errors.New("no event name")
)

// Event is a named calendar span used to annotate charts. Start and End are UTC midnight dates
// with End exclusive.
type Event struct {
	Name  string    `json:"name"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewEvent(name string, start, end time.Time) Event {
	return Event{
		Name:  name,
		Start: start,
		End:   end,
	}
}

func (e *Event) Valid() error {
	if e.Start.IsZero() || e.End.IsZero() {
		return ErrUnsetTime
	}
	if e.Start.After(e.End) {
		return ErrStartAfterEnd
	}
	if e.Name == "" {
		return ErrNoEventName
	}
	return nil
}

// Holiday returns the observed days of hol falling within start and end inclusive
func Holiday(hol *cal.Holiday, start, end time.Time) []Event {
	events := []Event{}
	for i := start.Year(); i <= end.Year(); i++ {
		_, observed := hol.Calc(i)
		if observed.IsZero() {
			continue
		}
		day := time.Date(observed.Year(), observed.Month(), observed.Day(), 0, 0, 0, 0, time.UTC)

		if day.Before(start) || day.After(end) {
			continue
		}
		events = append(events, NewEvent(
			strings.ReplaceAll(fmt.Sprintf("%s_%d", hol.Name, i), " ", "_"),
			day,
			day.AddDate(0, 0, 1),
		))
	}
	return events
}

// Holidays returns the Dutch public holidays between start and end inclusive ordered by date
func Holidays(start, end time.Time) []Event {
	events := []Event{}
	if end.Before(start) {
		return events
	}
	for _, hol := range nl.Holidays {
		events = append(events, Holiday(hol, start, end)...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events
}
