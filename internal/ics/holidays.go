package ics

import (
	"time"

	"schoolclock/internal/model"
)

// Overrides holds the context entries derived from a calendar.
type Overrides struct {
	FullDay   []model.FullDayOverride
	Timeframe []model.TimeframeOverride
}

// Import converts occurrences into overrides. All-day occurrences become
// full-day overrides selecting schedule; timed ones become timeframe
// overrides labelled with their summary. Applies strings are written in loc.
func Import(occs []Occurrence, schedule model.ScheduleRef, loc *time.Location) Overrides {
	if loc == nil {
		loc = time.Local
	}

	out := Overrides{
		FullDay:   []model.FullDayOverride{},
		Timeframe: []model.TimeframeOverride{},
	}
	for _, o := range occs {
		if o.AllDay {
			out.FullDay = append(out.FullDay, model.FullDayOverride{
				Occasion: o.Summary,
				Applies:  []string{dayRange(o.Start, o.End)},
				Schedule: schedule,
			})
			continue
		}
		if !o.End.After(o.Start) {
			continue
		}
		out.Timeframe = append(out.Timeframe, model.TimeframeOverride{
			Occasion: o.Summary,
			Label:    o.Summary,
			Applies:  []string{timeRange(o.Start.In(loc), o.End.In(loc))},
		})
	}
	return out
}

// dayRange writes an all-day span. DTEND of an all-day event is already
// exclusive, which is what an explicit end date means in a duration string.
func dayRange(start, end time.Time) string {
	const layout = "2006-01-02"
	if !end.After(start.AddDate(0, 0, 1)) {
		return start.Format(layout)
	}
	return start.Format(layout) + " -- " + end.Format(layout)
}

func timeRange(start, end time.Time) string {
	const layout = "2006-01-02/15:04:05"
	return start.Format(layout) + " -- " + end.Format(layout)
}
