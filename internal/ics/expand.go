package ics

import (
	"sort"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/teambition/rrule-go"

	appLog "schoolclock/internal/log"
)

const defaultMaxOccurrences = 1000

// Occurrence is one concrete instance of an event.
type Occurrence struct {
	UID     string
	Summary string
	AllDay  bool
	Start   time.Time
	End     time.Time
}

// Window bounds an expansion. Occurrences overlapping [From, To) are kept.
type Window struct {
	From time.Time
	To   time.Time

	// MaxPerEvent caps the occurrences of a single recurring event. Zero
	// means 1000.
	MaxPerEvent int
}

// Expand turns events into occurrences within w, applying RRULE, EXDATE and
// RECURRENCE-ID replacements. The result is sorted by start.
func Expand(events []Event, w Window) ([]Occurrence, error) {
	if w.To.Before(w.From) {
		return nil, errors.Error("expand: window ends before it starts")
	}
	if w.MaxPerEvent <= 0 {
		w.MaxPerEvent = defaultMaxOccurrences
	}

	replacements := map[string][]Event{}
	var bases []Event
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			replacements[ev.UID] = append(replacements[ev.UID], ev)
			continue
		}
		bases = append(bases, ev)
	}

	out := []Occurrence{}
	for _, ev := range bases {
		if ev.RRule == "" {
			if overlaps(ev.Start, ev.End, w) {
				out = append(out, occurrence(ev, ev.Start, ev.End))
			}
			continue
		}
		out = append(out, expandRecurring(ev, replacements[ev.UID], w)...)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

func expandRecurring(ev Event, replacements []Event, w Window) []Occurrence {
	opt, err := rrule.StrToROption(ev.RRule)
	if err != nil {
		appLog.Warn("ics rrule skipped", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return nil
	}
	opt.Dtstart = ev.Start

	r, err := rrule.NewRRule(*opt)
	if err != nil {
		appLog.Warn("ics rrule skipped", "uid", ev.UID, "rrule", ev.RRule, "err", err)
		return nil
	}

	set := &rrule.Set{}
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	length := ev.End.Sub(ev.Start)
	// Step back by one event length so occurrences running into the window
	// are found too.
	starts := set.Between(w.From.Add(-length), w.To, true)
	if len(starts) > w.MaxPerEvent {
		appLog.Warn("ics occurrences truncated", "uid", ev.UID, "cap", w.MaxPerEvent)
		starts = starts[:w.MaxPerEvent]
	}

	out := make([]Occurrence, 0, len(starts))
	for _, start := range starts {
		end := start.Add(length)
		if ev.AllDay {
			end = start.AddDate(0, 0, int(length.Round(24*time.Hour)/(24*time.Hour)))
		}

		occ := occurrence(ev, start, end)
		for _, rep := range replacements {
			if rep.RecurrenceID.Equal(start) {
				occ = occurrence(rep, rep.Start, rep.End)
				break
			}
		}
		if overlaps(occ.Start, occ.End, w) {
			out = append(out, occ)
		}
	}
	return out
}

func occurrence(ev Event, start, end time.Time) Occurrence {
	return Occurrence{
		UID:     ev.UID,
		Summary: ev.Summary,
		AllDay:  ev.AllDay,
		Start:   start,
		End:     end,
	}
}

func overlaps(start, end time.Time, w Window) bool {
	if !end.After(start) {
		return !start.Before(w.From) && start.Before(w.To)
	}
	return start.Before(w.To) && end.After(w.From)
}
