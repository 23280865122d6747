package model

import (
	"sort"
	"time"

	"schoolclock/internal/timespan"
)

// Scope is the view of a document from one division: every array holds the
// division's entries followed by the global ones, so a first-match scan
// prefers the division.
type Scope struct {
	Division *Division

	Announcements      []Announcement
	SchedulingRules    []SchedulingRule
	Schedules          []Schedule
	FullDayOverrides   []FullDayOverride
	TimeframeOverrides []TimeframeOverride
}

// FindDivision returns the division with the given id, or nil.
func (d *Document) FindDivision(id string) *Division {
	if d == nil || id == "" {
		return nil
	}
	for i := range d.Divisions {
		if d.Divisions[i].Details.DivisionID == id {
			return &d.Divisions[i]
		}
	}
	return nil
}

// ScopeFor computes the combined arrays for divisionID. An empty or unknown
// id yields the global arrays alone. The document itself is not modified.
func (d *Document) ScopeFor(divisionID string) Scope {
	if d == nil {
		return Scope{}
	}
	div := d.FindDivision(divisionID)
	if div == nil {
		return Scope{
			Announcements:      d.Announcements,
			SchedulingRules:    d.SchedulingRules,
			Schedules:          d.Schedules,
			FullDayOverrides:   d.FullDayOverrides,
			TimeframeOverrides: d.TimeframeOverrides,
		}
	}
	return Scope{
		Division:           div,
		Announcements:      concat(div.Announcements, d.Announcements),
		SchedulingRules:    concat(div.SchedulingRules, d.SchedulingRules),
		Schedules:          concat(div.Schedules, d.Schedules),
		FullDayOverrides:   concat(div.FullDayOverrides, d.FullDayOverrides),
		TimeframeOverrides: concat(div.TimeframeOverrides, d.TimeframeOverrides),
	}
}

func concat[T any](local, global []T) []T {
	out := make([]T, 0, len(local)+len(global))
	out = append(out, local...)
	return append(out, global...)
}

// ScheduleByID returns the first schedule with the given id, or the none
// schedule when there is no such schedule.
func (s Scope) ScheduleByID(id string) Schedule {
	for _, sch := range s.Schedules {
		if sch.ID == id {
			return sch
		}
	}
	return NoneSchedule()
}

// SortOverrides orders full-day and timeframe overrides by the start of
// their first applies entry, the way the editor writes them out. Entries
// whose first range does not parse keep their relative order at the end.
// The resolution engine never reorders overrides.
func SortOverrides(fdos []FullDayOverride, tfos []TimeframeOverride, loc *time.Location, ref time.Time) {
	start := func(applies []string) (time.Time, bool) {
		if len(applies) == 0 {
			return time.Time{}, false
		}
		iv, err := timespan.ParseDuration(applies[0], loc, ref)
		if err != nil {
			return time.Time{}, false
		}
		return iv.Start, true
	}
	less := func(a, b []string) bool {
		sa, oka := start(a)
		sb, okb := start(b)
		switch {
		case oka && okb:
			return sa.Before(sb)
		default:
			return oka && !okb
		}
	}

	sort.SliceStable(fdos, func(i, j int) bool { return less(fdos[i].Applies, fdos[j].Applies) })
	sort.SliceStable(tfos, func(i, j int) bool { return less(tfos[i].Applies, tfos[j].Applies) })
}
