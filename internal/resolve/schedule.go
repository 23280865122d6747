package resolve

import (
	"sort"
	"time"

	"schoolclock/internal/model"
	"schoolclock/internal/timespan"
)

// Schedule is a resolved schedule. Override is the full-day override that
// selected it, or nil when it came from a scheduling rule or nothing applied.
type Schedule struct {
	model.Schedule
	Override *model.FullDayOverride
}

// IsOverride reports whether a full-day override selected the schedule.
func (s Schedule) IsOverride() bool {
	return s.Override != nil
}

// Schedule returns the schedule in force at now.
//
// Full-day overrides are consulted first, then scheduling rules, each in
// division-then-global order with the first hit winning. When nothing
// applies the none schedule is returned.
func (e *Engine) Schedule(doc *model.Document, now time.Time, division string) Schedule {
	return e.newQuery(doc, now, division).schedule()
}

func (q *query) schedule() Schedule {
	for i := range q.scope.FullDayOverrides {
		fdo := q.scope.FullDayOverrides[i]
		if _, _, ok := q.firstContaining("full_day_overrides", i, fdo.Applies); !ok {
			continue
		}

		if !fdo.Schedule.IsInline() {
			return Schedule{Schedule: q.scope.ScheduleByID(fdo.Schedule.ID), Override: &fdo}
		}

		s := *fdo.Schedule.Inline
		if s.Label == "" {
			s.Label = fdo.Occasion
		}
		if s.Timings == nil {
			s.Timings = []model.Timing{}
		}
		return Schedule{Schedule: s, Override: &fdo}
	}

	for i, rule := range q.scope.SchedulingRules {
		m, ok := q.e.Matchers.Lookup(rule.Matcher)
		if !ok {
			q.e.report(Diagnostic{Kind: "scheduling_rules", Index: i, Value: rule.Matcher, Err: ErrUnknownMatcher})
			continue
		}
		if m.Match(q.now, rule.Pattern) {
			return Schedule{Schedule: q.scope.ScheduleByID(rule.Schedule)}
		}
	}

	return Schedule{Schedule: model.NoneSchedule()}
}

// Period is the running period: either a timing of the resolved schedule or
// a timeframe override standing in for one.
type Period struct {
	Label string
	// Applies is the duration string that matched and Interval its value at
	// the resolution instant.
	Applies  string
	Interval timespan.Interval

	HideStart bool
	HideEnd   bool

	// IsOverride is set when a timeframe override supplied the period;
	// Override then points at it.
	IsOverride bool
	Override   *model.TimeframeOverride
}

// ActivePeriod returns the period running at now, if any.
//
// Timeframe overrides win over the schedule's own timings. Among several
// overrides covering now, the first one in division-then-global order is
// chosen, not the nearest one.
func (e *Engine) ActivePeriod(doc *model.Document, now time.Time, division string) (Period, bool) {
	return e.newQuery(doc, now, division).activePeriod()
}

func (q *query) activePeriod() (Period, bool) {
	for i := range q.scope.TimeframeOverrides {
		tfo := q.scope.TimeframeOverrides[i]
		applies, iv, ok := q.firstContaining("timeframe_overrides", i, tfo.Applies)
		if !ok {
			continue
		}
		return Period{
			Label:      tfo.Label,
			Applies:    applies,
			Interval:   iv,
			IsOverride: true,
			Override:   &tfo,
		}, true
	}

	for i, timing := range q.schedule().Timings {
		iv, ok := q.interval("timings", i, timing.Applies)
		if !ok || !iv.Contains(q.now) {
			continue
		}
		return Period{
			Label:     timing.Label,
			Applies:   timing.Applies,
			Interval:  iv,
			HideStart: timing.HideStart,
			HideEnd:   timing.HideEnd,
		}, true
	}

	return Period{}, false
}

// Announcements returns every announcement showing at now, division
// announcements first. The result is never nil.
func (e *Engine) Announcements(doc *model.Document, now time.Time, division string) []model.Announcement {
	return e.newQuery(doc, now, division).announcements()
}

func (q *query) announcements() []model.Announcement {
	active := []model.Announcement{}
	for i, a := range q.scope.Announcements {
		if _, _, ok := q.firstContaining("announcements", i, a.Applies); ok {
			active = append(active, a)
		}
	}
	return active
}

// TimingSpan is a timing of the resolved schedule with its interval at the
// resolution instant.
type TimingSpan struct {
	model.Timing
	Interval timespan.Interval
}

// Timings returns the timings of the schedule in force at now, ordered by
// start time. Timings that do not parse are left out.
func (e *Engine) Timings(doc *model.Document, now time.Time, division string) []TimingSpan {
	q := e.newQuery(doc, now, division)

	spans := []TimingSpan{}
	for i, timing := range q.schedule().Timings {
		iv, ok := q.interval("timings", i, timing.Applies)
		if !ok {
			continue
		}
		spans = append(spans, TimingSpan{Timing: timing, Interval: iv})
	}
	sort.SliceStable(spans, func(i, j int) bool {
		return spans[i].Interval.Start.Before(spans[j].Interval.Start)
	})
	return spans
}
