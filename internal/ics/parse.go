package ics

import (
	"bytes"
	"strconv"
	"strings"
	"time"

	"github.com/AdguardTeam/golibs/errors"
	ical "github.com/arran4/golang-ical"

	appLog "schoolclock/internal/log"
)

// ErrEmptyCalendar is returned for an empty iCalendar payload.
const ErrEmptyCalendar errors.Error = "empty calendar"

// Event is a VEVENT reduced to what holiday import needs. Recurrences are
// kept unexpanded; see Expand.
type Event struct {
	UID      string
	Sequence int
	Summary  string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule   string
	ExDates []time.Time

	// RecurrenceID is set on VEVENTs that replace one instance of a
	// recurring event.
	RecurrenceID *time.Time
}

// Parse reads every VEVENT of an iCalendar payload. Date values without a
// zone are read in loc. name only labels log lines.
func Parse(name string, body []byte, loc *time.Location) ([]Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptyCalendar
	}
	if loc == nil {
		loc = time.Local
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, errors.Annotate(err, "parsing calendar %q: %w", name)
	}

	events := make([]Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseEvent(ve, loc)
		if perr != nil {
			appLog.Warn("ics vevent skipped", "calendar", name, "err", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parsed", "calendar", name, "events", len(events))
	return events, nil
}

func parseEvent(ve *ical.VEvent, loc *time.Location) (ev Event, err error) {
	uid := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uid == nil || uid.Value == "" {
		return ev, errors.Error("missing UID")
	}
	ev.UID = uid.Value

	if p := ve.GetProperty(ical.ComponentPropertySequence); p != nil {
		ev.Sequence, _ = strconv.Atoi(strings.TrimSpace(p.Value))
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, errors.Error("missing DTSTART")
	}
	ev.AllDay = isDateValue(dtStart)

	ev.Start, err = propertyTime(dtStart, loc)
	if err != nil {
		return ev, errors.Annotate(err, "DTSTART: %w")
	}

	if dtEnd := ve.GetProperty(ical.ComponentPropertyDtEnd); dtEnd != nil {
		ev.End, err = propertyTime(dtEnd, loc)
		if err != nil {
			return ev, errors.Annotate(err, "DTEND: %w")
		}
	}
	if !ev.End.After(ev.Start) {
		// RFC 5545: a date-valued DTSTART without DTEND lasts one day, a
		// date-time one is instantaneous.
		if ev.AllDay {
			ev.End = ev.Start.AddDate(0, 0, 1)
		} else {
			ev.End = ev.Start
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = p.Value
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if t, terr := parseTime(strings.TrimSpace(part), tzidOf(p, loc)); terr == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if p := ve.GetProperty("RECURRENCE-ID"); p != nil {
		if t, terr := parseTime(p.Value, tzidOf(p, loc)); terr == nil {
			ev.RecurrenceID = &t
		}
	}

	return ev, nil
}

func isDateValue(p *ical.IANAProperty) bool {
	if vs := p.ICalParameters["VALUE"]; len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// tzidOf returns the zone named by the TZID parameter of p, or loc.
func tzidOf(p *ical.IANAProperty, loc *time.Location) *time.Location {
	if tzs := p.ICalParameters["TZID"]; len(tzs) > 0 {
		if l, err := time.LoadLocation(tzs[0]); err == nil {
			return l
		}
	}
	return loc
}

func propertyTime(p *ical.IANAProperty, loc *time.Location) (time.Time, error) {
	return parseTime(p.Value, tzidOf(p, loc))
}

// parseTime handles the three value forms of RFC 5545: UTC date-time,
// floating or TZID date-time, and date.
func parseTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.Error("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}
