package ics

import (
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
)

// ExportEvent is one period written to an exported calendar.
type ExportEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// Export serializes events as a PUBLISH calendar named name. stamp is
// written as DTSTAMP on every event.
func Export(name string, events []ExportEvent, stamp time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//schoolclock//" + name + "//EN")
	cal.SetName(name)

	for _, e := range events {
		ev := cal.AddEvent(e.UID)
		ev.SetDtStampTime(stamp.UTC())
		ev.SetStartAt(e.Start.UTC())
		ev.SetEndAt(e.End.UTC())
		ev.SetSummary(e.Summary)
		if e.Description != "" {
			ev.SetDescription(e.Description)
		}
	}

	return cal.Serialize()
}

// EventUID builds a stable UID for a period from its start and label.
func EventUID(start time.Time, label, domain string) string {
	slug := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, label)
	return start.UTC().Format("20060102T150405Z") + "-" + slug + "@" + domain
}
