package resolve

import (
	"math"
	"strconv"
	"strings"
	"time"

	"schoolclock/internal/model"
)

// Snapshot is everything a display needs for one instant.
type Snapshot struct {
	At       time.Time
	Timezone string
	Division string

	SchoolName string
	ShortName  string

	Schedule Schedule
	// Period is nil between periods.
	Period *Period
	// Elapsed and Remaining are measured against Period's interval. They are
	// zero when there is no period or the timing hides them.
	Elapsed   time.Duration
	Remaining time.Duration

	Announcements []model.Announcement
}

// Snapshot resolves the schedule, period and announcements at now in one
// pass over the document.
func (e *Engine) Snapshot(doc *model.Document, now time.Time, division string) Snapshot {
	q := e.newQuery(doc, now, division)

	snap := Snapshot{
		At:            q.now,
		Timezone:      q.loc.String(),
		Division:      division,
		SchoolName:    SchoolName(doc, division),
		ShortName:     ShortName(doc, division),
		Schedule:      q.schedule(),
		Announcements: q.announcements(),
	}
	if q.scope.Division == nil {
		snap.Division = ""
	}

	if p, ok := q.activePeriod(); ok {
		snap.Period = &p
		if !p.HideStart {
			snap.Elapsed = q.now.Sub(p.Interval.Start)
		}
		if !p.HideEnd {
			snap.Remaining = p.Interval.End.Sub(q.now)
		}
	}

	return snap
}

// SchoolName returns the school's name as members of division know it.
func SchoolName(doc *model.Document, division string) string {
	if doc == nil {
		return ""
	}
	name := doc.Metadata.SchoolName
	return divisionName(doc, division, name, func(m *model.DivisionMetadata) string { return m.SchoolName })
}

// ShortName returns the school's short name as members of division know it.
func ShortName(doc *model.Document, division string) string {
	if doc == nil {
		return ""
	}
	name := doc.Metadata.ShortName
	return divisionName(doc, division, name, func(m *model.DivisionMetadata) string { return m.ShortName })
}

// divisionName applies a division's rename: a full replacement when its
// metadata sets one, else the short label appended in parentheses.
func divisionName(doc *model.Document, division, name string, pick func(*model.DivisionMetadata) string) string {
	div := doc.FindDivision(division)
	if div == nil {
		return name
	}
	if div.Metadata != nil {
		if renamed := pick(div.Metadata); renamed != "" {
			return renamed
		}
	}
	if label := div.Details.DivisionShortLabel; label != "" {
		return name + " (" + label + ")"
	}
	return name
}

// FormatDiff renders d rounded to whole seconds: "45s" under a minute,
// "m:ss" under an hour and "h:mm:ss" otherwise. Negative durations render
// as zero.
func FormatDiff(d time.Duration) string {
	secs := int64(math.Round(d.Seconds()))
	if secs < 0 {
		secs = 0
	}

	h, m, s := secs/3600, secs%3600/60, secs%60
	switch {
	case h > 0:
		return strconv.FormatInt(h, 10) + ":" + pad2(m) + ":" + pad2(s)
	case m > 0:
		return strconv.FormatInt(m, 10) + ":" + pad2(s)
	default:
		return strconv.FormatInt(s, 10) + "s"
	}
}

func pad2(n int64) string {
	if n < 10 {
		return "0" + strconv.FormatInt(n, 10)
	}
	return strconv.FormatInt(n, 10)
}

// ListApplies renders duration strings for people, e.g. "Sep 1, 2025" or
// "Sep 1, 2025 8:00 AM to 9:30 AM", joined into an English list. Entries
// that do not parse are left out.
func (e *Engine) ListApplies(doc *model.Document, applies []string, now time.Time) string {
	q := e.newQuery(doc, now, "")

	parts := make([]string, 0, len(applies))
	for i, a := range applies {
		iv, ok := q.interval("applies", i, a)
		if !ok {
			continue
		}
		parts = append(parts, describe(iv.Start, iv.End))
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	case 2:
		return parts[0] + " and " + parts[1]
	default:
		return strings.Join(parts[:len(parts)-1], ", ") + ", and " + parts[len(parts)-1]
	}
}

const (
	dateLayout     = "Jan 2, 2006"
	clockLayout    = "3:04 PM"
	dateTimeLayout = dateLayout + " " + clockLayout
)

func describe(start, end time.Time) string {
	if isMidnight(start) && isMidnight(end) {
		last := end.AddDate(0, 0, -1)
		if !last.After(start) {
			return start.Format(dateLayout)
		}
		return start.Format(dateLayout) + " to " + last.Format(dateLayout)
	}

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy == ey && sm == em && sd == ed {
		return start.Format(dateTimeLayout) + " to " + end.Format(clockLayout)
	}
	return start.Format(dateTimeLayout) + " to " + end.Format(dateTimeLayout)
}

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}
