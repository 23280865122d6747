// Package migrate converts version 1 context documents to version 2.
package migrate

import (
	"strconv"
	"strings"
	"time"

	"schoolclock/internal/model"
)

// Defaults for metadata a version 1 document leaves out.
const (
	DefaultSchoolName = "Example High School"
	DefaultShortName  = "EHS"
	DefaultTimezone   = "America/Los_Angeles"
)

// baselineUpdateID stands in for a missing last_updated_id.
const baselineUpdateID = "0000-00-00-00"

// V1ToV2 returns the version 2 form of doc. now dates the new
// last_updated_id; doc itself is not modified.
func V1ToV2(doc *model.LegacyDocument, now time.Time) *model.Document {
	if doc == nil {
		doc = &model.LegacyDocument{}
	}

	out := &model.Document{
		Version:       model.CurrentVersion,
		LastUpdatedID: NextUpdateID(doc.LastUpdatedID, now),
		Metadata:      metadata(doc.Metadata),
	}

	out.Announcements = make([]model.Announcement, 0, len(doc.Announcements))
	for _, a := range doc.Announcements {
		out.Announcements = append(out.Announcements, model.Announcement{
			Message: a.Message,
			Applies: cloneStrings(a.Applies),
		})
	}

	rules := doc.SchedulingRules
	if rules == nil {
		rules = doc.SchedulingRulesSnake
	}
	out.SchedulingRules = make([]model.SchedulingRule, 0, len(rules))
	for _, r := range rules {
		out.SchedulingRules = append(out.SchedulingRules, model.SchedulingRule{
			Matcher:  firstNonEmpty(r.Match, r.Matcher),
			Pattern:  r.Pattern,
			Schedule: r.Schedule,
		})
	}

	out.Schedules = make([]model.Schedule, 0, len(doc.Schedules))
	for _, s := range doc.Schedules {
		out.Schedules = append(out.Schedules, schedule(s))
	}

	out.FullDayOverrides = make([]model.FullDayOverride, 0, len(doc.FullDayOverrides))
	for _, fdo := range doc.FullDayOverrides {
		ref := model.RefID(fdo.Schedule.ID)
		if fdo.Schedule.Inline != nil {
			ref = model.RefInline(schedule(*fdo.Schedule.Inline))
		}
		out.FullDayOverrides = append(out.FullDayOverrides, model.FullDayOverride{
			Occasion: firstNonEmpty(fdo.Name, fdo.Occasion),
			Applies:  cloneStrings(fdo.Applies),
			Schedule: ref,
		})
	}

	out.TimeframeOverrides = make([]model.TimeframeOverride, 0, len(doc.TimeframeOverrides))
	for _, tfo := range doc.TimeframeOverrides {
		out.TimeframeOverrides = append(out.TimeframeOverrides, model.TimeframeOverride{
			Occasion: firstNonEmpty(tfo.Name, tfo.Occasion),
			Label:    firstNonEmpty(tfo.Description, tfo.Label),
			Applies:  cloneStrings(tfo.Applies),
		})
	}

	return out
}

func metadata(m *model.LegacyMetadata) model.Metadata {
	out := model.Metadata{
		SchoolName: DefaultSchoolName,
		ShortName:  DefaultShortName,
		Timezone:   DefaultTimezone,
	}
	if m == nil {
		return out
	}

	out.SchoolID = int(m.SchoolID)
	out.SchoolName = firstNonEmpty(m.School, out.SchoolName)
	out.ShortName = firstNonEmpty(m.ShortName, out.ShortName)
	out.Timezone = firstNonEmpty(m.Timezone, out.Timezone)
	return out
}

// schedule flattens map-shaped timings into one timing per applies string,
// keeping the order the labels were written in.
func schedule(s model.LegacySchedule) model.Schedule {
	out := model.Schedule{ID: s.ID, Label: s.Label, Timings: []model.Timing{}}

	if s.Timings.IsArray {
		out.Timings = append(out.Timings, s.Timings.Array...)
		return out
	}

	for _, e := range s.Timings.Entries {
		for _, applies := range e.Applies {
			out.Timings = append(out.Timings, model.Timing{Label: e.Label, Applies: applies})
		}
	}
	return out
}

// NextUpdateID returns the revision id that follows prev when the document
// is saved at now. Ids have the form "yyyy-MM-dd-NN": the counter restarts
// at "01" on a new day and otherwise increments, padded with a single zero
// whenever its digit count is odd ("09" is followed by "10", "99" by
// "0100").
func NextUpdateID(prev string, now time.Time) string {
	if prev == "" {
		prev = baselineUpdateID
	}

	date := now.Format("2006-01-02")
	if len(prev) < len(date) || prev[:len(date)] != date {
		return date + "-01"
	}

	n, err := strconv.Atoi(prev[strings.LastIndex(prev, "-")+1:])
	if err != nil || n < 0 {
		n = 0
	}
	next := strconv.Itoa(n + 1)
	if len(next)%2 == 1 {
		next = "0" + next
	}
	return date + "-" + next
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func cloneStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return append([]string(nil), s...)
}
