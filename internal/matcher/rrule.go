package matcher

import (
	"strings"
	"sync"
	"time"

	"github.com/teambition/rrule-go"
)

// RRule matches the calendar days that hold an occurrence of an RFC 5545
// recurrence rule, e.g. "FREQ=WEEKLY;BYDAY=MO,WE" or
// "FREQ=MONTHLY;BYMONTHDAY=1;DTSTART=20250901T000000". A rule without DTSTART
// is anchored at local midnight of January 1st of the instant's year.
type RRule struct {
	cache sync.Map // pattern -> *parsedRule
}

type parsedRule struct {
	opt *rrule.ROption
	// floating is set when DTSTART carries no UTC designator; it is then
	// read as wall-clock time in the instant's zone.
	floating bool
}

// NewRRule returns an RRule matcher.
func NewRRule() *RRule {
	return &RRule{}
}

// Match implements the Matcher interface for *RRule.
func (m *RRule) Match(t time.Time, pattern string) bool {
	pr, ok := m.parse(pattern)
	if !ok {
		return false
	}

	o := *pr.opt
	loc := t.Location()
	switch {
	case o.Dtstart.IsZero():
		o.Dtstart = time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, loc)
	case pr.floating:
		d := o.Dtstart
		o.Dtstart = time.Date(d.Year(), d.Month(), d.Day(), d.Hour(), d.Minute(), d.Second(), 0, loc)
	}

	r, err := rrule.NewRRule(o)
	if err != nil {
		return false
	}

	y, mo, d := t.Date()
	dayStart := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	// Occurrences may be anchored in another zone; widen the window and
	// compare local dates.
	for _, occ := range r.Between(dayStart.AddDate(0, 0, -1), dayStart.AddDate(0, 0, 2), true) {
		oy, om, od := occ.In(loc).Date()
		if oy == y && om == mo && od == d {
			return true
		}
	}
	return false
}

func (m *RRule) parse(pattern string) (*parsedRule, bool) {
	if v, ok := m.cache.Load(pattern); ok {
		pr, _ := v.(*parsedRule)
		return pr, pr != nil
	}

	s := strings.TrimSpace(pattern)
	s = strings.TrimPrefix(strings.ToUpper(s), "RRULE:")
	opt, err := rrule.StrToROption(s)
	if err != nil {
		m.cache.Store(pattern, (*parsedRule)(nil))
		return nil, false
	}

	pr := &parsedRule{opt: opt, floating: true}
	for _, kv := range strings.Split(s, ";") {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.TrimSpace(k) == "DTSTART" {
			pr.floating = !strings.HasSuffix(strings.TrimSpace(v), "Z")
		}
	}
	m.cache.Store(pattern, pr)
	return pr, true
}
