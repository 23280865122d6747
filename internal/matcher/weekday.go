package matcher

import (
	"strconv"
	"strings"
	"time"
)

// DayOfWeek matches ISO weekdays, Monday being 1 and Sunday 7. The pattern
// is a single day ("3") or an inclusive range ("1 -- 5").
type DayOfWeek struct{}

// Match implements the Matcher interface for DayOfWeek.
func (DayOfWeek) Match(t time.Time, pattern string) bool {
	day := ISOWeekday(t)

	parts := strings.Split(pattern, "--")
	lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return false
	}
	if len(parts) == 1 {
		return day == lo
	}

	hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return false
	}
	return lo <= day && day <= hi
}

// ISOWeekday returns t's weekday numbered 1 (Monday) through 7 (Sunday).
func ISOWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}
