package timespan

import (
	"fmt"
	"strings"
	"time"
)

// Interval is the half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether Start <= t < End.
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Duration returns the length of the interval.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// IsZero reports whether iv is the zero interval.
func (iv Interval) IsZero() bool {
	return iv.Start.IsZero() && iv.End.IsZero()
}

// String implements fmt.Stringer.
func (iv Interval) String() string {
	const layout = "2006-01-02T15:04:05.000Z07:00"
	return fmt.Sprintf("[%s, %s)", iv.Start.Format(layout), iv.End.Format(layout))
}

// ParseDuration parses a duration string, either "<instant>" or
// "<instant> -- <instant>", into an interval in loc. Unspecified fields are
// taken from ref.
//
// The two sides may be written in either order. The earlier side is rounded
// down to the start of its own least significant unit. The later side is
// rounded down as well, unless the end was implied by a lone instant, in
// which case it is rounded up to the start of the next unit: "2025-09" covers
// all of September while "10:00 -- 11:00" ends at 11:00 sharp.
func ParseDuration(s string, loc *time.Location, ref time.Time) (Interval, error) {
	if loc == nil {
		loc = ref.Location()
	}

	parts := strings.Split(strings.TrimSpace(s), "--")
	impliedEnd := len(parts) == 1
	startStr, endStr := parts[0], parts[0]
	if !impliedEnd {
		endStr = parts[1]
	}

	startFields, err := ParseFields(startStr, loc, ref)
	if err != nil {
		return Interval{}, fmt.Errorf("parse %q: %w", s, err)
	}
	endFields, err := ParseFields(endStr, loc, ref)
	if err != nil {
		return Interval{}, fmt.Errorf("parse %q: %w", s, err)
	}

	earlier, err := Materialize(startFields, loc, ref)
	if err != nil {
		return Interval{}, fmt.Errorf("parse %q: %w", s, err)
	}
	later, err := Materialize(endFields, loc, ref)
	if err != nil {
		return Interval{}, fmt.Errorf("parse %q: %w", s, err)
	}

	earlierUnit, laterUnit := startFields.Specificity(), endFields.Specificity()
	if later.Before(earlier) {
		earlier, later = later, earlier
		earlierUnit, laterUnit = laterUnit, earlierUnit
	}

	iv := Interval{Start: StartOf(earlier, earlierUnit)}
	if impliedEnd {
		iv.End = EndOf(later, laterUnit)
	} else {
		iv.End = StartOf(later, laterUnit)
	}

	return iv, nil
}

// MustParseDuration is like ParseDuration but panics on error. It is meant
// for literals in tests and examples.
func MustParseDuration(s string, loc *time.Location, ref time.Time) Interval {
	iv, err := ParseDuration(s, loc, ref)
	if err != nil {
		panic(err)
	}
	return iv
}
