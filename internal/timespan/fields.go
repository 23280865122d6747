// Package timespan turns the compact date/time strings used in context
// documents ("2025-12-25", "10:00 -- 11:00", "8:05 AM|e") into calendar
// fields, absolute instants and half-open intervals.
//
// Every unspecified field that is more significant than the first specified
// one inherits its value from a reference instant ("now"), and every
// unspecified field below it falls back to its minimum. A bare "10:00" is
// therefore 10:00:00.000 on the reference day, while a bare "2025-09" is
// 2025-09-01T00:00:00.000.
package timespan

import (
	"errors"
	"fmt"
	"time"
)

// Field is a calendar field, ordered from most to least significant.
type Field int

const (
	Year Field = iota
	Month
	Day
	Hour
	Minute
	Second
	Millisecond

	numFields = int(Millisecond) + 1
)

var fieldNames = [numFields]string{"year", "month", "day", "hour", "minute", "second", "millisecond"}

// String implements fmt.Stringer.
func (f Field) String() string {
	if f < Year || f > Millisecond {
		return fmt.Sprintf("Field(%d)", int(f))
	}
	return fieldNames[f]
}

// ErrOutOfRange is returned when a parsed field cannot describe a real
// calendar instant (month 13, February 30th, hour 25, ...).
var ErrOutOfRange = errors.New("timespan: field out of range")

// Fields is a sparse set of calendar fields.
//
// A field can be declared without a value: time-only strings declare year,
// month and day so that they count towards specificity while still taking
// their values from the reference instant.
type Fields struct {
	values   [numFields]int
	declared [numFields]bool
	set      [numFields]bool
}

// Get returns the value of f and whether it was explicitly given.
func (fs Fields) Get(f Field) (int, bool) {
	if f < Year || f > Millisecond {
		return 0, false
	}
	return fs.values[f], fs.set[f]
}

// Declared reports whether f is part of the field set, with or without a value.
func (fs Fields) Declared(f Field) bool {
	if f < Year || f > Millisecond {
		return false
	}
	return fs.declared[f]
}

// Empty reports whether no field carries a value.
func (fs Fields) Empty() bool {
	for _, ok := range fs.set {
		if ok {
			return false
		}
	}
	return true
}

// Specificity returns the least significant declared field. An empty field
// set is as specific as a single millisecond.
func (fs Fields) Specificity() Field {
	for f := Millisecond; f >= Year; f-- {
		if fs.declared[f] {
			return f
		}
	}
	return Millisecond
}

func (fs *Fields) declare(f Field) {
	fs.declared[f] = true
}

func (fs *Fields) put(f Field, v int) {
	fs.values[f] = v
	fs.declared[f] = true
	fs.set[f] = true
}

// minimums are the values unspecified fields take once a more significant
// field has been given.
var minimums = [numFields]int{0, 1, 1, 0, 0, 0, 0}

// Materialize converts fs into an absolute instant in loc. ref supplies the
// fields that are more significant than the first given one; a nil loc means
// ref's own location.
func Materialize(fs Fields, loc *time.Location, ref time.Time) (time.Time, error) {
	if loc == nil {
		loc = ref.Location()
	}
	ref = ref.In(loc)
	now := components(ref)

	var v [numFields]int
	foundFirst := false
	for f := Year; f <= Millisecond; f++ {
		switch {
		case fs.set[f]:
			foundFirst = true
			v[f] = fs.values[f]
		case foundFirst:
			v[f] = minimums[f]
		default:
			v[f] = now[f]
		}
	}

	if err := validate(v); err != nil {
		return time.Time{}, err
	}

	return time.Date(v[Year], time.Month(v[Month]), v[Day], v[Hour], v[Minute], v[Second], v[Millisecond]*int(time.Millisecond), loc), nil
}

func components(t time.Time) [numFields]int {
	return [numFields]int{
		t.Year(),
		int(t.Month()),
		t.Day(),
		t.Hour(),
		t.Minute(),
		t.Second(),
		t.Nanosecond() / int(time.Millisecond),
	}
}

func validate(v [numFields]int) error {
	switch {
	case v[Month] < 1 || v[Month] > 12:
		return fmt.Errorf("%w: month %d", ErrOutOfRange, v[Month])
	case v[Day] < 1 || v[Day] > daysIn(v[Year], time.Month(v[Month])):
		return fmt.Errorf("%w: day %d of %04d-%02d", ErrOutOfRange, v[Day], v[Year], v[Month])
	case v[Hour] < 0 || v[Hour] > 23:
		return fmt.Errorf("%w: hour %d", ErrOutOfRange, v[Hour])
	case v[Minute] < 0 || v[Minute] > 59:
		return fmt.Errorf("%w: minute %d", ErrOutOfRange, v[Minute])
	case v[Second] < 0 || v[Second] > 59:
		return fmt.Errorf("%w: second %d", ErrOutOfRange, v[Second])
	case v[Millisecond] < 0 || v[Millisecond] > 999:
		return fmt.Errorf("%w: millisecond %d", ErrOutOfRange, v[Millisecond])
	default:
		return nil
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// StartOf rounds t down to the beginning of its unit f, in t's location.
func StartOf(t time.Time, f Field) time.Time {
	c := components(t)
	for g := f + 1; g <= Millisecond; g++ {
		c[g] = minimums[g]
	}
	return time.Date(c[Year], time.Month(c[Month]), c[Day], c[Hour], c[Minute], c[Second], c[Millisecond]*int(time.Millisecond), t.Location())
}

// EndOf returns the first instant after the unit f containing t, that is the
// start of the next unit.
func EndOf(t time.Time, f Field) time.Time {
	return Add(StartOf(t, f), f, 1)
}

// Add moves t by n units of f. Day and coarser units follow the calendar;
// finer units are absolute durations.
func Add(t time.Time, f Field, n int) time.Time {
	switch f {
	case Year:
		return t.AddDate(n, 0, 0)
	case Month:
		return t.AddDate(0, n, 0)
	case Day:
		return t.AddDate(0, 0, n)
	case Hour:
		return t.Add(time.Duration(n) * time.Hour)
	case Minute:
		return t.Add(time.Duration(n) * time.Minute)
	case Second:
		return t.Add(time.Duration(n) * time.Second)
	default:
		return t.Add(time.Duration(n) * time.Millisecond)
	}
}
