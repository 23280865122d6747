package timespan

import (
	"strings"
	"time"
)

// ParseFields parses an instant string of the form
//
//	[yyyy[-MM[-dd]]][/HH[:mm[:ss[.SSS]]][ AM|PM]][|flags]
//
// into its calendar fields. Either half may be omitted; a lone value is a
// date when it contains '-' or is a bare four digit year, and a time of day
// otherwise. Components that are not numbers are dropped.
//
// The "e" (or "end") flag advances the instant by one unit of its least
// significant field, which lets "2025-06-13|e" name the first instant after
// that day. loc and ref are only consulted for that adjustment.
func ParseFields(s string, loc *time.Location, ref time.Time) (Fields, error) {
	value, flags := splitFlags(s)
	dateStr, timeStr, timeOnly := splitHalves(value)

	var fs Fields
	if timeOnly {
		fs.declare(Year)
		fs.declare(Month)
		fs.declare(Day)
	}

	if dateStr != "" {
		parts := strings.Split(dateStr, "-")
		for i, part := range parts {
			if i > int(Day) {
				break
			}
			if n, ok := leadingInt(part); ok {
				fs.put(Field(i), n)
			}
		}
	}

	if timeStr != "" {
		meridiem := strings.Contains(timeStr, "M")
		pm := strings.Contains(timeStr, "PM")
		parts := strings.Split(strings.ReplaceAll(timeStr, ".", ":"), ":")
		for i, part := range parts {
			if i > int(Millisecond-Hour) {
				break
			}
			n, ok := leadingInt(part)
			if !ok {
				continue
			}
			if i == 0 {
				if meridiem {
					n %= 12
				}
				if pm {
					n += 12
				}
			}
			fs.put(Hour+Field(i), n)
		}
	}

	if flags.has("e", "end") {
		t, err := Materialize(fs, loc, ref)
		if err != nil {
			return fs, err
		}
		t = Add(t, fs.Specificity(), 1)
		c := components(t)
		for f := Year; f <= Millisecond; f++ {
			if fs.declared[f] {
				fs.put(f, c[f])
			}
		}
	}

	return fs, nil
}

// ParseInstant parses s like ParseFields and materializes it in loc.
func ParseInstant(s string, loc *time.Location, ref time.Time) (time.Time, error) {
	fs, err := ParseFields(s, loc, ref)
	if err != nil {
		return time.Time{}, err
	}
	return Materialize(fs, loc, ref)
}

type flagSet []string

func (fl flagSet) has(names ...string) bool {
	for _, f := range fl {
		for _, n := range names {
			if strings.EqualFold(f, n) {
				return true
			}
		}
	}
	return false
}

func splitFlags(s string) (string, flagSet) {
	parts := strings.Split(s, "|")
	value := strings.TrimSpace(parts[0])
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		return value, nil
	}
	var flags flagSet
	for _, f := range strings.Split(parts[1], ",") {
		flags = append(flags, strings.TrimSpace(f))
	}
	return value, flags
}

// splitHalves separates the date and time halves of an upper-cased value.
// timeOnly is set when the value names a time of day with no date half at
// all.
func splitHalves(value string) (dateStr, timeStr string, timeOnly bool) {
	halves := strings.Split(value, "/")
	for i := range halves {
		halves[i] = strings.ToUpper(strings.TrimSpace(halves[i]))
	}

	if len(halves) > 1 {
		// "12:00/AM" carries the meridiem in the second half.
		if (halves[1] == "AM" || halves[1] == "PM") && !looksLikeDate(halves[0]) {
			return "", halves[0] + " " + halves[1], true
		}
		return halves[0], halves[1], false
	}
	if looksLikeDate(value) {
		return halves[0], "", false
	}
	return "", halves[0], true
}

func looksLikeDate(s string) bool {
	if strings.Contains(s, "-") {
		return true
	}
	if len(s) != 4 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// leadingInt reads an optionally signed run of digits at the start of s,
// ignoring surrounding blanks and any trailing text ("05 PM" is 5).
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		n = n*10 + int(s[digits]-'0')
		digits++
		if n > 1<<30 {
			return 0, false
		}
	}
	if digits == 0 {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
