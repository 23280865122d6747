package timespan

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("UTC-7", -7*60*60)

// testRef is a Monday morning.
var testRef = time.Date(2025, 9, 15, 9, 30, 12, 345*int(time.Millisecond), testLoc)

func at(y int, m time.Month, d, h, min, s, ms int) time.Time {
	return time.Date(y, m, d, h, min, s, ms*int(time.Millisecond), testLoc)
}

func TestParseFields_hours(t *testing.T) {
	testCases := []struct {
		in       string
		name     string
		wantHour int
	}{{
		in:       "12:00/AM",
		name:     "midnight_split_meridiem",
		wantHour: 0,
	}, {
		in:       "12:00/PM",
		name:     "noon_split_meridiem",
		wantHour: 12,
	}, {
		in:       "01:30/PM",
		name:     "afternoon_split_meridiem",
		wantHour: 13,
	}, {
		in:       "12:30 am",
		name:     "lower_case_meridiem",
		wantHour: 0,
	}, {
		in:       "8:05 PM",
		name:     "inline_meridiem",
		wantHour: 20,
	}, {
		in:       "23:15",
		name:     "twenty_four_hour",
		wantHour: 23,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs, err := ParseFields(tc.in, testLoc, testRef)
			require.NoError(t, err)

			h, ok := fs.Get(Hour)
			require.True(t, ok)
			assert.Equal(t, tc.wantHour, h)
		})
	}
}

func TestParseFields_specificity(t *testing.T) {
	testCases := []struct {
		in   string
		name string
		want Field
	}{{
		in:   "2025",
		name: "year",
		want: Year,
	}, {
		in:   "2025-09",
		name: "month",
		want: Month,
	}, {
		in:   "2025-09-13",
		name: "day",
		want: Day,
	}, {
		in:   "10",
		name: "bare_hour",
		want: Hour,
	}, {
		in:   "2025-09-13/06:07",
		name: "date_and_minute",
		want: Minute,
	}, {
		in:   "06:07:41",
		name: "second",
		want: Second,
	}, {
		in:   "06:07:41.123 AM",
		name: "millisecond",
		want: Millisecond,
	}, {
		in:   "",
		name: "empty_time_declares_date",
		want: Day,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			fs, err := ParseFields(tc.in, testLoc, testRef)
			require.NoError(t, err)

			assert.Equal(t, tc.want, fs.Specificity())
		})
	}
}

func TestParseFields_timeOnlyLeavesDateUnset(t *testing.T) {
	fs, err := ParseFields("10:00", testLoc, testRef)
	require.NoError(t, err)

	for _, f := range []Field{Year, Month, Day} {
		_, ok := fs.Get(f)
		assert.False(t, ok, f.String())
		assert.True(t, fs.Declared(f), f.String())
	}

	_, ok := fs.Get(Second)
	assert.False(t, ok)
	assert.False(t, fs.Declared(Second))
}

func TestParseFields_malformedComponentsDropped(t *testing.T) {
	fs, err := ParseFields("10:xx:30", testLoc, testRef)
	require.NoError(t, err)

	_, ok := fs.Get(Minute)
	assert.False(t, ok)

	s, ok := fs.Get(Second)
	require.True(t, ok)
	assert.Equal(t, 30, s)

	got, err := Materialize(fs, testLoc, testRef)
	require.NoError(t, err)
	assert.Equal(t, at(2025, 9, 15, 10, 0, 30, 0), got)
}

func TestParseFields_endFlag(t *testing.T) {
	testCases := []struct {
		want time.Time
		in   string
		name string
	}{{
		want: at(2025, 6, 14, 0, 0, 0, 0),
		in:   "2025-06-13|e",
		name: "day",
	}, {
		want: at(2026, 1, 1, 0, 0, 0, 0),
		in:   "2025-12-31 | end",
		name: "day_across_year",
	}, {
		want: at(2025, 10, 1, 0, 0, 0, 0),
		in:   "2025-09|e",
		name: "month",
	}, {
		want: at(2025, 9, 15, 15, 31, 0, 0),
		in:   "3:30 PM|e",
		name: "minute_today",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseInstant(tc.in, testLoc, testRef)
			require.NoError(t, err)

			assert.True(t, tc.want.Equal(got), "want %s, got %s", tc.want, got)
		})
	}
}

func TestParseInstant_emptyIsNow(t *testing.T) {
	for _, in := range []string{"", "   ", "garbage"} {
		got, err := ParseInstant(in, testLoc, testRef)
		require.NoError(t, err)

		assert.True(t, testRef.Equal(got), "%q: got %s", in, got)
	}
}

func TestParseInstant_outOfRange(t *testing.T) {
	for _, in := range []string{"2025-13-01", "2025-02-30", "25:00", "10:75"} {
		_, err := ParseInstant(in, testLoc, testRef)
		assert.ErrorIs(t, err, ErrOutOfRange, in)
	}
}

func TestParseDuration(t *testing.T) {
	testCases := []struct {
		want Interval
		in   string
		name string
	}{{
		want: Interval{Start: at(2025, 9, 15, 10, 0, 0, 0), End: at(2025, 9, 15, 11, 0, 0, 0)},
		in:   "10:00 -- 11:00",
		name: "explicit_times_today",
	}, {
		want: Interval{Start: at(2025, 9, 15, 10, 0, 0, 0), End: at(2025, 9, 15, 11, 0, 0, 0)},
		in:   "11:00 -- 10:00",
		name: "reversed_times",
	}, {
		want: Interval{Start: at(2025, 9, 1, 0, 0, 0, 0), End: at(2025, 10, 1, 0, 0, 0, 0)},
		in:   "2025-09",
		name: "whole_month",
	}, {
		want: Interval{Start: at(2025, 12, 25, 0, 0, 0, 0), End: at(2025, 12, 26, 0, 0, 0, 0)},
		in:   "2025-12-25",
		name: "whole_day",
	}, {
		want: Interval{Start: at(2025, 1, 1, 0, 0, 0, 0), End: at(2026, 1, 1, 0, 0, 0, 0)},
		in:   "2025",
		name: "whole_year",
	}, {
		want: Interval{Start: at(2025, 9, 15, 10, 0, 0, 0), End: at(2025, 9, 15, 10, 1, 0, 0)},
		in:   "10:00",
		name: "implied_minute",
	}, {
		want: Interval{Start: at(2025, 9, 1, 0, 0, 0, 0), End: at(2025, 9, 6, 0, 0, 0, 0)},
		in:   "2025-09-01 -- 2025-09-05|e",
		name: "inclusive_days_via_flag",
	}, {
		want: Interval{Start: at(2025, 9, 1, 12, 0, 0, 0), End: at(2025, 9, 5, 0, 0, 0, 0)},
		in:   "2025-09-05 -- 2025-09-01/12:00",
		name: "reversed_mixed_specificity",
	}, {
		want: Interval{Start: at(2025, 9, 2, 8, 0, 0, 0), End: at(2025, 9, 2, 9, 30, 0, 0)},
		in:   "2025-09-02/8:00 AM -- 2025-09-02/9:30 AM",
		name: "date_and_time_both_sides",
	}, {
		want: Interval{Start: at(2025, 9, 15, 0, 0, 0, 0), End: at(2025, 9, 16, 0, 0, 0, 0)},
		in:   "",
		name: "empty_is_today",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseDuration(tc.in, testLoc, testRef)
			require.NoError(t, err)

			assert.True(t, tc.want.Start.Equal(got.Start), "start: want %s, got %s", tc.want.Start, got.Start)
			assert.True(t, tc.want.End.Equal(got.End), "end: want %s, got %s", tc.want.End, got.End)
		})
	}
}

func TestParseDuration_orderIndependent(t *testing.T) {
	a := MustParseDuration("10:00 -- 11:00", testLoc, testRef)
	b := MustParseDuration("11:00 -- 10:00", testLoc, testRef)

	assert.Equal(t, a, b)
}

func TestParseDuration_timezone(t *testing.T) {
	la, err := time.LoadLocation("America/Los_Angeles")
	require.NoError(t, err)

	ref := time.Date(2025, 9, 15, 18, 0, 0, 0, time.UTC)
	iv, err := ParseDuration("10:00 -- 11:00", la, ref)
	require.NoError(t, err)

	// 10:00 PDT is 17:00 UTC.
	assert.True(t, iv.Start.Equal(time.Date(2025, 9, 15, 17, 0, 0, 0, time.UTC)))
	assert.True(t, iv.Contains(time.Date(2025, 9, 15, 17, 59, 59, 0, time.UTC)))
	assert.False(t, iv.Contains(time.Date(2025, 9, 15, 18, 0, 0, 0, time.UTC)))
}

func TestParseDuration_error(t *testing.T) {
	_, err := ParseDuration("2025-02-30 -- 2025-03-02", testLoc, testRef)
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestInterval_Contains(t *testing.T) {
	iv := Interval{Start: at(2025, 9, 15, 10, 0, 0, 0), End: at(2025, 9, 15, 11, 0, 0, 0)}

	testCases := []struct {
		t      time.Time
		assert assert.BoolAssertionFunc
		name   string
	}{{
		t:      iv.Start,
		assert: assert.True,
		name:   "start_inclusive",
	}, {
		t:      iv.End.Add(-time.Millisecond),
		assert: assert.True,
		name:   "last_millisecond",
	}, {
		t:      iv.End,
		assert: assert.False,
		name:   "end_exclusive",
	}, {
		t:      iv.Start.Add(-time.Nanosecond),
		assert: assert.False,
		name:   "before",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(t, iv.Contains(tc.t))
		})
	}

	assert.Equal(t, time.Hour, iv.Duration())
}
