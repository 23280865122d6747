package matcher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLoc = time.FixedZone("UTC-7", -7*60*60)

// monday is 2025-09-15, a Monday.
var monday = time.Date(2025, 9, 15, 9, 30, 12, 0, testLoc)

func TestDayOfWeek_Match(t *testing.T) {
	sunday := monday.AddDate(0, 0, 6)
	saturday := monday.AddDate(0, 0, 5)

	testCases := []struct {
		t       time.Time
		assert  assert.BoolAssertionFunc
		pattern string
		name    string
	}{{
		t:       monday,
		assert:  assert.True,
		pattern: "1",
		name:    "single_day",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "2",
		name:    "other_day",
	}, {
		t:       monday,
		assert:  assert.True,
		pattern: "1 -- 5",
		name:    "weekday_range",
	}, {
		t:       saturday,
		assert:  assert.False,
		pattern: "1 -- 5",
		name:    "weekend_outside_range",
	}, {
		t:       sunday,
		assert:  assert.True,
		pattern: "7",
		name:    "sunday_is_seven",
	}, {
		t:       sunday,
		assert:  assert.True,
		pattern: "6--7",
		name:    "weekend_range",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "monday",
		name:    "not_a_number",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "1 -- x",
		name:    "bad_range_end",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "",
		name:    "empty",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(t, DayOfWeek{}.Match(tc.t, tc.pattern))
		})
	}
}

func TestDayOfWeek_usesInstantZone(t *testing.T) {
	// Sunday 23:00 at UTC-7 is Monday 06:00 UTC.
	late := time.Date(2025, 9, 14, 23, 0, 0, 0, testLoc)
	assert.True(t, DayOfWeek{}.Match(late, "7"))
	assert.True(t, DayOfWeek{}.Match(late.UTC(), "1"))
}

func TestRRule_Match(t *testing.T) {
	m := NewRRule()

	testCases := []struct {
		t       time.Time
		assert  assert.BoolAssertionFunc
		pattern string
		name    string
	}{{
		t:       monday,
		assert:  assert.True,
		pattern: "FREQ=WEEKLY;BYDAY=MO",
		name:    "weekly_monday",
	}, {
		t:       monday.AddDate(0, 0, 1),
		assert:  assert.False,
		pattern: "FREQ=WEEKLY;BYDAY=MO",
		name:    "weekly_monday_on_tuesday",
	}, {
		t:       monday,
		assert:  assert.True,
		pattern: "RRULE:FREQ=MONTHLY;BYMONTHDAY=15",
		name:    "monthly_with_prefix",
	}, {
		t:       monday,
		assert:  assert.True,
		pattern: "FREQ=DAILY;COUNT=3;DTSTART=20250914T000000",
		name:    "floating_dtstart_inside",
	}, {
		t:       monday.AddDate(0, 0, 2),
		assert:  assert.False,
		pattern: "FREQ=DAILY;COUNT=3;DTSTART=20250914T000000",
		name:    "floating_dtstart_after_count",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "FREQ=NEVER",
		name:    "invalid",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(t, m.Match(tc.t, tc.pattern))
			// Cached path.
			tc.assert(t, m.Match(tc.t, tc.pattern))
		})
	}
}

func TestCron_Match(t *testing.T) {
	m := NewCron()

	testCases := []struct {
		t       time.Time
		assert  assert.BoolAssertionFunc
		pattern string
		name    string
	}{{
		t:       monday,
		assert:  assert.True,
		pattern: "* * * * 1-5",
		name:    "weekdays",
	}, {
		t:       monday.AddDate(0, 0, 5),
		assert:  assert.False,
		pattern: "* * * * 1-5",
		name:    "weekdays_on_saturday",
	}, {
		t:       monday,
		assert:  assert.True,
		pattern: "30 9 * * *",
		name:    "exact_minute",
	}, {
		t:       monday.Add(time.Minute),
		assert:  assert.False,
		pattern: "30 9 * * *",
		name:    "next_minute",
	}, {
		t:       monday,
		assert:  assert.True,
		pattern: "* * 15 9 *",
		name:    "date",
	}, {
		t:       monday,
		assert:  assert.False,
		pattern: "not cron",
		name:    "invalid",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tc.assert(t, m.Match(tc.t, tc.pattern))
			tc.assert(t, m.Match(tc.t, tc.pattern))
		})
	}
}

func TestRegistry(t *testing.T) {
	r := Default()

	m, ok := r.Lookup("dayOfTheWeek")
	require.True(t, ok)
	assert.True(t, m.Match(monday, "1"))

	_, ok = r.Lookup("lunarPhase")
	assert.False(t, ok)

	r.Register("never", Func(func(time.Time, string) bool { return false }))
	m, ok = r.Lookup("never")
	require.True(t, ok)
	assert.False(t, m.Match(monday, ""))

	assert.Equal(t, []string{"always", "cron", "dayOfTheWeek", "dayOfWeek", "never", "rrule"}, r.Names())

	var nilRegistry *Registry
	_, ok = nilRegistry.Lookup("always")
	assert.False(t, ok)
}
