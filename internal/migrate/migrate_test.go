package migrate

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolclock/internal/model"
)

const legacyJSON = `{
	"version": 1,
	"last_updated_id": "2025-06-07-03",
	"metadata": {"schoolId": "12", "school": "Lincoln High", "shortName": "LHS"},
	"announcements": [{"message": "<b>Hi</b>", "applies": ["2025-09"]}],
	"schedulingRules": [
		{"match": "dayOfTheWeek", "pattern": "1 -- 4", "schedule": "regular"},
		{"matcher": "dayOfTheWeek", "pattern": "5", "schedule": "friday"}
	],
	"schedules": [{
		"id": "regular",
		"label": "Regular",
		"timings": {
			"Period 2": ["9:00 -- 10:00"],
			"Period 1": "8:00 -- 9:00",
			"Lunch": ["11:00 -- 11:30", "12:00 -- 12:30"]
		}
	}, {
		"id": "friday",
		"label": "Friday",
		"timings": [{"label": "Period 1", "applies": "8:00 -- 8:45", "hideEnd": true}]
	}],
	"full_day_overrides": [
		{"name": "Labor Day", "applies": ["2025-09-01"], "schedule": "none"},
		{"occasion": "Rally", "applies": ["2025-09-12"], "schedule": {"id": "rally", "timings": {"Rally": "8:00 -- 9:00"}}}
	],
	"timeframe_overrides": [
		{"name": "Fire Drill", "description": "Drill", "applies": ["2025-09-03/10:00 -- 2025-09-03/10:20"]}
	]
}`

func decode(t *testing.T, s string) *model.LegacyDocument {
	t.Helper()

	doc := &model.LegacyDocument{}
	require.NoError(t, json.Unmarshal([]byte(s), doc))

	return doc
}

func TestV1ToV2(t *testing.T) {
	now := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)
	got := V1ToV2(decode(t, legacyJSON), now)

	want := &model.Document{
		Version:       2,
		LastUpdatedID: "2025-09-15-01",
		Metadata: model.Metadata{
			SchoolID:   12,
			SchoolName: "Lincoln High",
			ShortName:  "LHS",
			Timezone:   DefaultTimezone,
		},
		Announcements: []model.Announcement{{Message: "<b>Hi</b>", Applies: []string{"2025-09"}}},
		SchedulingRules: []model.SchedulingRule{
			{Matcher: "dayOfTheWeek", Pattern: "1 -- 4", Schedule: "regular"},
			{Matcher: "dayOfTheWeek", Pattern: "5", Schedule: "friday"},
		},
		Schedules: []model.Schedule{{
			ID:    "regular",
			Label: "Regular",
			Timings: []model.Timing{
				{Label: "Period 2", Applies: "9:00 -- 10:00"},
				{Label: "Period 1", Applies: "8:00 -- 9:00"},
				{Label: "Lunch", Applies: "11:00 -- 11:30"},
				{Label: "Lunch", Applies: "12:00 -- 12:30"},
			},
		}, {
			ID:      "friday",
			Label:   "Friday",
			Timings: []model.Timing{{Label: "Period 1", Applies: "8:00 -- 8:45", HideEnd: true}},
		}},
		FullDayOverrides: []model.FullDayOverride{{
			Occasion: "Labor Day",
			Applies:  []string{"2025-09-01"},
			Schedule: model.RefID("none"),
		}, {
			Occasion: "Rally",
			Applies:  []string{"2025-09-12"},
			Schedule: model.RefInline(model.Schedule{
				ID:      "rally",
				Timings: []model.Timing{{Label: "Rally", Applies: "8:00 -- 9:00"}},
			}),
		}},
		TimeframeOverrides: []model.TimeframeOverride{{
			Occasion: "Fire Drill",
			Label:    "Drill",
			Applies:  []string{"2025-09-03/10:00 -- 2025-09-03/10:20"},
		}},
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("V1ToV2() mismatch (-want +got):\n%s", diff)
	}
}

func TestV1ToV2_empty(t *testing.T) {
	now := time.Date(2025, time.January, 2, 0, 0, 0, 0, time.UTC)
	got := V1ToV2(decode(t, `{}`), now)

	assert.Equal(t, 2, got.Version)
	assert.Equal(t, "2025-01-02-01", got.LastUpdatedID)
	assert.Equal(t, model.Metadata{
		SchoolName: DefaultSchoolName,
		ShortName:  DefaultShortName,
		Timezone:   DefaultTimezone,
	}, got.Metadata)
	assert.NotNil(t, got.Announcements)
	assert.NotNil(t, got.SchedulingRules)
	assert.NotNil(t, got.Schedules)
	assert.NotNil(t, got.FullDayOverrides)
	assert.NotNil(t, got.TimeframeOverrides)

	assert.NotNil(t, V1ToV2(nil, now))
}

func TestV1ToV2_snakeCaseRules(t *testing.T) {
	doc := decode(t, `{"scheduling_rules": [{"match": "always", "schedule": "regular"}]}`)
	got := V1ToV2(doc, time.Now())

	require.Len(t, got.SchedulingRules, 1)
	assert.Equal(t, "always", got.SchedulingRules[0].Matcher)
}

func TestV1ToV2_twiceSameDay(t *testing.T) {
	doc := decode(t, legacyJSON)
	now := time.Date(2025, time.September, 15, 9, 0, 0, 0, time.UTC)

	first := V1ToV2(doc, now)
	doc.LastUpdatedID = first.LastUpdatedID
	second := V1ToV2(doc, now.Add(time.Hour))

	assert.Equal(t, "2025-09-15-01", first.LastUpdatedID)
	assert.Equal(t, "2025-09-15-02", second.LastUpdatedID)

	doc.LastUpdatedID = second.LastUpdatedID
	nextDay := V1ToV2(doc, now.AddDate(0, 0, 1))
	assert.Equal(t, "2025-09-16-01", nextDay.LastUpdatedID)
}

func TestNextUpdateID(t *testing.T) {
	now := time.Date(2025, time.June, 7, 12, 0, 0, 0, time.UTC)

	testCases := []struct {
		name string
		prev string
		want string
	}{
		{name: "empty", prev: "", want: "2025-06-07-01"},
		{name: "baseline", prev: "0000-00-00-00", want: "2025-06-07-01"},
		{name: "other_day", prev: "2025-06-06-07", want: "2025-06-07-01"},
		{name: "increment", prev: "2025-06-07-01", want: "2025-06-07-02"},
		{name: "nine", prev: "2025-06-07-09", want: "2025-06-07-10"},
		{name: "ninety_nine", prev: "2025-06-07-99", want: "2025-06-07-0100"},
		{name: "garbage_counter", prev: "2025-06-07-xx", want: "2025-06-07-01"},
		{name: "short", prev: "2025", want: "2025-06-07-01"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, NextUpdateID(tc.prev, now))
		})
	}
}
