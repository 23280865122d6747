package model

// CurrentVersion is the only document version the resolution engine reads.
const CurrentVersion = 2

// Document is a version 2 context document: everything the clock needs to
// know about one school.
type Document struct {
	Version       int    `json:"version" yaml:"version"`
	LastUpdatedID string `json:"last_updated_id" yaml:"last_updated_id"`

	Metadata Metadata `json:"metadata" yaml:"metadata"`

	Divisions []Division `json:"divisions,omitempty" yaml:"divisions,omitempty"`

	Announcements      []Announcement      `json:"announcements" yaml:"announcements"`
	SchedulingRules    []SchedulingRule    `json:"scheduling_rules" yaml:"scheduling_rules"`
	Schedules          []Schedule          `json:"schedules" yaml:"schedules"`
	FullDayOverrides   []FullDayOverride   `json:"full_day_overrides" yaml:"full_day_overrides"`
	TimeframeOverrides []TimeframeOverride `json:"timeframe_overrides" yaml:"timeframe_overrides"`
}

// Metadata identifies the school.
type Metadata struct {
	SchoolID   int    `json:"school_id" yaml:"school_id"`
	SchoolName string `json:"school_name" yaml:"school_name"`
	ShortName  string `json:"short_name" yaml:"short_name"`
	// Timezone is an IANA zone name such as "America/Los_Angeles".
	Timezone string `json:"timezone" yaml:"timezone"`
}

// Division is a named sub-scope of a school (a grade band, a campus, ...).
// Its arrays take precedence over the document's global arrays.
type Division struct {
	Details DivisionDetails `json:"details" yaml:"details"`

	// Metadata, if set, renames the school for members of this division.
	Metadata *DivisionMetadata `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	Announcements      []Announcement      `json:"announcements,omitempty" yaml:"announcements,omitempty"`
	SchedulingRules    []SchedulingRule    `json:"scheduling_rules,omitempty" yaml:"scheduling_rules,omitempty"`
	Schedules          []Schedule          `json:"schedules,omitempty" yaml:"schedules,omitempty"`
	FullDayOverrides   []FullDayOverride   `json:"full_day_overrides,omitempty" yaml:"full_day_overrides,omitempty"`
	TimeframeOverrides []TimeframeOverride `json:"timeframe_overrides,omitempty" yaml:"timeframe_overrides,omitempty"`
}

// DivisionDetails identifies a division.
type DivisionDetails struct {
	// DivisionID is stable; hosts persist it as the user's selection.
	DivisionID string `json:"division_id" yaml:"division_id"`
	// DivisionLabel is shown when choosing a division.
	DivisionLabel string `json:"division_label" yaml:"division_label"`
	// DivisionShortLabel, when set, is appended to the school name
	// ("ABC High (9th)").
	DivisionShortLabel string `json:"division_short_label,omitempty" yaml:"division_short_label,omitempty"`
}

// DivisionMetadata replaces the school's names for a division.
type DivisionMetadata struct {
	SchoolName string `json:"school_name,omitempty" yaml:"school_name,omitempty"`
	ShortName  string `json:"short_name,omitempty" yaml:"short_name,omitempty"`
}

// Announcement is a message shown while any of its Applies ranges holds.
type Announcement struct {
	// Message is raw markup authored by the school.
	Message string   `json:"message" yaml:"message"`
	Applies []string `json:"applies" yaml:"applies"`
}

// SchedulingRule selects Schedule on the days its matcher accepts Pattern.
type SchedulingRule struct {
	Matcher  string `json:"matcher" yaml:"matcher"`
	Pattern  string `json:"pattern" yaml:"pattern"`
	Schedule string `json:"schedule" yaml:"schedule"`
}

// Schedule is an ordered list of periods.
type Schedule struct {
	ID      string   `json:"id" yaml:"id"`
	Label   string   `json:"label" yaml:"label"`
	Timings []Timing `json:"timings" yaml:"timings"`
}

// Timing is one period of a schedule.
type Timing struct {
	Label string `json:"label" yaml:"label"`
	// Applies is a single duration string, usually a time range for "today".
	Applies string `json:"applies" yaml:"applies"`
	// HideStart and HideEnd suppress the elapsed and remaining counters.
	HideStart bool `json:"hideStart,omitempty" yaml:"hideStart,omitempty"`
	HideEnd   bool `json:"hideEnd,omitempty" yaml:"hideEnd,omitempty"`
}

// FullDayOverride replaces the day's schedule (holidays, minimum days, ...).
type FullDayOverride struct {
	Occasion string      `json:"occasion" yaml:"occasion"`
	Applies  []string    `json:"applies" yaml:"applies"`
	Schedule ScheduleRef `json:"schedule" yaml:"schedule"`
}

// TimeframeOverride stands in for a single period, whatever schedule is
// otherwise active (an assembly, a fire drill, ...).
type TimeframeOverride struct {
	Occasion string   `json:"occasion" yaml:"occasion"`
	Label    string   `json:"label" yaml:"label"`
	Applies  []string `json:"applies" yaml:"applies"`
}

// NoneScheduleID is the id of the implicit empty schedule.
const NoneScheduleID = "none"

// NoneSchedule returns the sentinel schedule used whenever nothing applies.
// It is never stored in a document.
func NoneSchedule() Schedule {
	return Schedule{
		ID:      NoneScheduleID,
		Label:   "<None>",
		Timings: []Timing{},
	}
}
