package web

import (
	"time"

	"schoolclock/internal/resolve"
)

// nowResponse is the JSON response shape for /api/now.
type nowResponse struct {
	At         time.Time `json:"at"`
	Timezone   string    `json:"timezone"`
	Division   string    `json:"division,omitempty"`
	SchoolName string    `json:"school_name"`
	ShortName  string    `json:"short_name"`

	Schedule scheduleDTO `json:"schedule"`
	Period   *periodDTO  `json:"period"`

	// Elapsed and Remaining are formatted for display and left out when the
	// period hides them.
	Elapsed   string `json:"elapsed,omitempty"`
	Remaining string `json:"remaining,omitempty"`

	Announcements []announcementDTO `json:"announcements"`
}

// scheduleResponse is the JSON response shape for /api/schedule.
type scheduleResponse struct {
	Schedule scheduleDTO `json:"schedule"`
	Timings  []timingDTO `json:"timings"`
}

type scheduleDTO struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Override string `json:"override,omitempty"`
}

type timingDTO struct {
	Label     string    `json:"label"`
	Applies   string    `json:"applies"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	HideStart bool      `json:"hide_start,omitempty"`
	HideEnd   bool      `json:"hide_end,omitempty"`
}

type periodDTO struct {
	Label    string    `json:"label"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Override string    `json:"override,omitempty"`
}

type announcementDTO struct {
	Message string   `json:"message"`
	Applies []string `json:"applies"`
	When    string   `json:"when"`
}

type divisionDTO struct {
	ID         string `json:"id"`
	Label      string `json:"label"`
	ShortLabel string `json:"short_label,omitempty"`
	Selected   bool   `json:"selected"`
}

func toScheduleDTO(s resolve.Schedule) scheduleDTO {
	dto := scheduleDTO{ID: s.ID, Label: s.Label}
	if s.Override != nil {
		dto.Override = s.Override.Occasion
	}
	return dto
}

func toPeriodDTO(p resolve.Period) periodDTO {
	dto := periodDTO{Label: p.Label, Start: p.Interval.Start, End: p.Interval.End}
	if p.Override != nil {
		dto.Override = p.Override.Occasion
	}
	return dto
}
