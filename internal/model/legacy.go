package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// LegacyDocument is a version 1 context document. Key spellings that were
// in circulation before version 2 are all accepted; the migrate package
// turns it into a Document.
type LegacyDocument struct {
	Version       int             `json:"version"`
	LastUpdatedID string          `json:"last_updated_id"`
	Metadata      *LegacyMetadata `json:"metadata"`

	Announcements []Announcement `json:"announcements"`

	SchedulingRules      []LegacyRule `json:"schedulingRules"`
	SchedulingRulesSnake []LegacyRule `json:"scheduling_rules"`

	Schedules          []LegacySchedule `json:"schedules"`
	FullDayOverrides   []LegacyFDO      `json:"full_day_overrides"`
	TimeframeOverrides []LegacyTFO      `json:"timeframe_overrides"`
}

// LegacyMetadata uses the camel-case keys of version 1.
type LegacyMetadata struct {
	SchoolID  LegacyInt `json:"schoolId"`
	School    string    `json:"school"`
	ShortName string    `json:"shortName"`
	Timezone  string    `json:"timezone"`
}

// LegacyRule names its matcher "match"; "matcher" is read too.
type LegacyRule struct {
	Match    string `json:"match"`
	Matcher  string `json:"matcher"`
	Pattern  string `json:"pattern"`
	Schedule string `json:"schedule"`
}

// LegacySchedule keeps its timings as a label to applies map.
type LegacySchedule struct {
	ID      string        `json:"id"`
	Label   string        `json:"label"`
	Timings LegacyTimings `json:"timings"`
}

// LegacyFDO is a version 1 full-day override.
type LegacyFDO struct {
	Name     string            `json:"name"`
	Occasion string            `json:"occasion"`
	Applies  []string          `json:"applies"`
	Schedule LegacyScheduleRef `json:"schedule"`
}

// LegacyTFO is a version 1 timeframe override.
type LegacyTFO struct {
	Name        string   `json:"name"`
	Occasion    string   `json:"occasion"`
	Description string   `json:"description"`
	Label       string   `json:"label"`
	Applies     []string `json:"applies"`
}

// LegacyTimingEntry is one label of a map-shaped timings object, in the
// order it was written.
type LegacyTimingEntry struct {
	Label   string
	Applies []string
}

// LegacyTimings holds either the version 1 map shape (Entries) or timings
// that were already written as a version 2 array (Array).
type LegacyTimings struct {
	Entries []LegacyTimingEntry
	Array   []Timing
	IsArray bool
}

// type check
var _ json.Unmarshaler = (*LegacyTimings)(nil)

// UnmarshalJSON implements the [json.Unmarshaler] interface for
// *LegacyTimings. Object keys are kept in document order since the order of
// periods decides which one wins.
func (lt *LegacyTimings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*lt = LegacyTimings{}
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '[' {
		lt.IsArray = true
		return json.Unmarshal(data, &lt.Array)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("timings: unexpected %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		label, _ := keyTok.(string)

		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return fmt.Errorf("timings %q: %w", label, err)
		}

		applies, err := stringOrList(raw)
		if err != nil {
			return fmt.Errorf("timings %q: %w", label, err)
		}
		lt.Entries = append(lt.Entries, LegacyTimingEntry{Label: label, Applies: applies})
	}

	_, err = dec.Token()
	return err
}

func stringOrList(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
	var list []string
	err := json.Unmarshal(raw, &list)
	return list, err
}

// LegacyScheduleRef is a schedule id or an inline version 1 schedule.
type LegacyScheduleRef struct {
	ID     string
	Inline *LegacySchedule
}

// type check
var _ json.Unmarshaler = (*LegacyScheduleRef)(nil)

// UnmarshalJSON implements the [json.Unmarshaler] interface for
// *LegacyScheduleRef.
func (r *LegacyScheduleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*r = LegacyScheduleRef{}
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		return nil
	case data[0] == '{':
		r.Inline = &LegacySchedule{}
		return json.Unmarshal(data, r.Inline)
	default:
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		r.ID = fmt.Sprint(v)
		return nil
	}
}

// LegacyInt accepts a JSON number or a numeric string. Anything else reads
// as zero.
type LegacyInt int

// type check
var _ json.Unmarshaler = (*LegacyInt)(nil)

// UnmarshalJSON implements the [json.Unmarshaler] interface for *LegacyInt.
func (n *LegacyInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = LegacyInt(f)
	return nil
}
