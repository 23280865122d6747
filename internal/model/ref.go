package model

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// ScheduleRef is the schedule of a full-day override: either the id of a
// stored schedule or a schedule written inline.
type ScheduleRef struct {
	ID     string
	Inline *Schedule
}

// RefID returns a reference to the stored schedule id.
func RefID(id string) ScheduleRef {
	return ScheduleRef{ID: id}
}

// RefInline returns a reference holding s itself.
func RefInline(s Schedule) ScheduleRef {
	return ScheduleRef{Inline: &s}
}

// IsInline reports whether the reference carries its own schedule.
func (r ScheduleRef) IsInline() bool {
	return r.Inline != nil
}

// type check
var (
	_ json.Marshaler   = ScheduleRef{}
	_ json.Unmarshaler = (*ScheduleRef)(nil)
	_ yaml.Marshaler   = ScheduleRef{}
	_ yaml.Unmarshaler = (*ScheduleRef)(nil)
)

// MarshalJSON implements the [json.Marshaler] interface for ScheduleRef.
func (r ScheduleRef) MarshalJSON() ([]byte, error) {
	if r.Inline != nil {
		return json.Marshal(r.Inline)
	}
	return json.Marshal(r.ID)
}

// UnmarshalJSON implements the [json.Unmarshaler] interface for *ScheduleRef.
func (r *ScheduleRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")):
		*r = ScheduleRef{}
		return nil
	case data[0] == '"':
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return err
		}
		*r = ScheduleRef{ID: id}
		return nil
	case data[0] == '{':
		var s Schedule
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("inline schedule: %w", err)
		}
		*r = ScheduleRef{Inline: &s}
		return nil
	default:
		return fmt.Errorf("schedule reference: unexpected %s", data)
	}
}

// MarshalYAML implements the [yaml.Marshaler] interface for ScheduleRef.
func (r ScheduleRef) MarshalYAML() (any, error) {
	if r.Inline != nil {
		return r.Inline, nil
	}
	return r.ID, nil
}

// UnmarshalYAML implements the [yaml.Unmarshaler] interface for *ScheduleRef.
func (r *ScheduleRef) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var id string
		if err := value.Decode(&id); err != nil {
			return err
		}
		*r = ScheduleRef{ID: id}
		return nil
	case yaml.MappingNode:
		var s Schedule
		if err := value.Decode(&s); err != nil {
			return fmt.Errorf("inline schedule: %w", err)
		}
		*r = ScheduleRef{Inline: &s}
		return nil
	default:
		return fmt.Errorf("schedule reference: line %d: unexpected node", value.Line)
	}
}
