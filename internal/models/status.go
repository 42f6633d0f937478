package models

import (
	"database/sql/driver"
	"fmt"

	"github.com/goccy/go-json"
)

type Status uint8

const (
	StatusUnknown Status = iota
	StatusNotStarted
	StatusOngoing
	StatusCompleted
)

// statusLabels is the single source of truth for the wire and storage form of
// a Status. Parsing and formatting both go through it.
var statusLabels = []struct {
	status Status
	label  string
}{
	{StatusNotStarted, "NotStarted"},
	{StatusOngoing, "Ongoing"},
	{StatusCompleted, "Completed"},
}

// StatusLabels returns the canonical labels in declaration order.
func StatusLabels() []string {
	labels := make([]string, 0, len(statusLabels))
	for _, entry := range statusLabels {
		labels = append(labels, entry.label)
	}
	return labels
}

func ParseStatus(label string) (Status, error) {
	for _, entry := range statusLabels {
		if entry.label == label {
			return entry.status, nil
		}
	}
	return StatusUnknown, fmt.Errorf("unknown status %q, want one of %v", label, StatusLabels())
}

func (s Status) String() string {
	for _, entry := range statusLabels {
		if entry.status == s {
			return entry.label
		}
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

func (s Status) Valid() bool {
	_, err := ParseStatus(s.String())
	return err == nil
}

func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid status %d", uint8(s))
	}
	return json.Marshal(s.String())
}

func (s *Status) UnmarshalJSON(data []byte) error {
	var label string
	if err := json.Unmarshal(data, &label); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}

	parsed, err := ParseStatus(label)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}

func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("cannot store invalid status %d", uint8(s))
	}
	return s.String(), nil
}

func (s *Status) Scan(value any) error {
	var label string
	switch v := value.(type) {
	case string:
		label = v
	case []byte:
		label = string(v)
	default:
		return fmt.Errorf("cannot scan %T into Status", value)
	}

	parsed, err := ParseStatus(label)
	if err != nil {
		return err
	}

	*s = parsed
	return nil
}
