package models

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Project represents a tire-simulation project as returned by the backend
type Project struct {
	ID          ProjectID       `json:"id"`
	ProjectName string          `json:"project_name"`
	Protocol    string          `json:"protocol"`
	Status      string          `json:"status"`
	CreatedAt   Timestamp       `json:"created_at"`
	UpdatedAt   Timestamp       `json:"updated_at"`
	CompletedAt Timestamp       `json:"completed_at"`
	Inputs      json.RawMessage `json:"inputs,omitempty"`
}

// DisplayName returns the name shown for the project in lists
func (p Project) DisplayName() string {
	if p.ProjectName != "" {
		return p.ProjectName
	}
	if p.ID.Present() && p.ID.String() != "" {
		return p.ID.String()
	}
	return "Untitled"
}

// HasStatus reports whether the project status matches s, ignoring case
func (p Project) HasStatus(s string) bool {
	return strings.EqualFold(strings.TrimSpace(p.Status), s)
}

// ProjectID is the opaque server identifier of a project. The backend sends it
// as a number, a string or null, so presence is tracked explicitly.
type ProjectID struct {
	value   string
	present bool
	numeric bool
}

// NewProjectID returns a present string identifier
func NewProjectID(value string) ProjectID {
	return ProjectID{value: value, present: true}
}

// Present reports whether the backend supplied a non-null id
func (id ProjectID) Present() bool {
	return id.present
}

func (id ProjectID) String() string {
	return id.value
}

func (id *ProjectID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ProjectID{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ProjectID{value: s, present: true}
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			// Objects, arrays and booleans keep their compact text form.
			var buf bytes.Buffer
			if cerr := json.Compact(&buf, data); cerr != nil {
				return cerr
			}
			*id = ProjectID{value: buf.String(), present: true}
			return nil
		}
		*id = ProjectID{value: n.String(), present: true, numeric: true}
	}

	return nil
}

func (id ProjectID) MarshalJSON() ([]byte, error) {
	if !id.present {
		return []byte("null"), nil
	}
	if id.numeric {
		return []byte(id.value), nil
	}
	return json.Marshal(id.value)
}
