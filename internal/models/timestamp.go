package models

import (
	"bytes"
	"encoding/json"
	"time"
)

// Timestamp holds a date value exactly as the backend sent it. Depending on the
// endpoint that is an ISO string, a naive "YYYY-MM-DD HH:MM:SS" string, an
// epoch number or null; interpretation is left to the timestamp package.
type Timestamp struct {
	raw any
}

// NewTimestamp wraps a raw value (string, number, time.Time or nil)
func NewTimestamp(raw any) Timestamp {
	return Timestamp{raw: raw}
}

// Raw returns the value as decoded. Numbers decode as json.Number.
func (t Timestamp) Raw() any {
	return t.raw
}

// IsZero reports whether no value was sent
func (t Timestamp) IsZero() bool {
	switch v := t.raw.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case time.Time:
		return v.IsZero()
	}
	return false
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	t.raw = v
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.raw)
}
