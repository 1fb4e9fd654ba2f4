package models

import "strings"

// Activity is one entry of the engineer's activity feed
type Activity struct {
	Message   string    `json:"message,omitempty"`
	Type      string    `json:"type,omitempty"`
	Time      Timestamp `json:"time"`
	CreatedAt Timestamp `json:"created_at"`
}

// Label returns the text shown for the entry
func (a Activity) Label() string {
	switch {
	case a.Message != "":
		return a.Message
	case a.Type != "":
		return a.Type
	}
	return "Activity"
}

// When returns the most specific timestamp of the entry
func (a Activity) When() Timestamp {
	if !a.Time.IsZero() {
		return a.Time
	}
	return a.CreatedAt
}

func equalFoldTrim(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), b)
}
