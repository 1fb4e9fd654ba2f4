// Package timestamp turns the date values the backend emits into instants.
//
// The backend mixes ISO strings with an offset, naive Postgres-style
// "YYYY-MM-DD HH:MM:SS" strings and epoch milliseconds. Naive strings are read
// as wall-clock time in the display location; reading them as UTC shifts
// evening timestamps onto the next day.
package timestamp

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Placeholder is rendered in place of a missing or unparseable time.
const Placeholder = "—"

// Display layouts.
const (
	DateLayout     = "02 Jan 2006"
	DateTimeLayout = "02/01/2006, 15:04:05"
)

// maxEpochMillis is the largest magnitude a date may have, ±100,000,000 days.
const maxEpochMillis = 8.64e15

var (
	naivePattern  = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})[ T](\d{2}):(\d{2})(?::(\d{2})(?:\.(\d+))?)?$`)
	offsetPattern = regexp.MustCompile(`(Z|[+-]\d{2}:?\d{2})$`)
)

var zonedLayouts = []string{
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02T15:04Z0700",
}

// genericLayouts are tried in order for anything that is neither zoned ISO nor
// naive Postgres output.
var genericLayouts = []struct {
	layout string
	utc    bool
}{
	{"2006-01-02", true},
	{time.RFC1123Z, false},
	{time.RFC1123, false},
	{time.RFC850, false},
	{time.ANSIC, false},
	{time.UnixDate, false},
	{"2006-01-02 15:04:05Z07:00", false},
	{"2006-01-02 15:04:05.999999999-07", false},
	{"2006/01/02 15:04:05", false},
	{"2006/01/02", false},
	{"Jan 2, 2006 15:04:05", false},
	{"Jan 2, 2006", false},
	{"2 Jan 2006", false},
}

// Rawer is implemented by values that wrap an undecoded timestamp.
type Rawer interface {
	Raw() any
}

// Normalizer interprets timestamps for one display location.
type Normalizer struct {
	Location *time.Location
}

// Local is the normalizer of the running process.
var Local = Normalizer{Location: time.Local}

func (n Normalizer) loc() *time.Location {
	if n.Location == nil {
		return time.Local
	}
	return n.Location
}

// Normalize returns the instant raw denotes, or false when it denotes none.
func (n Normalizer) Normalize(raw any) (time.Time, bool) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, false
	case Rawer:
		return n.Normalize(v.Raw())
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return n.Normalize(*v)
	case int:
		return n.fromMillis(float64(v))
	case int64:
		return n.fromMillis(float64(v))
	case float64:
		return n.fromMillis(v)
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return time.Time{}, false
		}
		return n.fromMillis(f)
	case string:
		return n.parseString(v)
	}
	return time.Time{}, false
}

func (n Normalizer) fromMillis(ms float64) (time.Time, bool) {
	if math.IsNaN(ms) || math.IsInf(ms, 0) || math.Abs(ms) > maxEpochMillis {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(ms)).In(n.loc()), true
}

func (n Normalizer) parseString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if strings.Contains(s, "T") && offsetPattern.MatchString(s) {
		for _, layout := range zonedLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}

	if m := naivePattern.FindStringSubmatch(s); m != nil {
		return n.fromNaive(m)
	}

	for _, g := range genericLayouts {
		loc := n.loc()
		if g.utc {
			loc = time.UTC
		}
		if t, err := time.ParseInLocation(g.layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func (n Normalizer) fromNaive(m []string) (time.Time, bool) {
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	sec := 0
	if m[6] != "" {
		sec, _ = strconv.Atoi(m[6])
	}
	ms := 0
	if m[7] != "" {
		frac, err := strconv.ParseFloat("0."+m[7], 64)
		if err == nil {
			ms = int(math.Round(frac * 1000))
		}
	}

	// time.Date normalizes out-of-range fields (month 13, minute 61) the
	// same way overflowing wall-clock fields roll forward.
	t := time.Date(year, time.Month(month), day, hour, minute, sec, ms*int(time.Millisecond), n.loc())
	return t, true
}

// ToEpochMillis returns the epoch milliseconds of raw, 0 when absent.
func (n Normalizer) ToEpochMillis(raw any) int64 {
	t, ok := n.Normalize(raw)
	if !ok {
		return 0
	}
	return t.UnixMilli()
}

// FormatDate renders raw as "05 Mar 2024".
func (n Normalizer) FormatDate(raw any) string {
	return n.format(raw, DateLayout)
}

// FormatDateTime renders raw as "05/03/2024, 14:30:00".
func (n Normalizer) FormatDateTime(raw any) string {
	return n.format(raw, DateTimeLayout)
}

func (n Normalizer) format(raw any, layout string) string {
	t, ok := n.Normalize(raw)
	if !ok {
		return Placeholder
	}
	return t.In(n.loc()).Format(layout)
}

// Normalize uses the process-local normalizer.
func Normalize(raw any) (time.Time, bool) { return Local.Normalize(raw) }

// ToEpochMillis uses the process-local normalizer.
func ToEpochMillis(raw any) int64 { return Local.ToEpochMillis(raw) }

// FormatDate uses the process-local normalizer.
func FormatDate(raw any) string { return Local.FormatDate(raw) }

// FormatDateTime uses the process-local normalizer.
func FormatDateTime(raw any) string { return Local.FormatDateTime(raw) }
