package models

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Number is a lenient JSON number. Missing, null, boolean and non-numeric
// values decode as 0, mirroring the "value || 0" defaulting the view applies.
type Number float64

// UnmarshalJSON accepts numbers, numeric strings and null.
func (n *Number) UnmarshalJSON(data []byte) error {
	*n = 0
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	var raw interface{}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*n = Number(toFloat(raw))
	return nil
}

// MarshalJSON writes the number as a plain JSON number.
func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(n.String()), nil
}

// Float64 returns the value, with NaN and infinities collapsed to 0.
func (n Number) Float64() float64 {
	f := float64(n)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// String renders the shortest decimal form: 5, 97.5, 0.25.
func (n Number) String() string {
	return strconv.FormatFloat(n.Float64(), 'f', -1, 64)
}

func toFloat(value interface{}) float64 {
	switch v := value.(type) {
	case float64:
		return v
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case string:
		trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "%"))
		if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
			return f
		}
	}
	return 0
}

// InvalidDate is what an unparseable timestamp renders as.
const InvalidDate = "Invalid Date"

// LocalTimeLayout is the human-readable layout used for start times.
const LocalTimeLayout = "1/2/2006, 3:04:05 PM"

// zonedLayouts carry an offset, or are date-only and read as UTC.
var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

// floatingLayouts are date-times without an offset. They are read as wall
// clock time in the viewer's location.
var floatingLayouts = []string{
	floatingLayout,
	"2006-01-02 15:04:05.999999999",
}

const floatingLayout = "2006-01-02T15:04:05.999999999"

// Timestamp is a lenient point in time. It keeps whether the backend value
// could be parsed so the view can show InvalidDate instead of the zero time.
type Timestamp struct {
	Time  time.Time
	Valid bool

	// floating marks a zone-less value; Time holds its wall clock in UTC.
	floating bool
}

// NewTimestamp wraps a valid time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t, Valid: true}
}

// UnmarshalJSON accepts RFC 3339 style strings or epoch milliseconds.
// Unparseable input is not an error; it yields an invalid Timestamp.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return nil
		}
		*ts = ParseTimestamp(s)
		return nil
	}
	if ms, err := strconv.ParseFloat(string(trimmed), 64); err == nil && !math.IsNaN(ms) && !math.IsInf(ms, 0) {
		*ts = NewTimestamp(time.UnixMilli(int64(ms)).UTC())
	}
	return nil
}

// MarshalJSON writes RFC 3339, or null when invalid.
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if !ts.Valid {
		return []byte("null"), nil
	}
	if ts.floating {
		return json.Marshal(ts.Time.Format(floatingLayout))
	}
	return json.Marshal(ts.Time.Format(time.RFC3339Nano))
}

// ParseTimestamp parses the string layouts the backend is known to emit.
func ParseTimestamp(s string) Timestamp {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimestamp(t)
		}
	}
	for _, layout := range floatingLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t, Valid: true, floating: true}
		}
	}
	return Timestamp{}
}

// In resolves the timestamp in loc (time.Local when nil). A zone-less value
// keeps its wall clock and takes loc as its zone.
func (ts Timestamp) In(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	if ts.floating {
		t := ts.Time
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
	}
	return ts.Time.In(loc)
}

// Local formats the timestamp in loc (time.Local when nil) using LocalTimeLayout.
func (ts Timestamp) Local(loc *time.Location) string {
	if !ts.Valid {
		return InvalidDate
	}
	return ts.In(loc).Format(LocalTimeLayout)
}
