package domain

import (
	"fmt"
	"strings"
	"time"
)

// TimeOfDay is a wall-clock time without date or zone.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// NewTimeOfDay builds a TimeOfDay enforcing the 00:00..23:59 bounds.
func NewTimeOfDay(hour, minute int) (TimeOfDay, error) {
	t := TimeOfDay{Hour: hour, Minute: minute}
	if !t.Valid() {
		return TimeOfDay{}, fmt.Errorf("%w: %02d:%02d", ErrInvalidTimeOfDay, hour, minute)
	}
	return t, nil
}

// MustTimeOfDay is NewTimeOfDay for constants; it panics on out-of-range values.
func MustTimeOfDay(hour, minute int) TimeOfDay {
	t, err := NewTimeOfDay(hour, minute)
	if err != nil {
		panic(err)
	}
	return t
}

// TimeOfDayFrom extracts the wall-clock hour and minute of t in its own location.
func TimeOfDayFrom(t time.Time) TimeOfDay {
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}
}

// Valid reports whether the hour and minute are inside their ranges.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

// Compare orders by hour then minute, returning -1, 0 or 1.
func (t TimeOfDay) Compare(other TimeOfDay) int {
	a, b := t.minutes(), other.minutes()
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// Before reports whether t is strictly earlier than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	return t.Compare(other) < 0
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// String renders the "HH:MM" form.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

func (t TimeOfDay) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *TimeOfDay) UnmarshalText(text []byte) error {
	parsed, err := ParseTimeOfDay(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimeOfDay accepts "HH:MM" and "HH:MM:SS"; seconds are discarded.
func ParseTimeOfDay(raw string) (TimeOfDay, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TimeOfDay{}, fmt.Errorf("%w: empty value", ErrInvalidTimeOfDay)
	}
	layout := "15:04"
	if strings.Count(s, ":") == 2 {
		layout = "15:04:05"
	}
	parsed, err := time.Parse(layout, s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return TimeOfDayFrom(parsed), nil
}

// DurationRecord is the duration-like shape the backend uses for opening and closing markers.
type DurationRecord struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
	Nano   int `json:"nano"`
}

// Record converts t into its backend record; seconds and nanos are always zero.
func (t TimeOfDay) Record() DurationRecord {
	return DurationRecord{Hour: t.Hour, Minute: t.Minute}
}

// TimeOfDay converts the record back, ignoring seconds and nanos.
func (r DurationRecord) TimeOfDay() (TimeOfDay, error) {
	return NewTimeOfDay(r.Hour, r.Minute)
}

// ParseISODuration reads "PT8H30M"-style offsets from midnight.
func ParseISODuration(raw string) (TimeOfDay, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if !strings.HasPrefix(s, "PT") || len(s) < 3 {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	// time.ParseDuration understands "8h30m0s" once the ISO markers are lowercased.
	d, err := time.ParseDuration(strings.ToLower(s[2:]))
	if err != nil || d < 0 || d >= 24*time.Hour {
		return TimeOfDay{}, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, raw)
	}
	return NewTimeOfDay(int(d/time.Hour), int((d%time.Hour)/time.Minute))
}
