package domain

import (
	"strconv"
	"strings"
	"time"

	"deliveryPanel/internal/shared/normalization"
)

// DayOfWeek enumerates the opening days using the calendar convention 0=Sunday..6=Saturday.
type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

// DaysPerWeek is the number of DayOfWeek values.
const DaysPerWeek = 7

var dayNames = [DaysPerWeek]string{
	Sunday:    "Sunday",
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
}

// allowedDays indexes every accepted spelling (lowercased) to its canonical day.
var allowedDays = func() map[string]DayOfWeek {
	index := make(map[string]DayOfWeek, DaysPerWeek*3)
	for i, name := range dayNames {
		day := DayOfWeek(i)
		lower := strings.ToLower(name)
		index[lower] = day
		index[lower[:3]] = day
		index[strconv.Itoa(i)] = day
	}
	return index
}()

// AllDays returns every day from Sunday to Saturday.
func AllDays() []DayOfWeek {
	return []DayOfWeek{Sunday, Monday, Tuesday, Wednesday, Thursday, Friday, Saturday}
}

// Valid reports whether d is inside the Sunday..Saturday range.
func (d DayOfWeek) Valid() bool {
	return d >= Sunday && d <= Saturday
}

// Name returns the canonical display name, or an empty string for invalid values.
func (d DayOfWeek) Name() string {
	if !d.Valid() {
		return ""
	}
	return dayNames[d]
}

func (d DayOfWeek) String() string {
	if name := d.Name(); name != "" {
		return name
	}
	return "DayOfWeek(" + strconv.Itoa(int(d)) + ")"
}

// MarshalText renders the display name so days serialize as JSON strings and map keys.
func (d DayOfWeek) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, &UnknownDayError{Value: strconv.Itoa(int(d))}
	}
	return []byte(d.Name()), nil
}

// UnmarshalText accepts any spelling understood by ParseDayOfWeek.
func (d *DayOfWeek) UnmarshalText(text []byte) error {
	parsed, ok := ParseDayOfWeek(string(text))
	if !ok {
		return &UnknownDayError{Value: string(text)}
	}
	*d = parsed
	return nil
}

// ParseDayOfWeek resolves names (any casing), three-letter abbreviations and numeric indices.
func ParseDayOfWeek(raw string) (DayOfWeek, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	day, ok := allowedDays[key]
	return day, ok
}

// DayFromTime maps the weekday of t onto DayOfWeek.
func DayFromTime(t time.Time) DayOfWeek {
	return DayOfWeek(t.Weekday())
}

// ParseDayList splits a comma-joined backend day list, dropping unknown names and duplicates.
func ParseDayList(raw string) []DayOfWeek {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	items := make([]any, 0, len(parts))
	for _, part := range parts {
		items = append(items, part)
	}
	return NormalizeDays(items)
}

// NormalizeDays converts arbitrary slice payloads into a canonical, de-duplicated day list.
func NormalizeDays(value any) []DayOfWeek {
	items := normalization.AsInterfaceSlice(value)
	if len(items) == 0 {
		return nil
	}

	seen := make(map[DayOfWeek]struct{}, len(items))
	normalized := make([]DayOfWeek, 0, len(items))
	for _, item := range items {
		day, ok := normalizeDay(item)
		if !ok {
			continue
		}
		if _, dup := seen[day]; dup {
			continue
		}
		seen[day] = struct{}{}
		normalized = append(normalized, day)
	}
	if len(normalized) == 0 {
		return nil
	}
	return normalized
}

// FormatDayList joins day names with commas in the order given.
func FormatDayList(days []DayOfWeek) string {
	names := make([]string, 0, len(days))
	for _, day := range days {
		if name := day.Name(); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ",")
}

func normalizeDay(value any) (DayOfWeek, bool) {
	switch typed := value.(type) {
	case string:
		return ParseDayOfWeek(typed)
	case float64:
		day := DayOfWeek(int(typed))
		return day, day.Valid() && float64(int(typed)) == typed
	case int:
		day := DayOfWeek(typed)
		return day, day.Valid()
	case DayOfWeek:
		return typed, typed.Valid()
	default:
		return 0, false
	}
}
