package domain

import (
	"encoding/json"
	"fmt"
)

// TimeRange is an opening/closing pair within a single day.
type TimeRange struct {
	Opening TimeOfDay `json:"opening"`
	Closing TimeOfDay `json:"closing"`
}

// DefaultPlaceholderRange is shown for days with nothing configured.
var DefaultPlaceholderRange = TimeRange{
	Opening: TimeOfDay{Hour: 9},
	Closing: TimeOfDay{Hour: 18},
}

// BuildTimeRange parses two "HH:MM" values into a range without checking ordering.
func BuildTimeRange(openRaw, closeRaw string) (TimeRange, error) {
	opening, err := ParseTimeOfDay(openRaw)
	if err != nil {
		return TimeRange{}, fmt.Errorf("opening: %w", err)
	}
	closing, err := ParseTimeOfDay(closeRaw)
	if err != nil {
		return TimeRange{}, fmt.Errorf("closing: %w", err)
	}
	return TimeRange{Opening: opening, Closing: closing}, nil
}

// Valid reports whether opening is strictly earlier than closing.
func (r TimeRange) Valid() bool {
	return r.Opening.Before(r.Closing)
}

// Overlaps uses closed-interval semantics: ranges that touch at an endpoint overlap.
func (r TimeRange) Overlaps(other TimeRange) bool {
	return r.Opening.Compare(other.Closing) <= 0 && other.Opening.Compare(r.Closing) <= 0
}

// Contains reports whether t lies inside [opening, closing].
func (r TimeRange) Contains(t TimeOfDay) bool {
	return r.Opening.Compare(t) <= 0 && t.Compare(r.Closing) <= 0
}

func (r TimeRange) String() string {
	return r.Opening.String() + "-" + r.Closing.String()
}

// Compare orders ranges by opening, then closing.
func (r TimeRange) Compare(other TimeRange) int {
	if c := r.Opening.Compare(other.Opening); c != 0 {
		return c
	}
	return r.Closing.Compare(other.Closing)
}

// UnmarshalJSON rejects payloads missing either bound instead of defaulting them to midnight.
func (r *TimeRange) UnmarshalJSON(data []byte) error {
	var raw struct {
		Opening *TimeOfDay `json:"opening"`
		Closing *TimeOfDay `json:"closing"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Opening == nil || raw.Closing == nil {
		return fmt.Errorf("%w: opening and closing are required", ErrInvalidTimeOfDay)
	}
	r.Opening = *raw.Opening
	r.Closing = *raw.Closing
	return nil
}
