package domain

import (
	"encoding/json"
)

// DraftSlot is one editable range for a day.
type DraftSlot struct {
	Range  TimeRange `json:"range"`
	Active bool      `json:"active"`
}

// WeeklyDraft is the editing session's working copy, indexed by DayOfWeek.
type WeeklyDraft struct {
	days [DaysPerWeek][]DraftSlot
}

// NewWeeklyDraft returns an empty draft.
func NewWeeklyDraft() WeeklyDraft {
	return WeeklyDraft{}
}

// Slots returns the slots configured for day. The returned slice must not be modified.
func (d WeeklyDraft) Slots(day DayOfWeek) []DraftSlot {
	if !day.Valid() {
		return nil
	}
	return d.days[day]
}

// Add appends a slot to day; invalid days are ignored.
func (d *WeeklyDraft) Add(day DayOfWeek, slot DraftSlot) {
	if !day.Valid() {
		return
	}
	d.days[day] = append(d.days[day], slot)
}

// Set replaces the slots for day.
func (d *WeeklyDraft) Set(day DayOfWeek, slots []DraftSlot) {
	if !day.Valid() {
		return
	}
	d.days[day] = append([]DraftSlot(nil), slots...)
}

// ActiveCount counts active slots across every day.
func (d WeeklyDraft) ActiveCount() int {
	count := 0
	for _, slots := range d.days {
		for _, slot := range slots {
			if slot.Active {
				count++
			}
		}
	}
	return count
}

// Clone returns a deep copy.
func (d WeeklyDraft) Clone() WeeklyDraft {
	var out WeeklyDraft
	for i, slots := range d.days {
		if slots != nil {
			out.days[i] = append([]DraftSlot(nil), slots...)
		}
	}
	return out
}

// MarshalJSON renders every day keyed by its display name, empty days as [].
func (d WeeklyDraft) MarshalJSON() ([]byte, error) {
	out := make(map[string][]DraftSlot, DaysPerWeek)
	for _, day := range AllDays() {
		slots := d.days[day]
		if slots == nil {
			slots = []DraftSlot{}
		}
		out[day.Name()] = slots
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an object keyed by any day spelling ParseDayOfWeek understands.
func (d *WeeklyDraft) UnmarshalJSON(data []byte) error {
	var raw map[DayOfWeek][]DraftSlot
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var out WeeklyDraft
	for day, slots := range raw {
		out.days[day] = slots
	}
	*d = out
	return nil
}
