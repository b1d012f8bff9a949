package domain

import "time"

// ScheduleEntry is a copy of one backend opening-hours record linked to a merchant.
// ID is empty until the backend has persisted the record. Unreadable marks a linked record whose
// times could not be decoded; only its ID is meaningful.
type ScheduleEntry struct {
	ID         string      `json:"id,omitempty"`
	Range      TimeRange   `json:"range"`
	Days       []DayOfWeek `json:"days"`
	Active     bool        `json:"active"`
	Unreadable bool        `json:"unreadable,omitempty"`
}

// Persisted reports whether the backend assigned an identifier.
func (e ScheduleEntry) Persisted() bool {
	return e.ID != ""
}

// AppliesTo reports whether day is part of the entry's day set.
func (e ScheduleEntry) AppliesTo(day DayOfWeek) bool {
	for _, d := range e.Days {
		if d == day {
			return true
		}
	}
	return false
}

// DayList renders the comma-joined name list the backend stores.
func (e ScheduleEntry) DayList() string {
	return FormatDayList(e.Days)
}

// OpenSource tells where an OpenState answer came from.
type OpenSource string

const (
	OpenSourceRemote OpenSource = "remote"
	OpenSourceLocal  OpenSource = "local"
)

// OpenState is derived on demand and never stored.
type OpenState struct {
	Open        bool       `json:"open"`
	EvaluatedAt time.Time  `json:"evaluatedAt"`
	Source      OpenSource `json:"source"`
}

// EvaluateOpen decides locally whether now falls inside an active range that applies today.
// Boundaries are inclusive; no matching entry means closed.
func EvaluateOpen(entries []ScheduleEntry, now time.Time) OpenState {
	state := OpenState{EvaluatedAt: now, Source: OpenSourceLocal}
	today := DayFromTime(now)
	current := TimeOfDayFrom(now)
	for _, entry := range entries {
		if entry.Unreadable || !entry.Active || !entry.AppliesTo(today) {
			continue
		}
		if entry.Range.Contains(current) {
			state.Open = true
			return state
		}
	}
	return state
}
