// Package viewmodel projects backend schedule entries into the per-day shape the dashboard edits.
package viewmodel

import (
	"sort"

	"deliveryPanel/internal/modules/schedules/domain"
)

// ToDraft lists every entry under each of its days. Days without entries get one inactive
// 09:00–18:00 placeholder so the editor always has a row to render. Slots within a day are
// sorted by (opening, closing, active) so the projection does not depend on backend ordering.
// Unreadable entries have no range to show and are left out.
func ToDraft(entries []domain.ScheduleEntry) domain.WeeklyDraft {
	draft := domain.NewWeeklyDraft()
	for _, entry := range entries {
		if entry.Unreadable {
			continue
		}
		for _, day := range entry.Days {
			draft.Add(day, domain.DraftSlot{Range: entry.Range, Active: entry.Active})
		}
	}
	for _, day := range domain.AllDays() {
		slots := draft.Slots(day)
		if len(slots) == 0 {
			draft.Set(day, []domain.DraftSlot{placeholderSlot()})
			continue
		}
		sorted := append([]domain.DraftSlot(nil), slots...)
		sort.SliceStable(sorted, func(i, j int) bool {
			return slotLess(sorted[i], sorted[j])
		})
		draft.Set(day, sorted)
	}
	return draft
}

func placeholderSlot() domain.DraftSlot {
	return domain.DraftSlot{Range: domain.DefaultPlaceholderRange, Active: false}
}

func slotLess(a, b domain.DraftSlot) bool {
	if c := a.Range.Compare(b.Range); c != 0 {
		return c < 0
	}
	return !a.Active && b.Active
}

// HasUnsavedChanges compares draft day by day against the projection of entries; any difference
// in slot count or in a slot's active flag, opening or closing counts as a change.
func HasUnsavedChanges(draft domain.WeeklyDraft, entries []domain.ScheduleEntry) bool {
	confirmed := ToDraft(entries)
	for _, day := range domain.AllDays() {
		if !sameSlots(draft.Slots(day), confirmed.Slots(day)) {
			return true
		}
	}
	return false
}

func sameSlots(a, b []domain.DraftSlot) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Active != b[i].Active {
			return false
		}
		if a[i].Range.Opening.Compare(b[i].Range.Opening) != 0 || a[i].Range.Closing.Compare(b[i].Range.Closing) != 0 {
			return false
		}
	}
	return true
}

// DayRow is one rendered line of the weekly hours table.
type DayRow struct {
	Day    domain.DayOfWeek `json:"day"`
	Open   bool             `json:"open"`
	Ranges []string         `json:"ranges"`
}

// Summary renders the draft as seven rows, Sunday first; a day is open when it has any active slot.
func Summary(draft domain.WeeklyDraft) []DayRow {
	rows := make([]DayRow, 0, domain.DaysPerWeek)
	for _, day := range domain.AllDays() {
		row := DayRow{Day: day, Ranges: []string{}}
		for _, slot := range draft.Slots(day) {
			if !slot.Active {
				continue
			}
			row.Open = true
			row.Ranges = append(row.Ranges, slot.Range.Opening.String()+"–"+slot.Range.Closing.String())
		}
		rows = append(rows, row)
	}
	return rows
}
