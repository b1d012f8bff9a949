package domain

import "fmt"

// ValidateDraft checks every day's active slots and returns a *ValidationError listing all
// inverted ranges and overlapping pairs, or nil when the draft is acceptable.
// Inactive slots are ignored. Inverted ranges are reported once and excluded from pair checks.
func ValidateDraft(draft WeeklyDraft) error {
	var violations []Violation
	for _, day := range AllDays() {
		violations = append(violations, validateDay(day, draft.Slots(day))...)
	}
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

func validateDay(day DayOfWeek, slots []DraftSlot) []Violation {
	var violations []Violation
	candidates := make([]int, 0, len(slots))
	for i, slot := range slots {
		if !slot.Active {
			continue
		}
		if !slot.Range.Valid() {
			violations = append(violations, Violation{
				Day:        day,
				Index:      i,
				OtherIndex: -1,
				Kind:       ViolationInverted,
				Message:    fmt.Sprintf("%s: range %s must open before it closes", day.Name(), slot.Range),
			})
			continue
		}
		candidates = append(candidates, i)
	}

	for a := 0; a < len(candidates); a++ {
		for b := a + 1; b < len(candidates); b++ {
			i, j := candidates[a], candidates[b]
			if !slots[i].Range.Overlaps(slots[j].Range) {
				continue
			}
			violations = append(violations, Violation{
				Day:        day,
				Index:      i,
				OtherIndex: j,
				Kind:       ViolationOverlap,
				Message:    fmt.Sprintf("%s: range %s overlaps %s", day.Name(), slots[i].Range, slots[j].Range),
			})
		}
	}
	return violations
}
