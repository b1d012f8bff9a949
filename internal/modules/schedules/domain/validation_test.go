package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func slot(t *testing.T, opening, closing string, active bool) DraftSlot {
	t.Helper()
	rng, err := BuildTimeRange(opening, closing)
	if err != nil {
		t.Fatalf("BuildTimeRange(%s, %s): %v", opening, closing, err)
	}
	return DraftSlot{Range: rng, Active: active}
}

func violationsOf(t *testing.T, err error) []Violation {
	t.Helper()
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if !errors.Is(err, ErrInvalidSchedule) {
		t.Fatalf("ValidationError must match ErrInvalidSchedule")
	}
	return verr.Violations
}

func TestValidateDraftInvertedRange(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Friday, slot(t, "18:00", "09:00", true))
	violations := violationsOf(t, ValidateDraft(draft))
	if len(violations) != 1 || violations[0].Kind != ViolationInverted || violations[0].Day != Friday {
		t.Fatalf("unexpected violations %+v", violations)
	}

	equal := NewWeeklyDraft()
	equal.Add(Friday, slot(t, "09:00", "09:00", true))
	if len(violationsOf(t, ValidateDraft(equal))) != 1 {
		t.Fatalf("an empty range must be rejected")
	}
}

func TestValidateDraftIgnoresInactiveSlots(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Monday, slot(t, "18:00", "09:00", false))
	draft.Add(Monday, slot(t, "08:00", "12:00", true))
	draft.Add(Monday, slot(t, "10:00", "11:00", false))
	if err := ValidateDraft(draft); err != nil {
		t.Fatalf("inactive slots must not be validated: %v", err)
	}
}

func TestValidateDraftOverlaps(t *testing.T) {
	cases := []struct {
		name     string
		a, b     [2]string
		overlaps bool
	}{
		{"touching endpoints", [2]string{"08:00", "12:00"}, [2]string{"12:00", "16:00"}, true},
		{"nested", [2]string{"08:00", "18:00"}, [2]string{"09:00", "10:00"}, true},
		{"one minute apart", [2]string{"08:00", "12:00"}, [2]string{"12:01", "16:00"}, false},
		{"afternoon first", [2]string{"14:00", "18:00"}, [2]string{"08:00", "12:00"}, false},
	}
	for _, tc := range cases {
		draft := NewWeeklyDraft()
		draft.Add(Wednesday, slot(t, tc.a[0], tc.a[1], true))
		draft.Add(Wednesday, slot(t, tc.b[0], tc.b[1], true))
		violations := violationsOf(t, ValidateDraft(draft))
		if tc.overlaps {
			if len(violations) != 1 || violations[0].Kind != ViolationOverlap || violations[0].Index != 0 || violations[0].OtherIndex != 1 {
				t.Fatalf("%s: expected one overlap, got %+v", tc.name, violations)
			}
			continue
		}
		if len(violations) != 0 {
			t.Fatalf("%s: expected no violations, got %+v", tc.name, violations)
		}
	}
}

func TestValidateDraftSameRangeOnDifferentDaysIsFine(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Monday, slot(t, "08:00", "12:00", true))
	draft.Add(Tuesday, slot(t, "08:00", "12:00", true))
	if err := ValidateDraft(draft); err != nil {
		t.Fatalf("ranges on different days never overlap: %v", err)
	}
}

func TestValidateDraftInvertedRangeExcludedFromPairs(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Monday, slot(t, "08:00", "12:00", true))
	draft.Add(Tuesday, slot(t, "08:00", "12:00", true))
	draft.Add(Tuesday, slot(t, "13:00", "12:30", true))

	violations := violationsOf(t, ValidateDraft(draft))
	if len(violations) != 1 {
		t.Fatalf("expected only the inverted range, got %+v", violations)
	}
	v := violations[0]
	if v.Day != Tuesday || v.Index != 1 || v.Kind != ViolationInverted || v.OtherIndex != -1 {
		t.Fatalf("unexpected violation %+v", v)
	}
	if v.Message != "Tuesday: range 13:00-12:30 must open before it closes" {
		t.Fatalf("unexpected message %q", v.Message)
	}
}

func TestValidateDraftCollectsEveryViolation(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Sunday, slot(t, "10:00", "09:00", true))
	draft.Add(Saturday, slot(t, "08:00", "12:00", true))
	draft.Add(Saturday, slot(t, "11:00", "13:00", true))
	draft.Add(Saturday, slot(t, "12:30", "14:00", true))

	violations := violationsOf(t, ValidateDraft(draft))
	if len(violations) != 3 {
		t.Fatalf("expected 3 violations, got %+v", violations)
	}
	if violations[0].Day != Sunday {
		t.Fatalf("violations must be ordered Sunday first, got %+v", violations)
	}
	err := ValidateDraft(draft)
	var verr *ValidationError
	errors.As(err, &verr)
	if len(verr.Messages()) != 3 {
		t.Fatalf("expected one message per violation")
	}
}

func TestWeeklyDraftJSON(t *testing.T) {
	draft := NewWeeklyDraft()
	draft.Add(Monday, slot(t, "09:00", "17:00", true))

	data, err := json.Marshal(draft)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var raw map[string][]map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(raw) != DaysPerWeek || len(raw["Monday"]) != 1 || len(raw["Sunday"]) != 0 {
		t.Fatalf("unexpected draft json %s", data)
	}

	var decoded WeeklyDraft
	body := `{"mon":[{"range":{"opening":"09:00","closing":"17:00"},"active":true}],"FRIDAY":[]}`
	if err := json.Unmarshal([]byte(body), &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ActiveCount() != 1 || len(decoded.Slots(Monday)) != 1 {
		t.Fatalf("unexpected decoded draft %+v", decoded)
	}
	if err := json.Unmarshal([]byte(`{"someday":[]}`), &decoded); err == nil {
		t.Fatalf("unknown day keys must be rejected")
	}
}
