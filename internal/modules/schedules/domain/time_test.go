package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseTimeOfDay(t *testing.T) {
	cases := map[string]TimeOfDay{
		"08:00":    {Hour: 8},
		" 23:59 ":  {Hour: 23, Minute: 59},
		"13:30:45": {Hour: 13, Minute: 30},
		"00:00":    {},
	}
	for input, expected := range cases {
		got, err := ParseTimeOfDay(input)
		if err != nil {
			t.Fatalf("ParseTimeOfDay(%q): %v", input, err)
		}
		if got != expected {
			t.Fatalf("ParseTimeOfDay(%q) expected %s got %s", input, expected, got)
		}
	}
	for _, input := range []string{"", "24:00", "8", "aa:bb", "12:60"} {
		if _, err := ParseTimeOfDay(input); !errors.Is(err, ErrInvalidTimeOfDay) {
			t.Fatalf("ParseTimeOfDay(%q) expected ErrInvalidTimeOfDay, got %v", input, err)
		}
	}
}

func TestParseISODuration(t *testing.T) {
	got, err := ParseISODuration("PT8H30M")
	if err != nil || got != (TimeOfDay{Hour: 8, Minute: 30}) {
		t.Fatalf("unexpected %v %v", got, err)
	}
	got, err = ParseISODuration("pt17h")
	if err != nil || got != (TimeOfDay{Hour: 17}) {
		t.Fatalf("unexpected %v %v", got, err)
	}
	for _, input := range []string{"8H", "PT", "PT24H", "PTxyz"} {
		if _, err := ParseISODuration(input); err == nil {
			t.Fatalf("ParseISODuration(%q) should fail", input)
		}
	}
}

func TestTimeOfDayRecord(t *testing.T) {
	record := MustTimeOfDay(9, 15).Record()
	if record != (DurationRecord{Hour: 9, Minute: 15}) {
		t.Fatalf("unexpected record %+v", record)
	}
	back, err := DurationRecord{Hour: 9, Minute: 15, Second: 30, Nano: 5}.TimeOfDay()
	if err != nil || back != MustTimeOfDay(9, 15) {
		t.Fatalf("unexpected %v %v", back, err)
	}
	if _, err := (DurationRecord{Hour: 25}).TimeOfDay(); err == nil {
		t.Fatalf("expected out of range hour to fail")
	}
}

func TestTimeRangeOverlapsIsClosedInterval(t *testing.T) {
	r := func(o, c string) TimeRange {
		rng, err := BuildTimeRange(o, c)
		if err != nil {
			t.Fatalf("BuildTimeRange(%s, %s): %v", o, c, err)
		}
		return rng
	}
	cases := []struct {
		name string
		a, b TimeRange
		want bool
	}{
		{"disjoint", r("08:00", "10:00"), r("11:00", "12:00"), false},
		{"touching", r("08:00", "12:00"), r("12:00", "14:00"), true},
		{"nested", r("08:00", "18:00"), r("10:00", "11:00"), true},
		{"partial", r("08:00", "12:00"), r("11:59", "13:00"), true},
		{"reverse order", r("13:00", "14:00"), r("08:00", "12:59"), false},
	}
	for _, tc := range cases {
		if got := tc.a.Overlaps(tc.b); got != tc.want {
			t.Fatalf("%s: expected %v got %v", tc.name, tc.want, got)
		}
		if got := tc.b.Overlaps(tc.a); got != tc.want {
			t.Fatalf("%s (swapped): expected %v got %v", tc.name, tc.want, got)
		}
	}
}

func TestTimeRangeContainsIsInclusive(t *testing.T) {
	rng := TimeRange{Opening: MustTimeOfDay(8, 0), Closing: MustTimeOfDay(18, 0)}
	if !rng.Contains(MustTimeOfDay(8, 0)) || !rng.Contains(MustTimeOfDay(18, 0)) {
		t.Fatalf("bounds must be inside the range")
	}
	if rng.Contains(MustTimeOfDay(7, 59)) || rng.Contains(MustTimeOfDay(18, 1)) {
		t.Fatalf("times outside the range must not match")
	}
}

func TestTimeRangeJSON(t *testing.T) {
	var rng TimeRange
	if err := json.Unmarshal([]byte(`{"opening":"09:00","closing":"17:30"}`), &rng); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if rng.String() != "09:00-17:30" {
		t.Fatalf("unexpected range %s", rng)
	}
	data, err := json.Marshal(rng)
	if err != nil || string(data) != `{"opening":"09:00","closing":"17:30"}` {
		t.Fatalf("unexpected json %s %v", data, err)
	}
	if err := json.Unmarshal([]byte(`{"opening":"09:00"}`), &rng); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("missing closing must fail, got %v", err)
	}
}

func TestEvaluateOpen(t *testing.T) {
	entries := []ScheduleEntry{{
		ID:     "e1",
		Range:  TimeRange{Opening: MustTimeOfDay(8, 0), Closing: MustTimeOfDay(18, 0)},
		Days:   []DayOfWeek{Monday},
		Active: true,
	}}
	monday := func(hour int) time.Time {
		return time.Date(2024, time.January, 1, hour, 0, 0, 0, time.UTC)
	}

	if state := EvaluateOpen(entries, monday(10)); !state.Open || state.Source != OpenSourceLocal {
		t.Fatalf("Monday 10:00 should be open locally, got %+v", state)
	}
	if state := EvaluateOpen(entries, monday(19)); state.Open {
		t.Fatalf("Monday 19:00 should be closed")
	}
	if state := EvaluateOpen(entries, monday(10).AddDate(0, 0, 1)); state.Open {
		t.Fatalf("Tuesday 10:00 should be closed")
	}

	entries[0].Active = false
	if state := EvaluateOpen(entries, monday(10)); state.Open {
		t.Fatalf("inactive entries must not open the merchant")
	}
	if state := EvaluateOpen(nil, monday(10)); state.Open {
		t.Fatalf("no entries means closed")
	}
}
