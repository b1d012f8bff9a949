package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDayOfWeek(t *testing.T) {
	cases := map[string]DayOfWeek{
		"Sunday":    Sunday,
		"monday":    Monday,
		" TUESDAY ": Tuesday,
		"wed":       Wednesday,
		"Thu":       Thursday,
		"5":         Friday,
		"saturday":  Saturday,
	}
	for input, expected := range cases {
		got, ok := ParseDayOfWeek(input)
		if !ok {
			t.Fatalf("ParseDayOfWeek(%q) rejected", input)
		}
		if got != expected {
			t.Fatalf("ParseDayOfWeek(%q) expected %s got %s", input, expected, got)
		}
	}
	for _, input := range []string{"", "funday", "7", "-1"} {
		if _, ok := ParseDayOfWeek(input); ok {
			t.Fatalf("ParseDayOfWeek(%q) should fail", input)
		}
	}
}

func TestDayNamesRoundTrip(t *testing.T) {
	for _, day := range AllDays() {
		parsed, ok := ParseDayOfWeek(day.Name())
		if !ok || parsed != day {
			t.Fatalf("round trip of %s failed: %v %v", day, parsed, ok)
		}
	}
	if len(AllDays()) != DaysPerWeek || AllDays()[0] != Sunday {
		t.Fatalf("AllDays must list 7 days starting on Sunday")
	}
}

func TestDayFromTime(t *testing.T) {
	monday := time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)
	if got := DayFromTime(monday); got != Monday {
		t.Fatalf("expected Monday got %s", got)
	}
	if got := DayFromTime(monday.AddDate(0, 0, 6)); got != Sunday {
		t.Fatalf("expected Sunday got %s", got)
	}
}

func TestParseDayListDropsUnknownAndDuplicates(t *testing.T) {
	got := ParseDayList("Monday, tuesday,funday,MONDAY,6")
	expected := []DayOfWeek{Monday, Tuesday, Saturday}
	if len(got) != len(expected) {
		t.Fatalf("expected %v got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected %v got %v", expected, got)
		}
	}
	if ParseDayList("  ") != nil {
		t.Fatalf("blank list should be nil")
	}
}

func TestNormalizeDaysAcceptsMixedPayloads(t *testing.T) {
	got := NormalizeDays([]any{"Sun", float64(1), 2, 2.5, "nope"})
	if FormatDayList(got) != "Sunday,Monday,Tuesday" {
		t.Fatalf("unexpected days %v", got)
	}
}

func TestDayOfWeekJSON(t *testing.T) {
	data, err := json.Marshal([]DayOfWeek{Monday, Friday})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["Monday","Friday"]` {
		t.Fatalf("unexpected json %s", data)
	}

	var day DayOfWeek
	err = json.Unmarshal([]byte(`"Caturday"`), &day)
	var unknown *UnknownDayError
	if !errors.As(err, &unknown) || unknown.Value != "Caturday" {
		t.Fatalf("expected UnknownDayError, got %v", err)
	}
}
