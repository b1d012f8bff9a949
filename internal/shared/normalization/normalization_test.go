package normalization

import "testing"

func TestNormalizeEntity(t *testing.T) {
	tests := map[string]string{
		"Schedule_Entry":    "schedules",
		" hours ":           "schedules",
		"shop":              "merchants",
		"Merchant_Schedule": "merchant-schedules",
		"default":           "",
		"Orders_Line":       "orders-line",
	}
	for raw, want := range tests {
		if got := NormalizeEntity(raw); got != want {
			t.Errorf("NormalizeEntity(%q) = %q, want %q", raw, got, want)
		}
	}
}

func TestConversions(t *testing.T) {
	if got := AsString(float64(42)); got != "42" {
		t.Errorf("AsString(42) = %q", got)
	}
	if got := AsString("  id  "); got != "id" {
		t.Errorf("AsString trims, got %q", got)
	}
	if n, ok := AsIntOK(" 7 "); !ok || n != 7 {
		t.Errorf("AsIntOK(\" 7 \") = %d, %v", n, ok)
	}
	if _, ok := AsIntOK("seven"); ok {
		t.Error("AsIntOK accepted a word")
	}
	if flag, ok := AsBool("false"); !ok || flag {
		t.Errorf("AsBool(\"false\") = %v, %v", flag, ok)
	}
	if flag, ok := AsBool(float64(1)); !ok || !flag {
		t.Errorf("AsBool(1) = %v, %v", flag, ok)
	}
	if _, ok := AsBool("maybe"); ok {
		t.Error("AsBool accepted \"maybe\"")
	}
}

func TestPayloadEnvelopes(t *testing.T) {
	bare := []any{map[string]any{"id": "a"}}
	if got := ListFromPayload(bare); len(got) != 1 {
		t.Fatalf("bare list: %v", got)
	}
	nested := map[string]any{"data": map[string]any{"content": []any{"x", "y"}}}
	if got := ListFromPayload(nested); len(got) != 2 {
		t.Fatalf("nested envelope: %v", got)
	}
	if got := ListFromPayload(map[string]any{"total": 0.0}); got != nil {
		t.Fatalf("no list expected, got %v", got)
	}

	wrapped := map[string]any{"data": map[string]any{"open": true}}
	if got := MapFromPayload(wrapped); got["open"] != true {
		t.Fatalf("data envelope not unwrapped: %v", got)
	}
	if got := MapFromPayload("text"); got != nil {
		t.Fatalf("expected nil map, got %v", got)
	}

	raw := map[string]any{"schedule_id": nil, "scheduleId": "s-1"}
	if value, ok := FirstPresent(raw, "id", "schedule_id", "scheduleId"); !ok || value != "s-1" {
		t.Fatalf("FirstPresent skipped nil incorrectly: %v %v", value, ok)
	}
}
