package infrastructure

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"deliveryPanel/internal/modules/schedules/domain"
	"deliveryPanel/internal/shared/normalization"
)

// Every field-name variant the backend has been seen to emit is resolved here and nowhere else.
var (
	idAliases      = []string{"id", "scheduleId", "schedule_id", "idSchedule", "ID"}
	dayAliases     = []string{"days", "dayList", "day_list", "daysOfWeek", "days_of_week", "day"}
	openingAliases = []string{"opening", "openingTime", "opening_time", "openTime", "open_time", "open"}
	closingAliases = []string{"closing", "closingTime", "closing_time", "closeTime", "close_time", "close"}
	activeAliases  = []string{"active", "isActive", "is_active", "enabled"}
	hourAliases    = []string{"hour", "hours", "Hour", "Hours"}
	minuteAliases  = []string{"minute", "minutes", "Minute", "Minutes"}
	openAliases    = []string{"open", "isOpen", "is_open", "opened", "value"}
	messageAliases = []string{"message", "error", "detail", "msg", "error_description"}
)

const maxErrorBody = 2048

type createEntryRequest struct {
	Opening domain.DurationRecord `json:"opening"`
	Closing domain.DurationRecord `json:"closing"`
	Days    string                `json:"days"`
	Active  bool                  `json:"active"`
}

func encodeCreateEntry(rng domain.TimeRange, days []domain.DayOfWeek, active bool) ([]byte, error) {
	return json.Marshal(createEntryRequest{
		Opening: rng.Opening.Record(),
		Closing: rng.Closing.Record(),
		Days:    domain.FormatDayList(days),
		Active:  active,
	})
}

func decodePayload(body io.Reader) (any, error) {
	var payload any
	decoder := json.NewDecoder(body)
	decoder.UseNumber()
	if err := decoder.Decode(&payload); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("decode schedule payload: %w", err)
	}
	return normalizeNumbers(payload), nil
}

// normalizeNumbers converts json.Number back into float64 so normalization helpers apply uniformly.
func normalizeNumbers(value any) any {
	switch typed := value.(type) {
	case json.Number:
		if f, err := typed.Float64(); err == nil {
			return f
		}
		return typed.String()
	case map[string]any:
		for key, item := range typed {
			typed[key] = normalizeNumbers(item)
		}
		return typed
	case []any:
		for i, item := range typed {
			typed[i] = normalizeNumbers(item)
		}
		return typed
	default:
		return value
	}
}

func decodeEntries(body io.Reader) ([]domain.ScheduleEntry, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return nil, err
	}
	items := normalization.ListFromPayload(payload)
	entries := make([]domain.ScheduleEntry, 0, len(items))
	for _, item := range items {
		raw, ok := item.(map[string]any)
		if !ok {
			continue
		}
		entry, ok := normalizeEntry(raw)
		if ok {
			entries = append(entries, entry)
			continue
		}
		// still linked to the merchant, so reconciliation must be able to unlink it
		if unreadable, ok := unreadableEntry(raw); ok {
			slog.Warn("schedule entry times unreadable, kept by id", slog.String("id", unreadable.ID), slog.Any("raw", raw))
			entries = append(entries, unreadable)
			continue
		}
		slog.Warn("schedule entry dropped", slog.Any("raw", raw))
	}
	return entries, nil
}

func decodeEntry(body io.Reader) (domain.ScheduleEntry, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return domain.ScheduleEntry{}, err
	}
	raw := normalization.MapFromPayload(payload)
	if len(raw) == 0 {
		return domain.ScheduleEntry{}, fmt.Errorf("decode schedule entry: empty payload")
	}
	entry, ok := normalizeEntry(raw)
	if !ok {
		return domain.ScheduleEntry{}, fmt.Errorf("decode schedule entry: unrecognised shape")
	}
	return entry, nil
}

// unreadableEntry keeps the identifier and days of a record whose times can't be decoded.
func unreadableEntry(raw map[string]any) (domain.ScheduleEntry, bool) {
	id, ok := normalization.FirstPresent(raw, idAliases...)
	if !ok || normalization.AsString(id) == "" {
		return domain.ScheduleEntry{}, false
	}
	entry := domain.ScheduleEntry{ID: normalization.AsString(id), Unreadable: true}
	if days, ok := normalization.FirstPresent(raw, dayAliases...); ok {
		entry.Days = decodeDays(days)
	}
	return entry, true
}

// normalizeEntry builds one canonical ScheduleEntry; it fails when either time can't be read.
func normalizeEntry(raw map[string]any) (domain.ScheduleEntry, bool) {
	openingRaw, _ := normalization.FirstPresent(raw, openingAliases...)
	closingRaw, _ := normalization.FirstPresent(raw, closingAliases...)
	opening, ok := decodeTimeValue(openingRaw)
	if !ok {
		return domain.ScheduleEntry{}, false
	}
	closing, ok := decodeTimeValue(closingRaw)
	if !ok {
		return domain.ScheduleEntry{}, false
	}

	entry := domain.ScheduleEntry{
		Range:  domain.TimeRange{Opening: opening, Closing: closing},
		Active: true,
	}
	if id, ok := normalization.FirstPresent(raw, idAliases...); ok {
		entry.ID = normalization.AsString(id)
	}
	if days, ok := normalization.FirstPresent(raw, dayAliases...); ok {
		entry.Days = decodeDays(days)
	}
	if active, ok := normalization.FirstPresent(raw, activeAliases...); ok {
		if flag, ok := normalization.AsBool(active); ok {
			entry.Active = flag
		}
	}
	return entry, true
}

func decodeDays(value any) []domain.DayOfWeek {
	if s, ok := value.(string); ok {
		return domain.ParseDayList(s)
	}
	return domain.NormalizeDays(value)
}

// decodeTimeValue reads duration records, "HH:MM[:SS]" strings, ISO-8601 durations and [h, m] pairs.
func decodeTimeValue(value any) (domain.TimeOfDay, bool) {
	switch typed := value.(type) {
	case map[string]any:
		hourRaw, hasHour := normalization.FirstPresent(typed, hourAliases...)
		if !hasHour {
			return domain.TimeOfDay{}, false
		}
		hour, ok := normalization.AsIntOK(hourRaw)
		if !ok {
			return domain.TimeOfDay{}, false
		}
		minute := 0
		if minuteRaw, ok := normalization.FirstPresent(typed, minuteAliases...); ok {
			minute = normalization.AsInt(minuteRaw)
		}
		t, err := domain.NewTimeOfDay(hour, minute)
		return t, err == nil
	case string:
		trimmed := strings.TrimSpace(typed)
		if strings.HasPrefix(strings.ToUpper(trimmed), "PT") {
			t, err := domain.ParseISODuration(trimmed)
			return t, err == nil
		}
		t, err := domain.ParseTimeOfDay(trimmed)
		return t, err == nil
	case []any:
		if len(typed) < 2 {
			return domain.TimeOfDay{}, false
		}
		hour, okH := normalization.AsIntOK(typed[0])
		minute, okM := normalization.AsIntOK(typed[1])
		if !okH || !okM {
			return domain.TimeOfDay{}, false
		}
		t, err := domain.NewTimeOfDay(hour, minute)
		return t, err == nil
	default:
		return domain.TimeOfDay{}, false
	}
}

func decodeIsOpen(body io.Reader) (bool, error) {
	payload, err := decodePayload(body)
	if err != nil {
		return false, err
	}
	if flag, ok := normalization.AsBool(payload); ok {
		return flag, nil
	}
	raw := normalization.MapFromPayload(payload)
	if value, ok := normalization.FirstPresent(raw, openAliases...); ok {
		if flag, ok := normalization.AsBool(value); ok {
			return flag, nil
		}
	}
	return false, fmt.Errorf("decode open state: unrecognised payload")
}

// extractErrorMessage tries JSON error bodies first and falls back to the raw text.
func extractErrorMessage(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	var payload any
	if err := json.Unmarshal(trimmed, &payload); err == nil {
		if msg := messageFromPayload(payload); msg != "" {
			return msg
		}
	}
	return string(trimmed)
}

func messageFromPayload(payload any) string {
	switch typed := payload.(type) {
	case string:
		return strings.TrimSpace(typed)
	case map[string]any:
		if value, ok := normalization.FirstPresent(typed, messageAliases...); ok {
			if msg := messageFromPayload(value); msg != "" {
				return msg
			}
		}
		if errs, ok := typed["errors"]; ok {
			return messageFromPayload(errs)
		}
	case []any:
		parts := make([]string, 0, len(typed))
		for _, item := range typed {
			if msg := messageFromPayload(item); msg != "" {
				parts = append(parts, msg)
			}
		}
		return strings.Join(parts, "; ")
	}
	return ""
}
