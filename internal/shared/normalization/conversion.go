package normalization

import (
	"encoding/json"
	"strconv"
	"strings"
)

// AsString renders identifiers that may arrive as JSON strings or numbers. Other types yield "".
func AsString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	}
	return ""
}

func AsInt(value any) int {
	n, _ := AsIntOK(value)
	return n
}

// AsIntOK accepts JSON numbers, Go integers and numeric strings such as " 7 ".
func AsIntOK(value any) (int, bool) {
	switch v := value.(type) {
	case float64:
		return int(v), true
	case float32:
		return int(v), true
	case int:
		return v, true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}

// AsBool accepts booleans, strconv.ParseBool strings and numbers, where non-zero is true.
func AsBool(value any) (bool, bool) {
	switch v := value.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	}
	if n, ok := AsIntOK(value); ok {
		return n != 0, true
	}
	return false, false
}

// AsInterfaceSlice widens typed JSON collections to []any; other values yield nil.
func AsInterfaceSlice(value any) []any {
	switch v := value.(type) {
	case []any:
		return v
	case []string:
		return widen(v)
	case []map[string]any:
		return widen(v)
	}
	return nil
}

func widen[T any](in []T) []any {
	out := make([]any, len(in))
	for i := range in {
		out[i] = in[i]
	}
	return out
}

// MapFromPayload unwraps common envelope structures (e.g. {"data": {...}})
// into a plain map for normalization routines.
func MapFromPayload(value any) map[string]any {
	if value == nil {
		return nil
	}
	if typed, ok := value.(map[string]any); ok {
		if data, ok := typed["data"].(map[string]any); ok {
			return data
		}
		return typed
	}
	return nil
}

// ListFromPayload returns the item list of a bare array or of {items|data|content: [...]} envelopes.
func ListFromPayload(value any) []any {
	if items := AsInterfaceSlice(value); items != nil {
		return items
	}
	container, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	for _, key := range []string{"items", "data", "content", "results"} {
		if items := AsInterfaceSlice(container[key]); items != nil {
			return items
		}
		if nested, ok := container[key].(map[string]any); ok {
			if items := ListFromPayload(nested); items != nil {
				return items
			}
		}
	}
	return nil
}

// FirstPresent returns the value of the first alias present in raw, matching keys exactly.
func FirstPresent(raw map[string]any, aliases ...string) (any, bool) {
	for _, alias := range aliases {
		if value, ok := raw[alias]; ok && value != nil {
			return value, true
		}
	}
	return nil, false
}
