// Package filter normalizes loosely typed request parameters into optional
// filter values. Every helper returns nil for "no constraint".
package filter

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Values is a list parameter that tolerates a single scalar, an array of
// strings or an array of numbers in JSON bodies.
type Values []string

func (v *Values) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*v = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, scalarString(item))
		}
		*v = out
		return nil
	}

	*v = Values{scalarString(json.RawMessage(trimmed))}
	return nil
}

// Value is a scalar parameter that may arrive as string, number or boolean.
type Value string

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*v = ""
		return nil
	}
	*v = Value(scalarString(json.RawMessage(trimmed)))
	return nil
}

func scalarString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}

// Strings trims every element and drops blanks.
func Strings(values []string) []string {
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		out = append(out, value)
	}
	return out
}

// IDs parses every element as an integer id. Elements that are not finite
// integral numbers are dropped.
func IDs(values []string) []int64 {
	var out []int64
	for _, value := range Strings(values) {
		id, ok := parseInt(value)
		if !ok {
			continue
		}
		out = append(out, id)
	}
	return out
}

func parseInt(value string) (int64, bool) {
	if id, err := strconv.ParseInt(value, 10, 64); err == nil {
		return id, true
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Bool is the single boolean coercion rule: "true"/"1" and "false"/"0"
// (case-insensitive). Anything else, including blank, means no constraint.
func Bool(value string) *bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	default:
		return nil
	}
}

// BoolOr applies Bool and falls back to def when the value carries no
// boolean.
func BoolOr(value string, def bool) bool {
	if b := Bool(value); b != nil {
		return *b
	}
	return def
}

// PositiveInt returns the parsed value when it is a positive integer and def
// for anything else, including zero and negative values.
func PositiveInt(value string, def int) int {
	n, ok := parseInt(strings.TrimSpace(value))
	if !ok || n <= 0 || n > math.MaxInt32 {
		return def
	}
	return int(n)
}

// NonNegativeInt parses an offset. Blank or invalid input yields 0.
func NonNegativeInt(value string) int {
	n, ok := parseInt(strings.TrimSpace(value))
	if !ok || n < 0 || n > math.MaxInt32 {
		return 0
	}
	return int(n)
}
