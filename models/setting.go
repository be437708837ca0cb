package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SettingKind tags the semantic type of a stored setting value.
type SettingKind int

const (
	SettingString SettingKind = iota
	SettingBool
	SettingInt
	SettingFloat
	SettingJSON
)

// SettingValue is a tagged variant over the value types a setting may hold.
// Values are persisted as strings and parsed on read; explicit JSON blobs are
// stored verbatim.
type SettingValue struct {
	Kind  SettingKind
	Str   string
	Bool  bool
	Int   int64
	Float float64
	Raw   json.RawMessage
}

// Setting is one runtime-mutable configuration entry.
type Setting struct {
	ID        int64     `db:"id" json:"id"`
	Key       string    `db:"key" json:"key"`
	Value     string    `db:"value" json:"value"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ParseSettingValue coerces a stored string into a typed value. Booleans and
// numbers are recognized only when unambiguous; anything starting with '{' or
// '[' that parses as JSON keeps its raw form; everything else stays a string.
func ParseSettingValue(raw string) SettingValue {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "true", "yes", "on":
		return SettingValue{Kind: SettingBool, Bool: true, Str: raw}
	case "false", "no", "off":
		return SettingValue{Kind: SettingBool, Bool: false, Str: raw}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return SettingValue{Kind: SettingInt, Int: n, Float: float64(n), Str: raw}
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return SettingValue{Kind: SettingFloat, Float: f, Str: raw}
	}
	if len(s) > 0 && (s[0] == '{' || s[0] == '[') && json.Valid([]byte(s)) {
		return SettingValue{Kind: SettingJSON, Raw: json.RawMessage(s), Str: raw}
	}
	return SettingValue{Kind: SettingString, Str: raw}
}

// EncodeSettingValue renders a typed value into its stored string form.
func EncodeSettingValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case json.RawMessage:
		if !json.Valid(t) {
			return "", fmt.Errorf("invalid json setting value")
		}
		return string(t), nil
	default:
		return "", fmt.Errorf("unsupported setting value type %T", v)
	}
}

// AsInt returns the value as an integer when the kind allows it.
func (v SettingValue) AsInt(def int) int {
	switch v.Kind {
	case SettingInt:
		return int(v.Int)
	case SettingFloat:
		return int(v.Float)
	case SettingBool:
		if v.Bool {
			return 1
		}
		return 0
	}
	return def
}

// AsBool returns the value as a boolean when the kind allows it.
func (v SettingValue) AsBool(def bool) bool {
	switch v.Kind {
	case SettingBool:
		return v.Bool
	case SettingInt:
		return v.Int != 0
	}
	return def
}

// AsFloat returns the value as a float when the kind allows it.
func (v SettingValue) AsFloat(def float64) float64 {
	switch v.Kind {
	case SettingInt:
		return float64(v.Int)
	case SettingFloat:
		return v.Float
	}
	return def
}

// AsString returns the raw stored form.
func (v SettingValue) AsString(def string) string {
	if v.Str == "" {
		return def
	}
	return v.Str
}
