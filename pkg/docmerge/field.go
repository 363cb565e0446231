package docmerge

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Record is one row of the external data source: an identifier plus a mapping
// from field name to a dynamically typed field value, as decoded from JSON.
// Records are read-only to the engine and live for the duration of one render
// call.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// FieldMeta maps a field's storage key to its human display name. When a key
// and its display name differ, placeholders may reference either one.
type FieldMeta map[string]string

// Tagged field type codes carried by structured field values.
const (
	fieldTypeText         = 1
	fieldTypeNumber       = 2
	fieldTypeSingleSelect = 3
	fieldTypeMultiSelect  = 4
	fieldTypeDateTime     = 5
	fieldTypePerson       = 11
	fieldTypeCurrency     = 99
	fieldTypeCreatedTime  = 1001
	fieldTypeModifiedTime = 1002
)

// taggedValue recognizes the {type, value} shape of a structured field value.
func taggedValue(v any) (code int, inner any, ok bool) {
	m, isMap := v.(map[string]any)
	if !isMap {
		return 0, nil, false
	}
	rawCode, hasType := m["type"]
	inner, hasValue := m["value"]
	if !hasType || !hasValue {
		return 0, nil, false
	}
	n, isNum := asNumber(rawCode)
	if !isNum {
		return 0, nil, false
	}
	return int(n), inner, true
}

// asNumber extracts a numeric value from the shapes a JSON-decoded field can
// take, including numeric strings.
func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	}
	return 0, false
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
