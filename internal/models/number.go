// TwinPulse - Digital Twin Telemetry Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twinpulse

package models

import (
	"fmt"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// ToFloat converts a numeric point value. Booleans and strings are not numeric.
func ToFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint64:
		return float64(t), true
	default:
		return 0, false
	}
}

// IsNumeric reports whether v is a number.
func IsNumeric(v any) bool {
	_, ok := ToFloat(v)
	return ok
}

// toDecimal parses v through its decimal text so 2.675 stays 2.675.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(t.String())
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case int32:
		return decimal.NewFromInt32(t), true
	default:
		return decimal.Zero, false
	}
}

// Round2 rounds a numeric value to two decimals, half away from zero, and
// returns it as a json.Number with exactly two fraction digits. Non-numeric
// values are returned unchanged with ok=false.
func Round2(v any) (out any, ok bool) {
	d, ok := toDecimal(v)
	if !ok {
		return v, false
	}
	return json.Number(d.StringFixed(2)), true
}

// Round2String is Round2 for a value already rendered as text. Text that is
// not a number is returned as is.
func Round2String(s string) string {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.StringFixed(2)
}

// FormatValue renders a point value the way it is stored: numbers by their
// decimal text, booleans as true/false, null as "null", and objects as JSON.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int, int32, int64:
		return fmt.Sprint(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
