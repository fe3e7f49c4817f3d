// Package jsonutil provides JSON helpers for cubespin.
//
// Control commands arrive as JSON from scripts and other processes, so
// numbers are decoded leniently: anything that is not a usable number
// becomes zero instead of failing the whole command.
package jsonutil

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Float is a float64 that accepts JSON numbers and numeric strings.
// Every other value, including null, NaN and infinities, decodes as 0.
type Float float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *Float) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = Float(Number(v))
	return nil
}

// Number coerces a decoded JSON value to a finite float64.
func Number(v interface{}) float64 {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case json.Number:
		n, _ = t.Float64()
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		n = parsed
	default:
		return 0
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}

// PrettyJSON formats a JSON string with indentation for display.
// Returns the input unchanged if it's not valid JSON.
func PrettyJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(s), "", "  "); err != nil {
		return s
	}
	return buf.String()
}

// CompactJSON minifies a JSON string by removing whitespace.
func CompactJSON(s string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

// TruncateString truncates a string to maxLen characters, adding "..."
// if truncation occurred.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
