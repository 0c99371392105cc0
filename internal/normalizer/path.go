// Package normalizer reconciles the loosely shaped JSON the PassMais API
// returns into canonical records. Every attribute is resolved through an
// ordered list of dotted paths; the first usable value wins.
package normalizer

import (
	"math"
	"strconv"
	"strings"

	"github.com/spf13/cast"
)

// GetNestedValue walks a dotted path through decoded JSON. Numeric segments
// index into arrays. Any missing or non-container intermediate yields nil.
func GetNestedValue(obj any, path string) any {
	if path == "" {
		return nil
	}
	current := obj
	for _, segment := range strings.Split(path, ".") {
		switch node := current.(type) {
		case map[string]any:
			next, ok := node[segment]
			if !ok {
				return nil
			}
			current = next
		case []any:
			idx, err := strconv.Atoi(segment)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil
			}
			current = node[idx]
		default:
			return nil
		}
	}
	return current
}

// PickFirstString returns the first non-blank string (numbers are rendered
// in their shortest form) found among the candidate paths.
func PickFirstString(obj any, paths ...string) (string, bool) {
	for _, path := range paths {
		if s, ok := asString(GetNestedValue(obj, path)); ok {
			return s, true
		}
	}
	return "", false
}

// PickFirstNumber returns the first value that parses as a finite number.
// Strings may use a comma as decimal separator and carry a "R$" prefix.
func PickFirstNumber(obj any, paths ...string) (float64, bool) {
	for _, path := range paths {
		if n, ok := asNumber(GetNestedValue(obj, path)); ok {
			return n, true
		}
	}
	return 0, false
}

// PickDigits returns the first candidate reduced to its digits, skipping
// candidates that contain none.
func PickDigits(obj any, paths ...string) (string, bool) {
	for _, path := range paths {
		s, ok := asString(GetNestedValue(obj, path))
		if !ok {
			continue
		}
		if digits := onlyDigits(s); digits != "" {
			return digits, true
		}
	}
	return "", false
}

func asString(value any) (string, bool) {
	switch v := value.(type) {
	case nil, bool, map[string]any, []any:
		return "", false
	case string:
		s := strings.TrimSpace(v)
		return s, s != ""
	default:
		s, err := cast.ToStringE(v)
		if err != nil {
			return "", false
		}
		s = strings.TrimSpace(s)
		return s, s != ""
	}
}

func asNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil, bool, map[string]any, []any:
		return 0, false
	case string:
		s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(v), "R$"))
		if s == "" {
			return 0, false
		}
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		return finite(cast.ToFloat64E(s))
	default:
		return finite(cast.ToFloat64E(v))
	}
}

func finite(n float64, err error) (float64, bool) {
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
