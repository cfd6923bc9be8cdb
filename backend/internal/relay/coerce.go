package relay

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// numberOr coerces v to a finite float64, substituting def when v is missing,
// non-numeric, or not finite. Strings are parsed; booleans map to 1/0.
func numberOr(v any, def float64) float64 {
	var f float64

	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return def
		}

		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return def
		}

		f = parsed
	case bool:
		if n {
			f = 1
		}
	default:
		return def
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}

	return f
}

// boolOr coerces v to a bool. Native booleans, the lowercase strings
// "true"/"false", and numeric zero/non-zero are accepted; anything else
// substitutes def.
func boolOr(v any, def bool) bool {
	switch b := v.(type) {
	case bool:
		return b
	case string:
		switch b {
		case "true":
			return true
		case "false":
			return false
		}

		return def
	case float64:
		return b != 0
	case float32:
		return b != 0
	case int:
		return b != 0
	case int64:
		return b != 0
	case json.Number:
		f, err := b.Float64()
		if err != nil {
			return def
		}

		return f != 0
	default:
		return def
	}
}

// stringOr returns v if it is a non-empty string, otherwise def.
func stringOr(v any, def string) string {
	if s, ok := v.(string); ok && s != "" {
		return s
	}

	return def
}

// clampNonNegative clamps f to zero from below.
func clampNonNegative(f float64) float64 {
	return math.Max(0, f)
}

// timestampWithin coerces v to unix seconds and corrects it to now when the
// value falls outside [now-window, now+window]. Guards against stale or
// clock-skewed device data being mistaken for live telemetry.
func timestampWithin(v any, now time.Time, window time.Duration) int64 {
	ts := int64(numberOr(v, 0))

	lo := now.Add(-window).Unix()
	hi := now.Add(window).Unix()

	if ts < lo || ts > hi {
		return now.Unix()
	}

	return ts
}
