package analysis

import (
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// fencePattern matches a markdown code fence with an optional language tag
// around the whole payload.
var fencePattern = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// stripCodeFence removes a surrounding markdown code fence, if any, so that
// fenced and unfenced payloads parse identically.
func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(trimmed); m != nil && m[2] != "" {
		return strings.TrimSpace(m[2])
	}
	return trimmed
}

// decodeJSONResponse extracts the JSON payload from raw model output and
// parses it into an untyped value. All environment-to-domain conversion goes
// through here so every consumer has identical repair semantics.
func decodeJSONResponse(raw string) (any, error) {
	payload := stripCodeFence(raw)
	var v any
	if err := json.Unmarshal([]byte(payload), &v); err != nil {
		return nil, newMalformedResponseError(raw, err)
	}
	return v, nil
}

// decodeJSONObject is decodeJSONResponse for payloads that must be objects.
func decodeJSONObject(raw string) (map[string]any, error) {
	v, err := decodeJSONResponse(raw)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, newMalformedResponseError(raw, errUnexpectedShape)
	}
	return obj, nil
}

var errUnexpectedShape = jsonShapeError("expected a JSON object")

type jsonShapeError string

func (e jsonShapeError) Error() string { return string(e) }

// toNumber coerces an arbitrary decoded value into a finite number, falling
// back to def for null, missing, empty or non-numeric input. It never
// returns NaN or Infinity.
func toNumber(v any, def float64) float64 {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return def
		}
		return n
	case json.Number:
		f, err := n.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	case string:
		s := strings.TrimSpace(n)
		if s == "" {
			return def
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return def
		}
		return f
	default:
		return def
	}
}

// toText coerces a decoded value into a string, falling back to def for
// null, missing or blank input.
func toText(v any, def string) string {
	switch s := v.(type) {
	case nil:
		return def
	case string:
		trimmed := strings.TrimSpace(s)
		if trimmed == "" {
			return def
		}
		return trimmed
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return def
	}
}

// absent reports whether a decoded value counts as missing for a required
// field: absent keys, null, blank strings and numeric zero all qualify.
func absent(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case float64:
		return t == 0
	case bool:
		return !t
	default:
		return false
	}
}
