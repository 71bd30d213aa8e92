package webhooks

import (
	"encoding/json"
	"reflect"
	"strings"
)

// Matches reports whether payload satisfies predicate. Only object
// predicates constrain: every key must be present in payload with a deeply
// equal value. Any other predicate shape, including nil, matches.
//
// Values are compared without coercion, so both sides must be JSON-decoded:
// numbers as float64, objects as map[string]any, arrays as []any. A
// predicate built in Go with an int such as {"amount": 100} never matches;
// use MatchesRaw for stored predicates.
func Matches(payload map[string]any, predicate any) bool {
	expected, ok := predicate.(map[string]any)
	if !ok {
		return true
	}
	for key, want := range expected {
		got, exists := payload[key]
		if !exists {
			return false
		}
		if !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

// MatchesRaw decodes a stored predicate and evaluates it. Empty, null and
// undecodable predicates match every payload.
func MatchesRaw(payload map[string]any, raw []byte) bool {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return true
	}
	var predicate any
	if err := json.Unmarshal([]byte(trimmed), &predicate); err != nil {
		return true
	}
	return Matches(payload, predicate)
}
