package webhooks

import (
	"fmt"
	"math/rand"
	"testing"
)

func TestMatches_Table(t *testing.T) {
	payload := map[string]any{
		"asset_code": "USDC",
		"amount":     float64(100),
		"tags":       []any{"a", "b"},
		"meta":       map[string]any{"region": "eu"},
		"flag":       true,
		"missing_ok": nil,
	}
	cases := []struct {
		name      string
		predicate any
		want      bool
	}{
		{name: "nil predicate", predicate: nil, want: true},
		{name: "empty object", predicate: map[string]any{}, want: true},
		{name: "array predicate is permissive", predicate: []any{"x"}, want: true},
		{name: "string predicate is permissive", predicate: "asset_code=XLM", want: true},
		{name: "number predicate is permissive", predicate: float64(1), want: true},
		{name: "single equal key", predicate: map[string]any{"asset_code": "USDC"}, want: true},
		{name: "conjunction holds", predicate: map[string]any{"asset_code": "USDC", "amount": float64(100)}, want: true},
		{name: "conjunction fails on one key", predicate: map[string]any{"asset_code": "USDC", "amount": float64(5)}, want: false},
		{name: "different value", predicate: map[string]any{"asset_code": "XLM"}, want: false},
		{name: "missing key", predicate: map[string]any{"network": "public"}, want: false},
		{name: "no type coercion", predicate: map[string]any{"amount": "100"}, want: false},
		{name: "go int is not a decoded number", predicate: map[string]any{"amount": 100}, want: false},
		{name: "case sensitive strings", predicate: map[string]any{"asset_code": "usdc"}, want: false},
		{name: "deep array equality", predicate: map[string]any{"tags": []any{"a", "b"}}, want: true},
		{name: "array order matters", predicate: map[string]any{"tags": []any{"b", "a"}}, want: false},
		{name: "nested object equality", predicate: map[string]any{"meta": map[string]any{"region": "eu"}}, want: true},
		{name: "nested object is not a subset match", predicate: map[string]any{"meta": map[string]any{}}, want: false},
		{name: "bool value", predicate: map[string]any{"flag": true}, want: true},
		{name: "explicit null value", predicate: map[string]any{"missing_ok": nil}, want: true},
		{name: "null does not match absent key", predicate: map[string]any{"other": nil}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Matches(payload, tc.predicate); got != tc.want {
				t.Fatalf("Matches(%v) = %v, want %v", tc.predicate, got, tc.want)
			}
		})
	}
}

func TestMatchesRaw_DecodesNumbersLikePayloads(t *testing.T) {
	payload := map[string]any{"amount": float64(100)}
	if !MatchesRaw(payload, []byte(`{"amount":100}`)) {
		t.Fatalf("expected stored numeric predicate to match decoded payload")
	}
}

func TestMatchesRaw_PermissiveDecoding(t *testing.T) {
	payload := map[string]any{"asset_code": "USDC", "amount": float64(100)}
	cases := []struct {
		raw  string
		want bool
	}{
		{raw: "", want: true},
		{raw: "  ", want: true},
		{raw: "null", want: true},
		{raw: "{not json", want: true},
		{raw: `["asset_code"]`, want: true},
		{raw: `"USDC"`, want: true},
		{raw: `{}`, want: true},
		{raw: `{"asset_code":"USDC"}`, want: true},
		{raw: `{"asset_code":"XLM"}`, want: false},
		{raw: `{"amount":100}`, want: true},
		{raw: `{"amount":100.0}`, want: true},
		{raw: `{"amount":"100"}`, want: false},
	}
	for _, tc := range cases {
		if got := MatchesRaw(payload, []byte(tc.raw)); got != tc.want {
			t.Fatalf("MatchesRaw(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestMatches_DoesNotMutateInputs(t *testing.T) {
	payload := map[string]any{"asset_code": "USDC"}
	predicate := map[string]any{"asset_code": "USDC", "extra": "x"}
	_ = Matches(payload, predicate)
	if len(payload) != 1 || len(predicate) != 2 {
		t.Fatalf("expected inputs to be untouched, got %v / %v", payload, predicate)
	}
}

func randomValue(rng *rand.Rand, depth int) any {
	switch rng.Intn(6) {
	case 0:
		return fmt.Sprintf("s%d", rng.Intn(5))
	case 1:
		return float64(rng.Intn(5))
	case 2:
		return rng.Intn(2) == 0
	case 3:
		return nil
	case 4:
		if depth > 1 {
			return "leaf"
		}
		return []any{randomValue(rng, depth+1), randomValue(rng, depth+1)}
	default:
		if depth > 1 {
			return float64(-1)
		}
		return map[string]any{"k": randomValue(rng, depth+1)}
	}
}

func randomPayload(rng *rand.Rand) map[string]any {
	payload := map[string]any{}
	for i := 0; i < 1+rng.Intn(6); i++ {
		payload[fmt.Sprintf("key_%d", i)] = randomValue(rng, 0)
	}
	return payload
}

func TestMatches_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for iteration := 0; iteration < 500; iteration++ {
		payload := randomPayload(rng)

		if !Matches(payload, nil) {
			t.Fatalf("absent predicate must match %v", payload)
		}

		subset := map[string]any{}
		for key, value := range payload {
			if rng.Intn(2) == 0 {
				subset[key] = value
			}
		}
		if !Matches(payload, subset) {
			t.Fatalf("subset predicate %v must match %v", subset, payload)
		}

		withMissing := map[string]any{"absent_key": "x"}
		for key, value := range subset {
			withMissing[key] = value
		}
		if Matches(payload, withMissing) {
			t.Fatalf("predicate with missing key %v must not match %v", withMissing, payload)
		}

		for key := range payload {
			differing := map[string]any{}
			for k, v := range subset {
				differing[k] = v
			}
			differing[key] = "definitely-different-value"
			if Matches(payload, differing) {
				t.Fatalf("predicate with differing %q must not match %v", key, payload)
			}
			break
		}
	}
}
