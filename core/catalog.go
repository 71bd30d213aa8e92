package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// EventKindDelimiter separates kind identifiers in a persisted subscription.
const EventKindDelimiter = ","

type CatalogEntry struct {
	Kind      EventKind
	Prototype Event
}

var catalog = []CatalogEntry{
	{Kind: EventKindCorridorHealthDegraded, Prototype: CorridorHealthDegradedEvent{}},
	{Kind: EventKindAnchorStatusChanged, Prototype: AnchorStatusChangedEvent{}},
	{Kind: EventKindPaymentCreated, Prototype: PaymentCreatedEvent{}},
	{Kind: EventKindCorridorLiquidityDropped, Prototype: CorridorLiquidityDroppedEvent{}},
}

// Catalog returns every known event kind in declaration order.
func Catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(catalog))
	copy(out, catalog)
	return out
}

func EventKinds() []EventKind {
	out := make([]EventKind, 0, len(catalog))
	for _, entry := range catalog {
		out = append(out, entry.Kind)
	}
	return out
}

// ParseEventKind matches a trimmed identifier against the catalog. Matching
// is exact; identifiers are case sensitive.
func ParseEventKind(raw string) (EventKind, bool) {
	token := strings.TrimSpace(raw)
	if token == "" {
		return "", false
	}
	for _, entry := range catalog {
		if string(entry.Kind) == token {
			return entry.Kind, true
		}
	}
	return "", false
}

// ParseEventKinds parses a delimited kind list. Empty and unknown tokens are
// dropped, duplicates collapse and order of first appearance is kept.
func ParseEventKinds(raw string) []EventKind {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	tokens := strings.Split(raw, EventKindDelimiter)
	out := make([]EventKind, 0, len(tokens))
	seen := make(map[EventKind]struct{}, len(tokens))
	for _, token := range tokens {
		kind, ok := ParseEventKind(token)
		if !ok {
			continue
		}
		if _, exists := seen[kind]; exists {
			continue
		}
		seen[kind] = struct{}{}
		out = append(out, kind)
	}
	return out
}

func ContainsEventKind(raw string, kind EventKind) bool {
	for _, parsed := range ParseEventKinds(raw) {
		if parsed == kind {
			return true
		}
	}
	return false
}

// FormatEventKinds renders kinds in their persisted delimited form.
func FormatEventKinds(kinds ...EventKind) string {
	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		if !kind.Valid() {
			continue
		}
		parts = append(parts, string(kind))
	}
	return strings.Join(parts, EventKindDelimiter)
}

// EncodePayload resolves the kind of event and renders its payload both as
// canonical JSON and as JSON-structural values (map[string]any, []any,
// float64, string, bool, nil) suitable for filter evaluation.
func EncodePayload(event Event) (EventKind, map[string]any, []byte, error) {
	resolved, err := resolveEvent(event)
	if err != nil {
		return "", nil, nil, err
	}
	body, err := json.Marshal(resolved)
	if err != nil {
		return "", nil, nil, fmt.Errorf("core: encode %s payload: %w", resolved.Kind(), err)
	}
	payload := map[string]any{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", nil, nil, fmt.Errorf("core: decode %s payload: %w", resolved.Kind(), err)
	}
	return resolved.Kind(), payload, body, nil
}

func resolveEvent(event Event) (Event, error) {
	switch typed := event.(type) {
	case nil:
		return nil, fmt.Errorf("core: event is required")
	case CorridorHealthDegradedEvent:
		if typed.Changes == nil {
			typed.Changes = []string{}
		}
		return typed, nil
	case *CorridorHealthDegradedEvent:
		if typed == nil {
			return nil, fmt.Errorf("core: event is required")
		}
		return resolveEvent(*typed)
	case AnchorStatusChangedEvent:
		return typed, nil
	case *AnchorStatusChangedEvent:
		if typed == nil {
			return nil, fmt.Errorf("core: event is required")
		}
		return *typed, nil
	case PaymentCreatedEvent:
		return typed, nil
	case *PaymentCreatedEvent:
		if typed == nil {
			return nil, fmt.Errorf("core: event is required")
		}
		return *typed, nil
	case CorridorLiquidityDroppedEvent:
		return typed, nil
	case *CorridorLiquidityDroppedEvent:
		if typed == nil {
			return nil, fmt.Errorf("core: event is required")
		}
		return *typed, nil
	default:
		return nil, fmt.Errorf("core: unsupported event type %T", event)
	}
}
