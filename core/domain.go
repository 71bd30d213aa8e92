package core

import (
	"encoding/json"
	"strings"
	"time"
)

// Subscription is a registered webhook as seen by the dispatch engine. It is
// read-only here; registration and updates belong to subscription management.
type Subscription struct {
	ID          string
	UserID      string
	URL         string
	EventTypes  string
	Filters     json.RawMessage
	Secret      string
	Active      bool
	CreatedAt   time.Time
	LastFiredAt *time.Time
}

// Kinds returns the parsed subscribed-kind set.
func (s Subscription) Kinds() []EventKind {
	return ParseEventKinds(s.EventTypes)
}

func (s Subscription) Subscribes(kind EventKind) bool {
	return ContainsEventKind(s.EventTypes, kind)
}

func (s Subscription) HasFilter() bool {
	trimmed := strings.TrimSpace(string(s.Filters))
	return trimmed != "" && trimmed != "null"
}

// DeliveryRequest is what the dispatch engine hands to the delivery
// subsystem for one matched subscription. Payload is shared by every
// request of one dispatch and must be treated as read-only; Body is owned
// by the request.
type DeliveryRequest struct {
	ID             string
	SubscriptionID string
	URL            string
	EventKind      EventKind
	Payload        map[string]any
	Body           []byte
	OccurredAt     time.Time
}

type DispatchStatus string

const (
	DispatchStatusHandedOff     DispatchStatus = "handed_off"
	DispatchStatusHandoffFailed DispatchStatus = "handoff_failed"
)

type DispatchResult struct {
	SubscriptionID string
	EventKind      EventKind
	RequestID      string
	Status         DispatchStatus
	Err            error
}

func (r DispatchResult) HandedOff() bool {
	return r.Status == DispatchStatusHandedOff
}

// DispatchReport aggregates the outcome of one dispatch call. Results holds
// one entry per matched subscription, in no particular order.
type DispatchReport struct {
	EventKind  EventKind
	Candidates int
	Inactive   int
	Filtered   int
	HandedOff  int
	Failed     int
	Results    []DispatchResult
}

func (r DispatchReport) Failures() []DispatchResult {
	out := make([]DispatchResult, 0, r.Failed)
	for _, result := range r.Results {
		if result.Status == DispatchStatusHandoffFailed {
			out = append(out, result)
		}
	}
	return out
}

// ResultFor returns the result recorded for a subscription, if any.
func (r DispatchReport) ResultFor(subscriptionID string) (DispatchResult, bool) {
	for _, result := range r.Results {
		if result.SubscriptionID == subscriptionID {
			return result, true
		}
	}
	return DispatchResult{}, false
}
