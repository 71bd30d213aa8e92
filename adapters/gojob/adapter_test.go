package gojob

import (
	"context"
	"errors"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"

	"github.com/goliatone/go-webhook-dispatch/core"
)

func TestHandoffEnqueuesDeliveryJob(t *testing.T) {
	enqueuer := &stubQueueEnqueuer{}
	handoff, err := NewHandoff(enqueuer)
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}

	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req := core.DeliveryRequest{
		ID:             "req-1",
		SubscriptionID: "wh-1",
		URL:            "https://hooks.example.com/corridor",
		EventKind:      core.EventKindCorridorHealthDegraded,
		Payload:        map[string]any{"corridor_key": "USDC:GA->XLM:native"},
		OccurredAt:     occurredAt,
	}
	if err := handoff.Submit(context.Background(), req); err != nil {
		t.Fatalf("submit: %v", err)
	}

	msg := enqueuer.last
	if msg == nil {
		t.Fatalf("expected enqueued message")
	}
	if msg.JobID != core.DefaultDeliveryJobID {
		t.Fatalf("expected job id %q, got %q", core.DefaultDeliveryJobID, msg.JobID)
	}
	if msg.ScriptPath != DefaultScriptPath {
		t.Fatalf("expected script path %q, got %q", DefaultScriptPath, msg.ScriptPath)
	}
	if msg.IdempotencyKey != "req-1" {
		t.Fatalf("expected request id as idempotency key, got %q", msg.IdempotencyKey)
	}
	if msg.DedupPolicy != DefaultDedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", DefaultDedupPolicy, msg.DedupPolicy)
	}
	if msg.Parameters[ParamEventKind] != "CorridorHealthDegraded" {
		t.Fatalf("unexpected event kind parameter: %#v", msg.Parameters[ParamEventKind])
	}
	if msg.Parameters[ParamOccurredAt] != "2026-03-01T12:00:00Z" {
		t.Fatalf("unexpected occurred_at parameter: %#v", msg.Parameters[ParamOccurredAt])
	}
}

func TestHandoffOptionsOverrideDefaults(t *testing.T) {
	enqueuer := &stubQueueEnqueuer{}
	cfg := core.DefaultConfig()
	cfg.Delivery.JobID = "corridor.webhooks.deliver"
	handoff, err := NewHandoff(enqueuer,
		WithConfig(cfg),
		WithScriptPath("scripts/deliver.js"),
		WithDedupPolicy(job.DeduplicationPolicy("merge")),
	)
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	if err := handoff.Submit(context.Background(), core.DeliveryRequest{
		ID:             "req-2",
		SubscriptionID: "wh-2",
		EventKind:      core.EventKindPaymentCreated,
	}); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if enqueuer.last.JobID != "corridor.webhooks.deliver" {
		t.Fatalf("expected configured job id, got %q", enqueuer.last.JobID)
	}
	if enqueuer.last.ScriptPath != "scripts/deliver.js" {
		t.Fatalf("expected configured script path, got %q", enqueuer.last.ScriptPath)
	}
	if string(enqueuer.last.DedupPolicy) != "merge" {
		t.Fatalf("expected merge dedup policy, got %q", enqueuer.last.DedupPolicy)
	}
}

func TestHandoffPropagatesEnqueueFailure(t *testing.T) {
	boom := errors.New("queue unavailable")
	handoff, err := NewHandoff(&stubQueueEnqueuer{err: boom})
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	err = handoff.Submit(context.Background(), core.DeliveryRequest{
		ID:             "req-3",
		SubscriptionID: "wh-3",
		EventKind:      core.EventKindAnchorStatusChanged,
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}

func TestNewHandoffRequiresEnqueuer(t *testing.T) {
	if _, err := NewHandoff(nil); err == nil {
		t.Fatalf("expected error for nil enqueuer")
	}
}

func TestToExecutionMessageRequiresIdentifiers(t *testing.T) {
	if _, err := ToExecutionMessage(core.DefaultDeliveryJobID, core.DeliveryRequest{SubscriptionID: "wh"}); err == nil {
		t.Fatalf("expected error for missing request id")
	}
	if _, err := ToExecutionMessage(core.DefaultDeliveryJobID, core.DeliveryRequest{ID: "req"}); err == nil {
		t.Fatalf("expected error for missing subscription id")
	}
}

func TestToExecutionMessageDecodesBodyWhenPayloadMissing(t *testing.T) {
	msg, err := ToExecutionMessage(core.DefaultDeliveryJobID, core.DeliveryRequest{
		ID:             "req-4",
		SubscriptionID: "wh-4",
		EventKind:      core.EventKindPaymentCreated,
		Body:           []byte(`{"amount":"10"}`),
	})
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	payload, ok := msg.Parameters[ParamPayload].(map[string]any)
	if !ok || payload["amount"] != "10" {
		t.Fatalf("expected payload decoded from body, got %#v", msg.Parameters[ParamPayload])
	}
}

func TestExecutionMessageRoundTrip(t *testing.T) {
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 123, time.UTC)
	original := core.DeliveryRequest{
		ID:             "req-5",
		SubscriptionID: "wh-5",
		URL:            "https://hooks.example.com/payments",
		EventKind:      core.EventKindPaymentCreated,
		Payload:        map[string]any{"asset": "XLM"},
		OccurredAt:     occurredAt,
	}
	msg, err := ToExecutionMessage(core.DefaultDeliveryJobID, original)
	if err != nil {
		t.Fatalf("to execution message: %v", err)
	}
	got, err := FromExecutionMessage(msg)
	if err != nil {
		t.Fatalf("from execution message: %v", err)
	}
	if got.ID != original.ID || got.SubscriptionID != original.SubscriptionID || got.URL != original.URL {
		t.Fatalf("identifiers did not survive: %#v", got)
	}
	if got.EventKind != original.EventKind {
		t.Fatalf("expected kind %q, got %q", original.EventKind, got.EventKind)
	}
	if !got.OccurredAt.Equal(occurredAt) {
		t.Fatalf("expected occurred_at %s, got %s", occurredAt, got.OccurredAt)
	}
	if got.Payload["asset"] != "XLM" || string(got.Body) != `{"asset":"XLM"}` {
		t.Fatalf("unexpected payload/body: %#v %s", got.Payload, got.Body)
	}
}

func TestFromExecutionMessageRejectsUnknownKind(t *testing.T) {
	_, err := FromExecutionMessage(&job.ExecutionMessage{
		JobID: core.DefaultDeliveryJobID,
		Parameters: map[string]any{
			ParamRequestID:      "req-6",
			ParamSubscriptionID: "wh-6",
			ParamEventKind:      "CorridorUnknown",
		},
	})
	if err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if _, err := FromExecutionMessage(nil); err == nil {
		t.Fatalf("expected nil message error")
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
	err  error
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	s.last = msg
	return queue.EnqueueReceipt{}, s.err
}
