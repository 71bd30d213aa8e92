package amqp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/goliatone/go-webhook-dispatch/core"
)

func TestHandoffPublishesToTopicExchange(t *testing.T) {
	channel := &fakeChannel{}
	handoff, err := NewHandoff(channel)
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	occurredAt := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)
	err = handoff.Submit(context.Background(), core.DeliveryRequest{
		ID:             "req-1",
		SubscriptionID: "wh-1",
		URL:            "https://hooks.example.com/anchors",
		EventKind:      core.EventKindAnchorStatusChanged,
		Body:           []byte(`{"anchor_id":"a-1"}`),
		OccurredAt:     occurredAt,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if len(channel.published) != 1 {
		t.Fatalf("expected one publish, got %d", len(channel.published))
	}
	got := channel.published[0]
	if got.exchange != core.DefaultDeliveryExchange {
		t.Fatalf("expected exchange %q, got %q", core.DefaultDeliveryExchange, got.exchange)
	}
	if got.key != "webhooks.AnchorStatusChanged" {
		t.Fatalf("unexpected routing key %q", got.key)
	}
	if got.msg.MessageId != "req-1" || got.msg.Type != "AnchorStatusChanged" {
		t.Fatalf("unexpected publishing identity %#v", got.msg)
	}
	if got.msg.ContentType != "application/json" || got.msg.DeliveryMode != amqp091.Persistent {
		t.Fatalf("unexpected publishing properties %#v", got.msg)
	}
	if got.msg.Headers["subscription_id"] != "wh-1" {
		t.Fatalf("unexpected headers %#v", got.msg.Headers)
	}
	if !got.msg.Timestamp.Equal(occurredAt.Truncate(time.Second)) {
		t.Fatalf("unexpected timestamp %s", got.msg.Timestamp)
	}
	if string(got.msg.Body) != `{"anchor_id":"a-1"}` {
		t.Fatalf("unexpected body %s", got.msg.Body)
	}
}

func TestDeclareExchangeUsesDurableTopic(t *testing.T) {
	channel := &fakeChannel{}
	cfg := core.DefaultConfig()
	cfg.Delivery.Exchange = "corridor.webhooks"
	handoff, err := NewHandoff(channel, WithConfig(cfg))
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	if err := handoff.DeclareExchange(channel); err != nil {
		t.Fatalf("declare exchange: %v", err)
	}
	if channel.declaredName != "corridor.webhooks" || channel.declaredKind != ExchangeKindTopic || !channel.declaredDurable {
		t.Fatalf("unexpected declaration %q %q durable=%v", channel.declaredName, channel.declaredKind, channel.declaredDurable)
	}
	if err := handoff.DeclareExchange(nil); err == nil {
		t.Fatalf("expected error for nil declarer")
	}
}

func TestHandoffWrapsPublishError(t *testing.T) {
	boom := errors.New("channel closed")
	handoff, err := NewHandoff(&fakeChannel{err: boom}, WithExchange("alt"))
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	if handoff.Exchange() != "alt" {
		t.Fatalf("expected exchange override, got %q", handoff.Exchange())
	}
	err = handoff.Submit(context.Background(), core.DeliveryRequest{
		ID: "req-2", SubscriptionID: "wh-2", EventKind: core.EventKindPaymentCreated, Body: []byte(`{}`),
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped publish error, got %v", err)
	}
}

func TestHandoffRejectsIncompleteRequests(t *testing.T) {
	channel := &fakeChannel{}
	handoff, err := NewHandoff(channel)
	if err != nil {
		t.Fatalf("new handoff: %v", err)
	}
	for i, req := range []core.DeliveryRequest{
		{SubscriptionID: "wh", Body: []byte(`{}`)},
		{ID: "req", Body: []byte(`{}`)},
		{ID: "req", SubscriptionID: "wh"},
	} {
		if err := handoff.Submit(context.Background(), req); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
	if len(channel.published) != 0 {
		t.Fatalf("expected no publishes")
	}
	if _, err := NewHandoff(nil); err == nil {
		t.Fatalf("expected error for nil publisher")
	}
}

type published struct {
	exchange string
	key      string
	msg      amqp091.Publishing
}

type fakeChannel struct {
	published       []published
	err             error
	declaredName    string
	declaredKind    string
	declaredDurable bool
}

func (c *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp091.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.published = append(c.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (c *fakeChannel) ExchangeDeclare(name, kind string, durable, _, _, _ bool, _ amqp091.Table) error {
	c.declaredName = name
	c.declaredKind = kind
	c.declaredDurable = durable
	return nil
}
