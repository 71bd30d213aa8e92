package amqp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const ExchangeKindTopic = "topic"

// Publisher is the subset of *amqp091.Channel the handoff needs.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
}

// ExchangeDeclarer is implemented by *amqp091.Channel.
type ExchangeDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
}

type Option func(*Handoff)

func WithExchange(exchange string) Option {
	return func(h *Handoff) {
		h.exchange = strings.TrimSpace(exchange)
	}
}

// WithConfig applies the delivery exchange from cfg.
func WithConfig(cfg core.Config) Option {
	return func(h *Handoff) {
		if exchange := strings.TrimSpace(cfg.Delivery.Exchange); exchange != "" {
			h.exchange = exchange
		}
	}
}

// Handoff publishes delivery requests to a topic exchange, routed by event
// kind so delivery workers can bind per kind.
type Handoff struct {
	publisher Publisher
	exchange  string
}

func NewHandoff(publisher Publisher, opts ...Option) (*Handoff, error) {
	if publisher == nil {
		return nil, fmt.Errorf("amqp: publisher is required")
	}
	h := &Handoff{
		publisher: publisher,
		exchange:  core.DefaultDeliveryExchange,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.exchange == "" {
		h.exchange = core.DefaultDeliveryExchange
	}
	return h, nil
}

func (h *Handoff) Exchange() string {
	if h == nil {
		return ""
	}
	return h.exchange
}

// DeclareExchange declares the durable topic exchange the handoff publishes to.
func (h *Handoff) DeclareExchange(declarer ExchangeDeclarer) error {
	if h == nil {
		return fmt.Errorf("amqp: handoff is not configured")
	}
	if declarer == nil {
		return fmt.Errorf("amqp: exchange declarer is required")
	}
	if err := declarer.ExchangeDeclare(h.exchange, ExchangeKindTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("amqp: declare exchange %s: %w", h.exchange, err)
	}
	return nil
}

func (h *Handoff) Submit(ctx context.Context, req core.DeliveryRequest) error {
	if h == nil || h.publisher == nil {
		return fmt.Errorf("amqp: handoff is not configured")
	}
	publishing, err := toPublishing(req)
	if err != nil {
		return err
	}
	if err := h.publisher.PublishWithContext(ctx, h.exchange, RoutingKey(req.EventKind), false, false, publishing); err != nil {
		return fmt.Errorf("amqp: publish %s: %w", h.exchange, err)
	}
	return nil
}

// RoutingKey returns "webhooks.<kind>".
func RoutingKey(kind core.EventKind) string {
	return "webhooks." + kind.String()
}

func toPublishing(req core.DeliveryRequest) (amqp091.Publishing, error) {
	if strings.TrimSpace(req.ID) == "" {
		return amqp091.Publishing{}, fmt.Errorf("amqp: request id is required")
	}
	if strings.TrimSpace(req.SubscriptionID) == "" {
		return amqp091.Publishing{}, fmt.Errorf("amqp: subscription id is required")
	}
	if len(req.Body) == 0 {
		return amqp091.Publishing{}, fmt.Errorf("amqp: request body is required")
	}
	publishing := amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    req.ID,
		Type:         req.EventKind.String(),
		Headers: amqp091.Table{
			"subscription_id": req.SubscriptionID,
			"url":             req.URL,
		},
		Body: append([]byte(nil), req.Body...),
	}
	if !req.OccurredAt.IsZero() {
		publishing.Timestamp = req.OccurredAt.UTC().Truncate(time.Second)
	}
	return publishing, nil
}

var (
	_ core.DeliveryHandoff = (*Handoff)(nil)
	_ Publisher            = (*amqp091.Channel)(nil)
	_ ExchangeDeclarer     = (*amqp091.Channel)(nil)
)
