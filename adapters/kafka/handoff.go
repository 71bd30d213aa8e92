package kafka

import (
	"context"
	"fmt"
	"strings"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	HeaderEventKind      = "event_kind"
	HeaderRequestID      = "request_id"
	HeaderSubscriptionID = "subscription_id"
)

// MessageWriter is the subset of *kafka.Writer the handoff needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type Option func(*Handoff)

func WithTopic(topic string) Option {
	return func(h *Handoff) {
		h.topic = strings.TrimSpace(topic)
	}
}

// WithConfig applies the delivery topic from cfg.
func WithConfig(cfg core.Config) Option {
	return func(h *Handoff) {
		if topic := strings.TrimSpace(cfg.Delivery.Topic); topic != "" {
			h.topic = topic
		}
	}
}

func WithPropagator(propagator propagation.TextMapPropagator) Option {
	return func(h *Handoff) {
		h.propagator = propagator
	}
}

// Handoff publishes each delivery request to a Kafka topic for the delivery
// workers. Messages are keyed by subscription id so a subscriber's
// deliveries stay on one partition.
type Handoff struct {
	writer     MessageWriter
	topic      string
	propagator propagation.TextMapPropagator
}

func NewHandoff(writer MessageWriter, opts ...Option) (*Handoff, error) {
	if writer == nil {
		return nil, fmt.Errorf("kafka: message writer is required")
	}
	h := &Handoff{
		writer: writer,
		topic:  core.DefaultDeliveryTopic,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.topic == "" {
		h.topic = core.DefaultDeliveryTopic
	}
	return h, nil
}

func (h *Handoff) Submit(ctx context.Context, req core.DeliveryRequest) error {
	if h == nil || h.writer == nil {
		return fmt.Errorf("kafka: handoff is not configured")
	}
	msg, err := h.message(ctx, req)
	if err != nil {
		return err
	}
	if err := h.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: write %s: %w", h.topic, err)
	}
	return nil
}

func (h *Handoff) message(ctx context.Context, req core.DeliveryRequest) (kafka.Message, error) {
	if strings.TrimSpace(req.ID) == "" {
		return kafka.Message{}, fmt.Errorf("kafka: request id is required")
	}
	if strings.TrimSpace(req.SubscriptionID) == "" {
		return kafka.Message{}, fmt.Errorf("kafka: subscription id is required")
	}
	if len(req.Body) == 0 {
		return kafka.Message{}, fmt.Errorf("kafka: request body is required")
	}
	headers := []kafka.Header{
		{Key: HeaderEventKind, Value: []byte(req.EventKind.String())},
		{Key: HeaderRequestID, Value: []byte(req.ID)},
		{Key: HeaderSubscriptionID, Value: []byte(req.SubscriptionID)},
	}
	return kafka.Message{
		Topic:   h.topic,
		Key:     []byte(req.SubscriptionID),
		Value:   append([]byte(nil), req.Body...),
		Headers: h.injectTrace(ctx, headers),
	}, nil
}

func (h *Handoff) injectTrace(ctx context.Context, headers []kafka.Header) []kafka.Header {
	propagator := h.propagator
	if propagator == nil {
		propagator = otel.GetTextMapPropagator()
	}
	carrier := &headerCarrier{headers: headers}
	propagator.Inject(ctx, carrier)
	return carrier.headers
}

// HeaderValue returns the first header named key.
func HeaderValue(headers []kafka.Header, key string) string {
	for _, header := range headers {
		if header.Key == key {
			return string(header.Value)
		}
	}
	return ""
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	return HeaderValue(c.headers, key)
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, header := range c.headers {
		keys = append(keys, header.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key string, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var (
	_ core.DeliveryHandoff       = (*Handoff)(nil)
	_ propagation.TextMapCarrier = (*headerCarrier)(nil)
	_ MessageWriter              = (*kafka.Writer)(nil)
)
