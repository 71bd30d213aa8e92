package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	DefaultScriptPath  = "webhooks/deliver"
	DefaultDedupPolicy = job.DeduplicationPolicy("drop")
)

const (
	ParamRequestID      = "request_id"
	ParamSubscriptionID = "subscription_id"
	ParamURL            = "url"
	ParamEventKind      = "event_kind"
	ParamPayload        = "payload"
	ParamOccurredAt     = "occurred_at"
)

type Option func(*Handoff)

func WithJobID(jobID string) Option {
	return func(h *Handoff) {
		h.jobID = strings.TrimSpace(jobID)
	}
}

func WithScriptPath(path string) Option {
	return func(h *Handoff) {
		h.scriptPath = strings.TrimSpace(path)
	}
}

func WithDedupPolicy(policy job.DeduplicationPolicy) Option {
	return func(h *Handoff) {
		h.dedupPolicy = policy
	}
}

// WithConfig applies the delivery section of cfg.
func WithConfig(cfg core.Config) Option {
	return func(h *Handoff) {
		if jobID := strings.TrimSpace(cfg.Delivery.JobID); jobID != "" {
			h.jobID = jobID
		}
	}
}

// Handoff enqueues each delivery request as a go-job execution message. The
// request id is the idempotency key, so a retried dispatch does not enqueue
// the same delivery twice.
type Handoff struct {
	enqueuer    queue.Enqueuer
	jobID       string
	scriptPath  string
	dedupPolicy job.DeduplicationPolicy
}

func NewHandoff(enqueuer queue.Enqueuer, opts ...Option) (*Handoff, error) {
	if enqueuer == nil {
		return nil, fmt.Errorf("gojob: enqueuer is required")
	}
	h := &Handoff{
		enqueuer:    enqueuer,
		jobID:       core.DefaultDeliveryJobID,
		scriptPath:  DefaultScriptPath,
		dedupPolicy: DefaultDedupPolicy,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.jobID == "" {
		h.jobID = core.DefaultDeliveryJobID
	}
	return h, nil
}

func (h *Handoff) Submit(ctx context.Context, req core.DeliveryRequest) error {
	if h == nil || h.enqueuer == nil {
		return fmt.Errorf("gojob: handoff is not configured")
	}
	msg, err := ToExecutionMessage(h.jobID, req)
	if err != nil {
		return err
	}
	msg.ScriptPath = h.scriptPath
	msg.DedupPolicy = h.dedupPolicy
	if _, err := h.enqueuer.Enqueue(ctx, msg); err != nil {
		return err
	}
	return nil
}

// ToExecutionMessage maps a delivery request to a go-job message.
func ToExecutionMessage(jobID string, req core.DeliveryRequest) (*job.ExecutionMessage, error) {
	requestID := strings.TrimSpace(req.ID)
	if requestID == "" {
		return nil, fmt.Errorf("gojob: request id is required")
	}
	if strings.TrimSpace(req.SubscriptionID) == "" {
		return nil, fmt.Errorf("gojob: subscription id is required")
	}
	payload := req.Payload
	if payload == nil && len(req.Body) > 0 {
		if err := json.Unmarshal(req.Body, &payload); err != nil {
			return nil, fmt.Errorf("gojob: decode body: %w", err)
		}
	}
	params := map[string]any{
		ParamRequestID:      requestID,
		ParamSubscriptionID: req.SubscriptionID,
		ParamURL:            req.URL,
		ParamEventKind:      req.EventKind.String(),
		ParamPayload:        copyAnyMap(payload),
	}
	if !req.OccurredAt.IsZero() {
		params[ParamOccurredAt] = req.OccurredAt.UTC().Format(time.RFC3339Nano)
	}
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(jobID),
		Parameters:     params,
		IdempotencyKey: requestID,
	}, nil
}

// FromExecutionMessage rebuilds the delivery request on the worker side.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.DeliveryRequest, error) {
	if msg == nil {
		return core.DeliveryRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	params := msg.Parameters
	req := core.DeliveryRequest{
		ID:             stringParam(params, ParamRequestID),
		SubscriptionID: stringParam(params, ParamSubscriptionID),
		URL:            stringParam(params, ParamURL),
	}
	if req.ID == "" {
		req.ID = strings.TrimSpace(msg.IdempotencyKey)
	}
	if req.ID == "" || req.SubscriptionID == "" {
		return core.DeliveryRequest{}, fmt.Errorf("gojob: message %q is missing delivery identifiers", msg.JobID)
	}
	kind, ok := core.ParseEventKind(stringParam(params, ParamEventKind))
	if !ok {
		return core.DeliveryRequest{}, fmt.Errorf("gojob: unknown event kind %q", stringParam(params, ParamEventKind))
	}
	req.EventKind = kind

	if raw := stringParam(params, ParamOccurredAt); raw != "" {
		occurredAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return core.DeliveryRequest{}, fmt.Errorf("gojob: parse occurred_at: %w", err)
		}
		req.OccurredAt = occurredAt
	}

	if payload, ok := params[ParamPayload].(map[string]any); ok {
		req.Payload = copyAnyMap(payload)
		body, err := json.Marshal(req.Payload)
		if err != nil {
			return core.DeliveryRequest{}, fmt.Errorf("gojob: encode payload: %w", err)
		}
		req.Body = body
	}
	return req, nil
}

func stringParam(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return strings.TrimSpace(value)
}

func copyAnyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ core.DeliveryHandoff = (*Handoff)(nil)
