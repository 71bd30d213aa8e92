package sqlstore

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	WebhookEventStatusPending   = "pending"
	WebhookEventStatusDelivered = "delivered"
	WebhookEventStatusFailed    = "failed"
)

type webhookRecord struct {
	bun.BaseModel `bun:"table:webhooks,alias:wh"`

	ID          string     `bun:"id,pk"`
	UserID      string     `bun:"user_id,notnull"`
	URL         string     `bun:"url,notnull"`
	EventTypes  string     `bun:"event_types,notnull"`
	Filters     *string    `bun:"filters"`
	Secret      string     `bun:"secret,notnull"`
	IsActive    bool       `bun:"is_active,notnull"`
	CreatedAt   time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	LastFiredAt *time.Time `bun:"last_fired_at,nullzero"`
}

func newWebhookRecord(subscription core.Subscription, now time.Time) *webhookRecord {
	record := &webhookRecord{
		ID:         strings.TrimSpace(subscription.ID),
		UserID:     strings.TrimSpace(subscription.UserID),
		URL:        strings.TrimSpace(subscription.URL),
		EventTypes: subscription.EventTypes,
		Secret:     subscription.Secret,
		IsActive:   subscription.Active,
		CreatedAt:  subscription.CreatedAt.UTC(),
	}
	if subscription.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	if subscription.HasFilter() {
		filters := string(subscription.Filters)
		record.Filters = &filters
	}
	if subscription.LastFiredAt != nil {
		value := subscription.LastFiredAt.UTC()
		record.LastFiredAt = &value
	}
	return record
}

func (r *webhookRecord) toDomain() core.Subscription {
	if r == nil {
		return core.Subscription{}
	}
	out := core.Subscription{
		ID:         r.ID,
		UserID:     r.UserID,
		URL:        r.URL,
		EventTypes: r.EventTypes,
		Secret:     r.Secret,
		Active:     r.IsActive,
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.Filters != nil {
		out.Filters = json.RawMessage(*r.Filters)
	}
	if r.LastFiredAt != nil {
		value := r.LastFiredAt.UTC()
		out.LastFiredAt = &value
	}
	return out
}

// webhookEventRecord is a pending delivery queued for a webhook.
type webhookEventRecord struct {
	bun.BaseModel `bun:"table:webhook_events,alias:whe"`

	ID          string         `bun:"id,pk"`
	WebhookID   string         `bun:"webhook_id,notnull"`
	RequestID   string         `bun:"request_id,notnull"`
	EventType   string         `bun:"event_type,notnull"`
	Payload     map[string]any `bun:"payload,type:jsonb,notnull"`
	Status      string         `bun:"status,notnull"`
	Attempts    int            `bun:"attempts,notnull"`
	LastError   string         `bun:"last_error,notnull"`
	OccurredAt  time.Time      `bun:"occurred_at,notnull"`
	CreatedAt   time.Time      `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	DeliveredAt *time.Time     `bun:"delivered_at,nullzero"`
}

// WebhookEvent is the stored form of a queued delivery.
type WebhookEvent struct {
	ID          string
	WebhookID   string
	RequestID   string
	EventKind   core.EventKind
	Payload     map[string]any
	Status      string
	Attempts    int
	LastError   string
	OccurredAt  time.Time
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

func (r *webhookEventRecord) toDomain() WebhookEvent {
	if r == nil {
		return WebhookEvent{}
	}
	out := WebhookEvent{
		ID:         r.ID,
		WebhookID:  r.WebhookID,
		RequestID:  r.RequestID,
		EventKind:  core.EventKind(r.EventType),
		Payload:    copyAnyMap(r.Payload),
		Status:     r.Status,
		Attempts:   r.Attempts,
		LastError:  r.LastError,
		OccurredAt: r.OccurredAt.UTC(),
		CreatedAt:  r.CreatedAt.UTC(),
	}
	if r.DeliveredAt != nil {
		value := r.DeliveredAt.UTC()
		out.DeliveredAt = &value
	}
	return out
}

func copyAnyMap(input map[string]any) map[string]any {
	if len(input) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(input))
	for key, value := range input {
		out[key] = value
	}
	return out
}
