package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// DeliveryOutboxStore is a DeliveryHandoff that queues each request as a
// pending row in webhook_events for an external delivery worker.
type DeliveryOutboxStore struct {
	db   *bun.DB
	repo repository.Repository[*webhookEventRecord]
	now  func() time.Time
}

func NewDeliveryOutboxStore(db *bun.DB) (*DeliveryOutboxStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookEventRecord](db, webhookEventHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook event repository wiring: %w", err)
		}
	}
	return &DeliveryOutboxStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// Submit stores req as a pending event. Resubmitting the same request id
// is a no-op.
func (s *DeliveryOutboxStore) Submit(ctx context.Context, req core.DeliveryRequest) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery outbox store is not configured")
	}
	subscriptionID := strings.TrimSpace(req.SubscriptionID)
	if subscriptionID == "" {
		return fmt.Errorf("sqlstore: subscription id is required")
	}
	requestID := strings.TrimSpace(req.ID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	occurredAt := req.OccurredAt.UTC()
	if req.OccurredAt.IsZero() {
		occurredAt = s.now()
	}

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		existing := &webhookEventRecord{}
		err := tx.NewSelect().
			Model(existing).
			Where("?TableAlias.request_id = ?", requestID).
			Limit(1).
			Scan(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		record := &webhookEventRecord{
			ID:         uuid.NewString(),
			WebhookID:  subscriptionID,
			RequestID:  requestID,
			EventType:  req.EventKind.String(),
			Payload:    copyAnyMap(req.Payload),
			Status:     WebhookEventStatusPending,
			OccurredAt: occurredAt,
			CreatedAt:  s.now(),
		}
		_, err = tx.NewInsert().Model(record).Exec(ctx)
		return err
	})
}

// ListPending returns up to limit pending events, oldest first.
func (s *DeliveryOutboxStore) ListPending(ctx context.Context, limit int) ([]WebhookEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: delivery outbox store is not configured")
	}
	if limit <= 0 {
		limit = 100
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("status", "=", WebhookEventStatusPending),
		repository.OrderBy("created_at ASC"),
		repository.SelectPaginate(limit, 0),
	)
	if err != nil {
		return nil, err
	}
	out := make([]WebhookEvent, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *DeliveryOutboxStore) ListByWebhook(ctx context.Context, webhookID string) ([]WebhookEvent, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: delivery outbox store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("webhook_id", "=", strings.TrimSpace(webhookID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]WebhookEvent, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *DeliveryOutboxStore) MarkDelivered(ctx context.Context, id string) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery outbox store is not configured")
	}
	result, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", WebhookEventStatusDelivered).
		Set("attempts = attempts + 1").
		Set("last_error = ?", "").
		Set("delivered_at = ?", s.now()).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	return requireAffected(result, err, id)
}

func (s *DeliveryOutboxStore) MarkFailed(ctx context.Context, id string, cause error) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: delivery outbox store is not configured")
	}
	message := ""
	if cause != nil {
		message = cause.Error()
	}
	result, err := s.db.NewUpdate().
		Model((*webhookEventRecord)(nil)).
		Set("status = ?", WebhookEventStatusFailed).
		Set("attempts = attempts + 1").
		Set("last_error = ?", message).
		Where("id = ?", strings.TrimSpace(id)).
		Exec(ctx)
	return requireAffected(result, err, id)
}

func requireAffected(result sql.Result, err error, id string) error {
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return fmt.Errorf("sqlstore: webhook event %q not found", strings.TrimSpace(id))
	}
	return nil
}
