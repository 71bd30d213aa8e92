package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// SubscriptionInvalidator drops cached per-kind reads.
type SubscriptionInvalidator interface {
	Invalidate(ctx context.Context, kinds ...core.EventKind) error
}

// SubscriptionStore reads and writes the webhooks table.
type SubscriptionStore struct {
	db          *bun.DB
	repo        repository.Repository[*webhookRecord]
	now         func() time.Time
	invalidator SubscriptionInvalidator
}

func NewSubscriptionStore(db *bun.DB) (*SubscriptionStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*webhookRecord](db, webhookHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid webhook repository wiring: %w", err)
		}
	}
	return &SubscriptionStore{
		db:   db,
		repo: repo,
		now: func() time.Time {
			return time.Now().UTC()
		},
	}, nil
}

// SetInvalidator registers the cache that Create and SetActive flush for
// the kinds of the row they touch.
func (s *SubscriptionStore) SetInvalidator(invalidator SubscriptionInvalidator) {
	if s == nil {
		return
	}
	s.invalidator = invalidator
}

// Create registers a subscription. A blank id is replaced by a new uuid.
func (s *SubscriptionStore) Create(ctx context.Context, subscription core.Subscription) (core.Subscription, error) {
	if s == nil || s.repo == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	if strings.TrimSpace(subscription.UserID) == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription user id is required")
	}
	if strings.TrimSpace(subscription.URL) == "" {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription url is required")
	}
	record := newWebhookRecord(subscription, s.now())
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		return core.Subscription{}, err
	}
	out := created.toDomain()
	if err := s.invalidate(ctx, out.Kinds()); err != nil {
		return out, err
	}
	return out, nil
}

func (s *SubscriptionStore) Get(ctx context.Context, id string) (core.Subscription, error) {
	if s == nil || s.repo == nil {
		return core.Subscription{}, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	record, err := s.repo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return core.Subscription{}, err
	}
	return record.toDomain(), nil
}

// SubscriptionsForKind narrows candidates with LIKE and re-checks every row
// with the kind parser, so a token such as PaymentCreatedV2 never matches
// PaymentCreated. Inactive rows are returned.
func (s *SubscriptionStore) SubscriptionsForKind(ctx context.Context, kind core.EventKind) ([]core.Subscription, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	if !kind.Valid() {
		return []core.Subscription{}, nil
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.event_types LIKE ?", "%"+kind.String()+"%")
		}),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlstore: select webhooks for %s: %w", kind, err)
	}
	out := make([]core.Subscription, 0, len(records))
	for _, record := range records {
		subscription := record.toDomain()
		if !subscription.Subscribes(kind) {
			continue
		}
		out = append(out, subscription)
	}
	return out, nil
}

func (s *SubscriptionStore) ListByUser(ctx context.Context, userID string) ([]core.Subscription, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("sqlstore: subscription store is not configured")
	}
	records, _, err := s.repo.List(ctx,
		repository.SelectBy("user_id", "=", strings.TrimSpace(userID)),
		repository.OrderBy("created_at ASC"),
	)
	if err != nil {
		return nil, err
	}
	out := make([]core.Subscription, 0, len(records))
	for _, record := range records {
		out = append(out, record.toDomain())
	}
	return out, nil
}

func (s *SubscriptionStore) SetActive(ctx context.Context, id string, active bool) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: subscription store is not configured")
	}
	if err := s.updateColumn(ctx, id, "is_active", active); err != nil {
		return err
	}
	if s.invalidator == nil {
		return nil
	}
	var kinds []core.EventKind
	if current, err := s.Get(ctx, id); err == nil {
		kinds = current.Kinds()
	}
	if len(kinds) == 0 {
		kinds = core.EventKinds()
	}
	return s.invalidate(ctx, kinds)
}

func (s *SubscriptionStore) invalidate(ctx context.Context, kinds []core.EventKind) error {
	if s.invalidator == nil || len(kinds) == 0 {
		return nil
	}
	if err := s.invalidator.Invalidate(ctx, kinds...); err != nil {
		return fmt.Errorf("sqlstore: invalidate subscription cache: %w", err)
	}
	return nil
}

// RecordDispatched persists the last successful handoff time.
func (s *SubscriptionStore) RecordDispatched(ctx context.Context, subscriptionID string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: subscription store is not configured")
	}
	return s.updateColumn(ctx, subscriptionID, "last_fired_at", at.UTC())
}

func (s *SubscriptionStore) updateColumn(ctx context.Context, id string, column string, value any) error {
	trimmedID := strings.TrimSpace(id)
	if trimmedID == "" {
		return fmt.Errorf("sqlstore: subscription id is required")
	}
	result, err := s.db.NewUpdate().
		Model((*webhookRecord)(nil)).
		Set("? = ?", bun.Ident(column), value).
		Where("id = ?", trimmedID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if affected, affectedErr := result.RowsAffected(); affectedErr == nil && affected == 0 {
		return fmt.Errorf("sqlstore: subscription %q not found", trimmedID)
	}
	return nil
}
