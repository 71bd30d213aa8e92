package query

import (
	"context"
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

type SubscriptionGetter interface {
	Get(ctx context.Context, id string) (core.Subscription, error)
}

type UserSubscriptionLister interface {
	ListByUser(ctx context.Context, userID string) ([]core.Subscription, error)
}

type GetSubscriptionQuery struct {
	getter SubscriptionGetter
}

func NewGetSubscriptionQuery(getter SubscriptionGetter) *GetSubscriptionQuery {
	return &GetSubscriptionQuery{getter: getter}
}

func (q *GetSubscriptionQuery) Query(ctx context.Context, msg GetSubscriptionMessage) (core.Subscription, error) {
	if q == nil || q.getter == nil {
		return core.Subscription{}, queryDependencyError("query: subscription getter is required")
	}
	if err := msg.Validate(); err != nil {
		return core.Subscription{}, err
	}
	return q.getter.Get(ctx, strings.TrimSpace(msg.SubscriptionID))
}

type ListSubscriptionsByUserQuery struct {
	lister UserSubscriptionLister
}

func NewListSubscriptionsByUserQuery(lister UserSubscriptionLister) *ListSubscriptionsByUserQuery {
	return &ListSubscriptionsByUserQuery{lister: lister}
}

func (q *ListSubscriptionsByUserQuery) Query(ctx context.Context, msg ListSubscriptionsByUserMessage) ([]core.Subscription, error) {
	if q == nil || q.lister == nil {
		return nil, queryDependencyError("query: user subscription lister is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.lister.ListByUser(ctx, strings.TrimSpace(msg.UserID))
}

type ListSubscriptionsForKindQuery struct {
	reader core.SubscriptionReader
}

func NewListSubscriptionsForKindQuery(reader core.SubscriptionReader) *ListSubscriptionsForKindQuery {
	return &ListSubscriptionsForKindQuery{reader: reader}
}

func (q *ListSubscriptionsForKindQuery) Query(ctx context.Context, msg ListSubscriptionsForKindMessage) ([]core.Subscription, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: subscription reader is required")
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return q.reader.SubscriptionsForKind(ctx, msg.Kind)
}
