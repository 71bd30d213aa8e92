package query

import (
	"strings"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	TypeGetSubscription          = "webhooks.query.subscription.get"
	TypeListSubscriptionsByUser  = "webhooks.query.subscription.list_by_user"
	TypeListSubscriptionsForKind = "webhooks.query.subscription.list_for_kind"
)

type GetSubscriptionMessage struct {
	SubscriptionID string
}

func (GetSubscriptionMessage) Type() string { return TypeGetSubscription }

func (m GetSubscriptionMessage) Validate() error {
	if strings.TrimSpace(m.SubscriptionID) == "" {
		return queryValidationError("subscription_id", "subscription id is required")
	}
	return nil
}

type ListSubscriptionsByUserMessage struct {
	UserID string
}

func (ListSubscriptionsByUserMessage) Type() string { return TypeListSubscriptionsByUser }

func (m ListSubscriptionsByUserMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

// ListSubscriptionsForKindMessage lists every subscription, active or not,
// that names Kind.
type ListSubscriptionsForKindMessage struct {
	Kind core.EventKind
}

func (ListSubscriptionsForKindMessage) Type() string { return TypeListSubscriptionsForKind }

func (m ListSubscriptionsForKindMessage) Validate() error {
	if !m.Kind.Valid() {
		return queryValidationError("kind", "unknown event kind "+m.Kind.String())
	}
	return nil
}
