package sqlstore

import "github.com/goliatone/go-webhook-dispatch/core"

var (
	_ core.SubscriptionReader = (*SubscriptionStore)(nil)
	_ core.DispatchObserver   = (*SubscriptionStore)(nil)
	_ core.SubscriptionReader = (*CachedSubscriptionReader)(nil)
	_ core.DeliveryHandoff    = (*DeliveryOutboxStore)(nil)

	_ SubscriptionInvalidator = (*CachedSubscriptionReader)(nil)
)
