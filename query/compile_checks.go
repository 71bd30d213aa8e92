package query

import (
	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-webhook-dispatch/core"
)

var (
	_ gocmd.Querier[GetSubscriptionMessage, core.Subscription]            = (*GetSubscriptionQuery)(nil)
	_ gocmd.Querier[ListSubscriptionsByUserMessage, []core.Subscription]  = (*ListSubscriptionsByUserQuery)(nil)
	_ gocmd.Querier[ListSubscriptionsForKindMessage, []core.Subscription] = (*ListSubscriptionsForKindQuery)(nil)
)
