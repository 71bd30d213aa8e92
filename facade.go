package dispatch

import (
	"context"
	"fmt"

	webhookscommand "github.com/goliatone/go-webhook-dispatch/command"
	"github.com/goliatone/go-webhook-dispatch/core"
	webhooksquery "github.com/goliatone/go-webhook-dispatch/query"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

type Commands struct {
	DispatchEvent           *webhookscommand.DispatchEventCommand
	InvalidateSubscriptions *webhookscommand.InvalidateSubscriptionsCommand
}

// Queries entries are nil when the reader does not support them.
type Queries struct {
	GetSubscription          *webhooksquery.GetSubscriptionQuery
	ListSubscriptionsByUser  *webhooksquery.ListSubscriptionsByUserQuery
	ListSubscriptionsForKind *webhooksquery.ListSubscriptionsForKindQuery
}

// Facade bundles a dispatcher with the command and query handlers built on
// it.
type Facade struct {
	dispatcher *webhooks.Dispatcher
	commands   Commands
	queries    Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	invalidator webhookscommand.SubscriptionInvalidator
}

// WithSubscriptionInvalidator overrides the invalidator otherwise taken from
// the reader when it implements one.
func WithSubscriptionInvalidator(invalidator webhookscommand.SubscriptionInvalidator) FacadeOption {
	return func(options *facadeOptions) {
		options.invalidator = invalidator
	}
}

func NewFacade(
	reader core.SubscriptionReader,
	handoff core.DeliveryHandoff,
	dispatcherOpts []webhooks.Option,
	opts ...FacadeOption,
) (*Facade, error) {
	dispatcher, err := webhooks.NewDispatcher(reader, handoff, dispatcherOpts...)
	if err != nil {
		return nil, err
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	invalidator := cfg.invalidator
	if invalidator == nil {
		invalidator, _ = reader.(webhookscommand.SubscriptionInvalidator)
	}

	facade := &Facade{dispatcher: dispatcher}
	facade.commands.DispatchEvent = webhookscommand.NewDispatchEventCommand(dispatcher)
	if invalidator != nil {
		facade.commands.InvalidateSubscriptions = webhookscommand.NewInvalidateSubscriptionsCommand(invalidator)
	}
	facade.queries.ListSubscriptionsForKind = webhooksquery.NewListSubscriptionsForKindQuery(reader)
	if getter, ok := reader.(webhooksquery.SubscriptionGetter); ok {
		facade.queries.GetSubscription = webhooksquery.NewGetSubscriptionQuery(getter)
	}
	if lister, ok := reader.(webhooksquery.UserSubscriptionLister); ok {
		facade.queries.ListSubscriptionsByUser = webhooksquery.NewListSubscriptionsByUserQuery(lister)
	}
	return facade, nil
}

func (f *Facade) Dispatcher() *webhooks.Dispatcher {
	if f == nil {
		return nil
	}
	return f.dispatcher
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Dispatch(ctx context.Context, event core.Event) (core.DispatchReport, error) {
	if f == nil || f.dispatcher == nil {
		return core.DispatchReport{}, fmt.Errorf("dispatch: facade is not configured")
	}
	return f.dispatcher.Dispatch(ctx, event)
}
