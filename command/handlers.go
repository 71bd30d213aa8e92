package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-webhook-dispatch/core"
)

type EventDispatcher interface {
	Dispatch(ctx context.Context, event core.Event) (core.DispatchReport, error)
}

type SubscriptionInvalidator interface {
	Invalidate(ctx context.Context, kinds ...core.EventKind) error
}

type DispatchEventCommand struct {
	dispatcher EventDispatcher
}

func NewDispatchEventCommand(dispatcher EventDispatcher) *DispatchEventCommand {
	return &DispatchEventCommand{dispatcher: dispatcher}
}

// Execute stores the dispatch report in the context result collector even
// when dispatch fails, so callers can inspect partial outcomes.
func (c *DispatchEventCommand) Execute(ctx context.Context, msg DispatchEventMessage) error {
	if c == nil || c.dispatcher == nil {
		return commandDependencyError("command: webhook dispatcher is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	report, err := c.dispatcher.Dispatch(ctx, msg.Event)
	storeResult(ctx, report)
	return err
}

type InvalidateSubscriptionsCommand struct {
	invalidator SubscriptionInvalidator
}

func NewInvalidateSubscriptionsCommand(invalidator SubscriptionInvalidator) *InvalidateSubscriptionsCommand {
	return &InvalidateSubscriptionsCommand{invalidator: invalidator}
}

func (c *InvalidateSubscriptionsCommand) Execute(ctx context.Context, msg InvalidateSubscriptionsMessage) error {
	if c == nil || c.invalidator == nil {
		return commandDependencyError("command: subscription invalidator is required")
	}
	if err := msg.Validate(); err != nil {
		return err
	}
	if err := c.invalidator.Invalidate(ctx, msg.Kinds...); err != nil {
		return commandWrapInternal(err, "command: invalidate subscriptions")
	}
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
