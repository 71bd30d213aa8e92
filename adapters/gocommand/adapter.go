package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	webhookscommand "github.com/goliatone/go-webhook-dispatch/command"
	"github.com/goliatone/go-webhook-dispatch/core"
)

// QueueResolverKey is the registry resolver that mirrors webhook commands
// into a go-job queue registry.
const QueueResolverKey = "queue"

// Bus registers the webhook commands on a go-command registry and the
// global dispatcher. Close releases the dispatcher subscriptions.
type Bus struct {
	registry      *command.Registry
	subscriptions []commanddispatcher.Subscription
}

func NewBus(registry *command.Registry) *Bus {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &Bus{registry: registry}
}

func (b *Bus) Registry() *command.Registry {
	if b == nil {
		return nil
	}
	return b.registry
}

// MirrorToQueue must be called before Initialize.
func (b *Bus) MirrorToQueue(queueRegistry *jobqueuecommand.Registry) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return b.registry.AddResolver(QueueResolverKey, jobqueuecommand.QueueResolver(queueRegistry))
}

func (b *Bus) RegisterDispatch(dispatcher webhookscommand.EventDispatcher, runnerOpts ...runner.Option) error {
	if dispatcher == nil {
		return fmt.Errorf("gocommand: webhook dispatcher is required")
	}
	return register(b, webhookscommand.NewDispatchEventCommand(dispatcher), runnerOpts...)
}

func (b *Bus) RegisterInvalidate(invalidator webhookscommand.SubscriptionInvalidator, runnerOpts ...runner.Option) error {
	if invalidator == nil {
		return fmt.Errorf("gocommand: subscription invalidator is required")
	}
	return register(b, webhookscommand.NewInvalidateSubscriptionsCommand(invalidator), runnerOpts...)
}

func (b *Bus) Initialize() error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return b.registry.Initialize()
}

func (b *Bus) Close() {
	if b == nil {
		return
	}
	for _, subscription := range b.subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
	b.subscriptions = nil
}

// DispatchEvent sends event through the command dispatcher and returns the
// report stored by the dispatch command.
func DispatchEvent(ctx context.Context, event core.Event) (core.DispatchReport, error) {
	msg := webhookscommand.DispatchEventMessage{Event: event}
	if err := ValidateMessageContract(msg); err != nil {
		return core.DispatchReport{}, err
	}
	collector := command.NewResult[core.DispatchReport]()
	err := commanddispatcher.Dispatch(command.ContextWithResult(ctx, collector), msg)
	report, _ := collector.Load()
	return report, err
}

// InvalidateSubscriptions sends an invalidation for kinds, or every kind.
func InvalidateSubscriptions(ctx context.Context, kinds ...core.EventKind) error {
	msg := webhookscommand.InvalidateSubscriptionsMessage{Kinds: kinds}
	if err := ValidateMessageContract(msg); err != nil {
		return err
	}
	return commanddispatcher.Dispatch(ctx, msg)
}

// ValidateMessageContract enforces Type() plus the optional Validate().
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

func register[T any](b *Bus, cmd command.Commander[T], runnerOpts ...runner.Option) error {
	if b == nil || b.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	subscription := commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
	if err := b.registry.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return err
	}
	b.subscriptions = append(b.subscriptions, subscription)
	return nil
}
