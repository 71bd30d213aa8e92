package command

import (
	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	TypeDispatchEvent           = "webhooks.command.dispatch"
	TypeInvalidateSubscriptions = "webhooks.command.subscriptions.invalidate"
)

// DispatchEventMessage carries one domain event to the dispatcher.
type DispatchEventMessage struct {
	Event core.Event
}

func (DispatchEventMessage) Type() string { return TypeDispatchEvent }

func (m DispatchEventMessage) Validate() error {
	if m.Event == nil {
		return commandValidationError("event", "event is required")
	}
	return nil
}

// InvalidateSubscriptionsMessage drops cached subscription reads after a
// webhook row changes. No kinds means every kind.
type InvalidateSubscriptionsMessage struct {
	Kinds []core.EventKind
}

func (InvalidateSubscriptionsMessage) Type() string { return TypeInvalidateSubscriptions }

func (m InvalidateSubscriptionsMessage) Validate() error {
	for _, kind := range m.Kinds {
		if !kind.Valid() {
			return commandValidationError("kinds", "unknown event kind "+kind.String())
		}
	}
	return nil
}
