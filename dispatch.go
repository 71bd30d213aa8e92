package dispatch

import (
	"github.com/goliatone/go-webhook-dispatch/core"
	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

type Config = core.Config

type Event = core.Event
type EventKind = core.EventKind

type Subscription = core.Subscription
type DeliveryRequest = core.DeliveryRequest
type DispatchReport = core.DispatchReport
type DispatchResult = core.DispatchResult

type SubscriptionReader = core.SubscriptionReader
type DeliveryHandoff = core.DeliveryHandoff
type DispatchObserver = core.DispatchObserver
type MetricsRecorder = core.MetricsRecorder

type Dispatcher = webhooks.Dispatcher
type Option = webhooks.Option

var (
	WithLogger             = webhooks.WithLogger
	WithLoggerProvider     = webhooks.WithLoggerProvider
	WithMetricsRecorder    = webhooks.WithMetricsRecorder
	WithObserver           = webhooks.WithObserver
	WithMaxConcurrency     = webhooks.WithMaxConcurrency
	WithConfig             = webhooks.WithConfig
	WithTracer             = webhooks.WithTracer
	WithClock              = webhooks.WithClock
	WithRequestIDGenerator = webhooks.WithRequestIDGenerator
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewDispatcher(reader SubscriptionReader, handoff DeliveryHandoff, opts ...Option) (*Dispatcher, error) {
	return webhooks.NewDispatcher(reader, handoff, opts...)
}
