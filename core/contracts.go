package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// SubscriptionReader returns every subscription, active or not, whose
// subscribed-kind set contains kind. Implementations must not filter by
// active flag or predicate.
type SubscriptionReader interface {
	SubscriptionsForKind(ctx context.Context, kind EventKind) ([]Subscription, error)
}

// DeliveryHandoff accepts a matched delivery request. Returning nil means
// the delivery subsystem took ownership of the request.
type DeliveryHandoff interface {
	Submit(ctx context.Context, req DeliveryRequest) error
}

// HandoffFunc adapts a function to DeliveryHandoff. A nil func fails every
// submit.
type HandoffFunc func(ctx context.Context, req DeliveryRequest) error

func (f HandoffFunc) Submit(ctx context.Context, req DeliveryRequest) error {
	if f == nil {
		return NewInternalError("delivery handoff func is nil")
	}
	return f(ctx, req)
}

// DispatchObserver receives "last dispatched" observations for a store to
// persist.
type DispatchObserver interface {
	RecordDispatched(ctx context.Context, subscriptionID string, at time.Time) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

var _ DeliveryHandoff = HandoffFunc(nil)
