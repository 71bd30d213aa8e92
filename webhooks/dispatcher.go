package webhooks

import (
	"context"
	"fmt"
	"strings"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/goliatone/go-webhook-dispatch/core"
)

const (
	tracerName        = "github.com/goliatone/go-webhook-dispatch/webhooks"
	defaultLoggerName = "webhooks"
)

type Option func(*Dispatcher)

func WithLogger(logger core.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(d *Dispatcher) {
		d.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(d *Dispatcher) {
		d.metrics = recorder
	}
}

// WithObserver registers the sink for "last dispatched" observations.
func WithObserver(observer core.DispatchObserver) Option {
	return func(d *Dispatcher) {
		d.observer = observer
	}
}

func WithMaxConcurrency(limit int) Option {
	return func(d *Dispatcher) {
		d.maxConcurrency = limit
	}
}

// WithConfig applies the dispatch section of cfg and names the logger after
// cfg.ServiceName.
func WithConfig(cfg core.Config) Option {
	return func(d *Dispatcher) {
		d.maxConcurrency = cfg.Dispatch.Concurrency()
		if name := strings.TrimSpace(cfg.ServiceName); name != "" {
			d.loggerName = name
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Dispatcher) {
		d.tracer = tracer
	}
}

func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

func WithRequestIDGenerator(next func() string) Option {
	return func(d *Dispatcher) {
		d.nextID = next
	}
}

// Dispatcher routes domain events to matching subscriptions and hands each
// match to the delivery subsystem. It keeps no state between calls and is
// safe for concurrent use.
type Dispatcher struct {
	reader         core.SubscriptionReader
	handoff        core.DeliveryHandoff
	observer       core.DispatchObserver
	logger         core.Logger
	loggerProvider core.LoggerProvider
	loggerName     string
	metrics        core.MetricsRecorder
	tracer         trace.Tracer
	maxConcurrency int
	now            func() time.Time
	nextID         func() string
	telemetry      core.Telemetry
}

func NewDispatcher(reader core.SubscriptionReader, handoff core.DeliveryHandoff, opts ...Option) (*Dispatcher, error) {
	if reader == nil {
		return nil, fmt.Errorf("webhooks: subscription reader is required")
	}
	if handoff == nil {
		return nil, fmt.Errorf("webhooks: delivery handoff is required")
	}
	if fn, ok := handoff.(core.HandoffFunc); ok && fn == nil {
		return nil, fmt.Errorf("webhooks: delivery handoff func is nil")
	}
	d := &Dispatcher{
		reader:         reader,
		handoff:        handoff,
		maxConcurrency: core.DefaultMaxConcurrency,
		loggerName:     defaultLoggerName,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(d)
	}

	provider, logger := glog.Resolve(d.loggerName, d.loggerProvider, d.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger(d.loggerName); named != nil {
			logger = glog.Ensure(named)
		}
	}
	d.logger = logger
	d.loggerProvider = provider

	if d.metrics == nil {
		d.metrics = core.NopMetricsRecorder{}
	}
	if d.tracer == nil {
		d.tracer = otel.Tracer(tracerName)
	}
	if d.maxConcurrency <= 0 {
		d.maxConcurrency = core.DefaultMaxConcurrency
	}
	if d.now == nil {
		d.now = func() time.Time {
			return time.Now().UTC()
		}
	}
	if d.nextID == nil {
		d.nextID = uuid.NewString
	}
	d.telemetry = core.Telemetry{Logger: d.logger, Metrics: d.metrics}
	return d, nil
}

// Dispatch selects the subscriptions for event, evaluates their filters and
// submits one delivery request per match. Handoff failures are recorded per
// result and never abort sibling handoffs; only a selection failure or an
// invalid event returns an error. Dispatch returns after every handoff it
// started has finished.
func (d *Dispatcher) Dispatch(ctx context.Context, event core.Event) (report core.DispatchReport, err error) {
	if d == nil {
		return core.DispatchReport{}, core.NewInternalError("webhooks: dispatcher is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	startedAt := time.Now()
	fields := map[string]any{}
	defer func() {
		fields["candidates"] = report.Candidates
		fields["inactive"] = report.Inactive
		fields["filtered"] = report.Filtered
		fields["handed_off"] = report.HandedOff
		fields["failed"] = report.Failed
		d.telemetry.ObserveOperation(ctx, startedAt, "dispatch", err, fields)
	}()

	kind, payload, body, err := core.EncodePayload(event)
	if err != nil {
		return core.DispatchReport{}, core.NewBadInputError(err.Error())
	}
	fields["event_kind"] = kind
	report.EventKind = kind

	ctx, span := d.tracer.Start(ctx, "webhooks.dispatch",
		trace.WithAttributes(attribute.String("webhooks.event_kind", kind.String())),
	)
	defer span.End()

	subscriptions, err := d.reader.SubscriptionsForKind(ctx, kind)
	if err != nil {
		err = core.NewSelectionError(kind, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "subscription selection failed")
		return core.DispatchReport{EventKind: kind}, err
	}

	matched := make([]core.Subscription, 0, len(subscriptions))
	for _, subscription := range subscriptions {
		if !subscription.Subscribes(kind) {
			continue
		}
		report.Candidates++
		if !subscription.Active {
			report.Inactive++
			continue
		}
		if !MatchesRaw(payload, subscription.Filters) {
			report.Filtered++
			continue
		}
		matched = append(matched, subscription)
	}

	occurredAt := d.now()
	report.Results = d.handOff(ctx, kind, payload, body, occurredAt, matched)
	for _, result := range report.Results {
		if result.HandedOff() {
			report.HandedOff++
			continue
		}
		report.Failed++
	}

	span.SetAttributes(
		attribute.Int("webhooks.candidates", report.Candidates),
		attribute.Int("webhooks.handed_off", report.HandedOff),
		attribute.Int("webhooks.failed", report.Failed),
	)
	if report.Failed > 0 {
		span.SetStatus(codes.Error, "one or more handoffs failed")
	}
	return report, nil
}

// handOff fans the matched subscriptions out to the delivery handoff with
// at most maxConcurrency submits in flight. Each worker owns one slot of
// the result slice.
func (d *Dispatcher) handOff(
	ctx context.Context,
	kind core.EventKind,
	payload map[string]any,
	body []byte,
	occurredAt time.Time,
	matched []core.Subscription,
) []core.DispatchResult {
	results := make([]core.DispatchResult, len(matched))
	if len(matched) == 0 {
		return results
	}

	var group errgroup.Group
	group.SetLimit(d.maxConcurrency)
	for index, subscription := range matched {
		group.Go(func() error {
			req := core.DeliveryRequest{
				ID:             d.nextID(),
				SubscriptionID: subscription.ID,
				URL:            subscription.URL,
				EventKind:      kind,
				Payload:        payload,
				Body:           append([]byte(nil), body...),
				OccurredAt:     occurredAt,
			}
			results[index] = d.submit(ctx, req)
			return nil
		})
	}
	_ = group.Wait()
	return results
}

func (d *Dispatcher) submit(ctx context.Context, req core.DeliveryRequest) core.DispatchResult {
	result := core.DispatchResult{
		SubscriptionID: req.SubscriptionID,
		EventKind:      req.EventKind,
		RequestID:      req.ID,
		Status:         core.DispatchStatusHandedOff,
	}
	fields := map[string]any{
		"event_kind":      req.EventKind,
		"subscription_id": req.SubscriptionID,
		"request_id":      req.ID,
	}
	tags := map[string]string{"event_kind": req.EventKind.String()}

	err := ctx.Err()
	if err == nil {
		err = d.handoff.Submit(ctx, req)
	}
	if err != nil {
		result.Status = core.DispatchStatusHandoffFailed
		result.Err = core.NewHandoffError(req.EventKind, req.SubscriptionID, err)
		tags["status"] = "failure"
		fields["error"] = err.Error()
		d.telemetry.Counter(ctx, "webhooks.handoff.total", 1, tags)
		d.telemetry.LogError(ctx, "webhook handoff failed", fields)
		return result
	}

	tags["status"] = "success"
	d.telemetry.Counter(ctx, "webhooks.handoff.total", 1, tags)
	d.telemetry.LogInfo(ctx, "webhook handed off", fields)

	if d.observer != nil {
		if observeErr := d.observer.RecordDispatched(ctx, req.SubscriptionID, d.now()); observeErr != nil {
			fields["error"] = observeErr.Error()
			d.telemetry.LogWarn(ctx, "record dispatched failed", fields)
		}
	}
	return result
}
