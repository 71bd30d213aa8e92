package core

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"
)

type capturedCounter struct {
	name  string
	value int64
	tags  map[string]string
}

type capturedHistogram struct {
	name  string
	value float64
	tags  map[string]string
}

type captureMetricsRecorder struct {
	mu         sync.Mutex
	counters   []capturedCounter
	histograms []capturedHistogram
}

func (m *captureMetricsRecorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters = append(m.counters, capturedCounter{name: name, value: value, tags: cloneTags(tags)})
}

func (m *captureMetricsRecorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.histograms = append(m.histograms, capturedHistogram{name: name, value: value, tags: cloneTags(tags)})
}

type capturedLog struct {
	level  string
	msg    string
	fields map[string]any
}

type captureLogger struct {
	mu       *sync.Mutex
	records  *[]capturedLog
	defaults map[string]any
}

func newCaptureLogger() *captureLogger {
	records := []capturedLog{}
	return &captureLogger{mu: &sync.Mutex{}, records: &records, defaults: map[string]any{}}
}

func (l *captureLogger) WithFields(fields map[string]any) Logger {
	merged := cloneFields(l.defaults)
	for key, value := range fields {
		merged[key] = value
	}
	return &captureLogger{mu: l.mu, records: l.records, defaults: merged}
}

func (l *captureLogger) Trace(msg string, args ...any) { l.record("trace", msg, args...) }
func (l *captureLogger) Debug(msg string, args ...any) { l.record("debug", msg, args...) }
func (l *captureLogger) Info(msg string, args ...any)  { l.record("info", msg, args...) }
func (l *captureLogger) Warn(msg string, args ...any)  { l.record("warn", msg, args...) }
func (l *captureLogger) Error(msg string, args ...any) { l.record("error", msg, args...) }
func (l *captureLogger) Fatal(msg string, args ...any) { l.record("fatal", msg, args...) }

func (l *captureLogger) WithContext(context.Context) Logger {
	return &captureLogger{mu: l.mu, records: l.records, defaults: cloneFields(l.defaults)}
}

func (l *captureLogger) record(level string, msg string, args ...any) {
	fields := cloneFields(l.defaults)
	for index := 0; index+1 < len(args); index += 2 {
		key, ok := args[index].(string)
		if !ok {
			continue
		}
		fields[key] = args[index+1]
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.records = append(*l.records, capturedLog{level: level, msg: msg, fields: fields})
}

func (l *captureLogger) snapshot() []capturedLog {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]capturedLog, len(*l.records))
	copy(out, *l.records)
	return out
}

func hasCounter(items []capturedCounter, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasHistogram(items []capturedHistogram, name string, status string) bool {
	for _, item := range items {
		if item.name == name && item.tags["status"] == status {
			return true
		}
	}
	return false
}

func hasLog(items []capturedLog, level string, message string) (capturedLog, bool) {
	for _, item := range items {
		if item.level == level && item.msg == message {
			return item, true
		}
	}
	return capturedLog{}, false
}

func TestTelemetryObserveOperation_Success(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	telemetry := Telemetry{Logger: logger, Metrics: metrics}

	telemetry.ObserveOperation(context.Background(), time.Now(), "Dispatch", nil, map[string]any{
		"event_kind": EventKindPaymentCreated,
		"matched":    2,
	})

	if !hasCounter(metrics.counters, "webhooks.dispatch.total", "success") {
		t.Fatalf("expected webhooks.dispatch.total success counter")
	}
	if !hasHistogram(metrics.histograms, "webhooks.dispatch.duration_ms", "success") {
		t.Fatalf("expected webhooks.dispatch.duration_ms histogram")
	}
	if metrics.counters[0].tags["event_kind"] != "PaymentCreated" {
		t.Fatalf("expected event_kind tag, got %#v", metrics.counters[0].tags)
	}
	record, ok := hasLog(logger.snapshot(), "info", "dispatch succeeded")
	if !ok {
		t.Fatalf("expected dispatch succeeded log")
	}
	if record.fields["matched"] != 2 || record.fields["operation"] != "dispatch" {
		t.Fatalf("expected structured fields, got %#v", record.fields)
	}
}

func TestTelemetryObserveOperation_Failure(t *testing.T) {
	metrics := &captureMetricsRecorder{}
	logger := newCaptureLogger()
	telemetry := Telemetry{Logger: logger, Metrics: metrics}

	telemetry.ObserveOperation(context.Background(), time.Now(), "select subscriptions", stderrors.New("db down"), nil)

	if !hasCounter(metrics.counters, "webhooks.select_subscriptions.total", "failure") {
		t.Fatalf("expected failure counter, got %#v", metrics.counters)
	}
	if _, ok := metrics.counters[0].tags["event_kind"]; ok {
		t.Fatalf("did not expect event_kind tag without field")
	}
	record, ok := hasLog(logger.snapshot(), "error", "select_subscriptions failed")
	if !ok {
		t.Fatalf("expected failure log")
	}
	if record.fields["error"] != "db down" {
		t.Fatalf("expected error field, got %#v", record.fields)
	}
}

func TestTelemetry_ZeroValueIsSilent(t *testing.T) {
	Telemetry{}.ObserveOperation(context.Background(), time.Now(), "dispatch", nil, nil)
	Telemetry{}.LogWarn(context.Background(), "ignored", map[string]any{"k": "v"})
}
