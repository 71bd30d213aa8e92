package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Telemetry bundles the logger and metrics recorder used by dispatch
// components. The zero value is silent.
type Telemetry struct {
	Logger  Logger
	Metrics MetricsRecorder
}

// ObserveOperation records <prefix>.<operation>.total and duration metrics
// and logs the outcome with the given fields.
func (t Telemetry) ObserveOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	elapsed := time.Since(startedAt).Milliseconds()
	contextFields := cloneFields(fields)
	contextFields["operation"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = elapsed
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	if value := strings.TrimSpace(fmt.Sprint(contextFields["event_kind"])); value != "" && value != "<nil>" {
		tags["event_kind"] = value
	}

	t.Counter(ctx, "webhooks."+operation+".total", 1, tags)
	t.Histogram(ctx, "webhooks."+operation+".duration_ms", float64(elapsed), tags)

	if err != nil {
		t.LogError(ctx, operation+" failed", contextFields)
		return
	}
	t.LogInfo(ctx, operation+" succeeded", contextFields)
}

func (t Telemetry) LogInfo(ctx context.Context, message string, fields map[string]any) {
	t.logWithLevel(ctx, "info", message, fields)
}

func (t Telemetry) LogWarn(ctx context.Context, message string, fields map[string]any) {
	t.logWithLevel(ctx, "warn", message, fields)
}

func (t Telemetry) LogError(ctx context.Context, message string, fields map[string]any) {
	t.logWithLevel(ctx, "error", message, fields)
}

func (t Telemetry) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if t.Logger == nil {
		return
	}
	logger := t.Logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (t Telemetry) Counter(ctx context.Context, name string, value int64, tags map[string]string) {
	if t.Metrics == nil {
		return
	}
	t.Metrics.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (t Telemetry) Histogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if t.Metrics == nil {
		return
	}
	t.Metrics.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
