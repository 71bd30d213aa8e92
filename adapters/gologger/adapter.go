package gologger

import (
	"strings"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-webhook-dispatch/webhooks"
)

// DefaultLoggerName is the logger name used by the dispatcher and the
// delivery handoffs.
const DefaultLoggerName = "webhooks"

// Resolve uses provider > logger > nop precedence. A blank name resolves to
// DefaultLoggerName.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	if strings.TrimSpace(name) == "" {
		name = DefaultLoggerName
	}
	resolvedProvider, resolvedLogger := glog.Resolve(name, provider, logger)
	return resolvedProvider, glog.Ensure(resolvedLogger)
}

// DispatcherOptions resolves the pair once and returns dispatcher options
// carrying both, so the dispatcher and its handoffs log under the same name.
func DispatcherOptions(provider glog.LoggerProvider, logger glog.Logger) []webhooks.Option {
	resolvedProvider, resolvedLogger := Resolve(DefaultLoggerName, provider, logger)
	return []webhooks.Option{
		webhooks.WithLoggerProvider(resolvedProvider),
		webhooks.WithLogger(resolvedLogger),
	}
}

// ForDeliveryWorker bridges the resolved pair to go-job for the worker that
// drains webhooks.deliver jobs.
func ForDeliveryWorker(provider glog.LoggerProvider, logger glog.Logger) (job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(DefaultLoggerName, provider, logger)
	var jobProvider job.LoggerProvider
	if resolvedProvider != nil {
		jobProvider = job.GoLoggerProvider(resolvedProvider)
	}
	return jobProvider, job.GoLogger(resolvedLogger)
}
