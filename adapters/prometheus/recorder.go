package prometheus

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-webhook-dispatch/core"
)

// DefaultBuckets covers millisecond durations from 1ms to roughly 8s.
var DefaultBuckets = prometheus.ExponentialBuckets(1, 2, 14)

type Option func(*Recorder)

func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		r.namespace = sanitize(namespace)
	}
}

func WithBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = append([]float64(nil), buckets...)
		}
	}
}

// Recorder implements core.MetricsRecorder on top of a Prometheus registry.
// Each metric name gets one vector whose label names are fixed by the tags
// of its first observation. Later tags missing a label record it empty and
// unknown tags are dropped.
type Recorder struct {
	registerer prometheus.Registerer
	namespace  string
	buckets    []float64

	mu         sync.Mutex
	counters   map[string]*counterVec
	histograms map[string]*histogramVec
}

type counterVec struct {
	vec    *prometheus.CounterVec
	labels []string
}

type histogramVec struct {
	vec    *prometheus.HistogramVec
	labels []string
}

// NewRecorder registers on registerer, or the default registerer when nil.
func NewRecorder(registerer prometheus.Registerer, opts ...Option) *Recorder {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	r := &Recorder{
		registerer: registerer,
		buckets:    DefaultBuckets,
		counters:   map[string]*counterVec{},
		histograms: map[string]*histogramVec{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value < 0 {
		return
	}
	counter, err := r.counter(name, tags)
	if err != nil {
		return
	}
	counter.vec.WithLabelValues(labelValues(counter.labels, tags)...).Add(float64(value))
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	histogram, err := r.histogram(name, tags)
	if err != nil {
		return
	}
	histogram.vec.WithLabelValues(labelValues(histogram.labels, tags)...).Observe(value)
}

func (r *Recorder) counter(name string, tags map[string]string) (*counterVec, error) {
	metricName := sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.counters[metricName]; ok {
		return existing, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      metricName,
		Help:      "Counter for " + name,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.CounterVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}
	entry := &counterVec{vec: vec, labels: labels}
	r.counters[metricName] = entry
	return entry, nil
}

func (r *Recorder) histogram(name string, tags map[string]string) (*histogramVec, error) {
	metricName := sanitize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.histograms[metricName]; ok {
		return existing, nil
	}
	labels := labelNames(tags)
	vec := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      metricName,
		Help:      "Histogram for " + name,
		Buckets:   r.buckets,
	}, labels)
	if err := r.registerer.Register(vec); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
		existing, ok := already.ExistingCollector.(*prometheus.HistogramVec)
		if !ok {
			return nil, err
		}
		vec = existing
	}
	entry := &histogramVec{vec: vec, labels: labels}
	r.histograms[metricName] = entry
	return entry, nil
}

func labelNames(tags map[string]string) []string {
	names := make([]string, 0, len(tags))
	seen := map[string]struct{}{}
	for key := range tags {
		name := sanitize(key)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func labelValues(labels []string, tags map[string]string) []string {
	byLabel := make(map[string]string, len(tags))
	for key, value := range tags {
		byLabel[sanitize(key)] = value
	}
	values := make([]string, len(labels))
	for i, label := range labels {
		values[i] = byLabel[label]
	}
	return values
}

// sanitize maps a dotted metric or tag name to the Prometheus charset.
func sanitize(name string) string {
	name = strings.TrimSpace(name)
	var b strings.Builder
	b.Grow(len(name))
	for i, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
			b.WriteRune(r)
		case r >= '0' && r <= '9':
			if i == 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

var _ core.MetricsRecorder = (*Recorder)(nil)
