package observability

import (
	"errors"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

// compile-time interface check
var _ MetricFactory = (*PrometheusFactory)(nil)

// PrometheusFactory is a MetricFactory backed by a Prometheus registerer.
// Dotted metric names are converted to underscores and prefixed with the
// namespace, if any.
type PrometheusFactory struct {
	reg       prometheus.Registerer
	namespace string
	buckets   []float64
}

// PrometheusOption configures a PrometheusFactory.
type PrometheusOption func(*PrometheusFactory)

// WithNamespace prefixes every metric name.
func WithNamespace(ns string) PrometheusOption {
	return func(f *PrometheusFactory) { f.namespace = ns }
}

// WithBuckets sets histogram buckets. Defaults to exponential buckets
// from 1 to 1e18 base units.
func WithBuckets(buckets []float64) PrometheusOption {
	return func(f *PrometheusFactory) { f.buckets = buckets }
}

// NewPrometheusFactory creates a factory that registers metrics on reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer, opts ...PrometheusOption) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := &PrometheusFactory{
		reg:     reg,
		buckets: prometheus.ExponentialBuckets(1, 10, 19),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Counter implements MetricFactory. Registering a name twice returns the
// collector registered first.
func (f *PrometheusFactory) Counter(name string) Counter {
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: f.namespace,
		Name:      metricName(name),
		Help:      "Counter " + name + ".",
	})
	if existing, ok := f.register(c).(prometheus.Counter); ok {
		return existing
	}
	return c
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: f.namespace,
		Name:      metricName(name),
		Help:      "Histogram " + name + ".",
		Buckets:   f.buckets,
	})
	if existing, ok := f.register(h).(prometheus.Histogram); ok {
		return existing
	}
	return h
}

// register returns the already registered collector on a duplicate, nil
// otherwise. Any other registration error panics like MustRegister.
func (f *PrometheusFactory) register(c prometheus.Collector) prometheus.Collector {
	err := f.reg.Register(c)
	if err == nil {
		return nil
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		return are.ExistingCollector
	}
	panic(err)
}

func metricName(name string) string {
	return strings.NewReplacer(".", "_", "-", "_").Replace(name)
}
