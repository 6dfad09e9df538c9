package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusFactory implements MetricFactory on a Prometheus registerer.
type PrometheusFactory struct {
	reg prometheus.Registerer
}

// NewPrometheusFactory creates a factory registering metrics with reg.
// A nil reg falls back to the default registerer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{reg: reg}
}

// Counter implements MetricFactory.
func (f *PrometheusFactory) Counter(name string) Counter {
	return promauto.With(f.reg).NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: name,
	})
}

// Histogram implements MetricFactory.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	return promauto.With(f.reg).NewHistogram(prometheus.HistogramOpts{
		Name: name,
		Help: name,
	})
}
