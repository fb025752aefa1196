package observability

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// pointBuckets cover single awards (10..100) and seeded bonus sizes.
var pointBuckets = []float64{5, 10, 20, 25, 30, 50, 100, 250}

// PrometheusFactory is a MetricFactory that registers Prometheus collectors.
// Dotted metric names become underscored ("academy.points.awarded" is
// exported as "academy_points_awarded_total").
type PrometheusFactory struct {
	reg prometheus.Registerer

	mu         sync.Mutex
	counters   map[string]prometheus.Counter
	histograms map[string]prometheus.Histogram
}

var _ MetricFactory = (*PrometheusFactory)(nil)

// NewPrometheusFactory creates a factory registering into reg. A nil reg
// uses prometheus.DefaultRegisterer.
func NewPrometheusFactory(reg prometheus.Registerer) *PrometheusFactory {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	return &PrometheusFactory{
		reg:        reg,
		counters:   make(map[string]prometheus.Counter),
		histograms: make(map[string]prometheus.Histogram),
	}
}

// Counter returns the counter for name, creating it on first use.
func (f *PrometheusFactory) Counter(name string) Counter {
	f.mu.Lock()
	defer f.mu.Unlock()

	if c, ok := f.counters[name]; ok {
		return c
	}
	c := prometheus.NewCounter(prometheus.CounterOpts{
		Name: promName(name) + "_total",
		Help: "Count of " + name + ".",
	})
	f.reg.MustRegister(c)
	f.counters[name] = c
	return c
}

// Histogram returns the histogram for name, creating it on first use.
func (f *PrometheusFactory) Histogram(name string) Histogram {
	f.mu.Lock()
	defer f.mu.Unlock()

	if h, ok := f.histograms[name]; ok {
		return h
	}
	h := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    promName(name),
		Help:    "Distribution of " + name + ".",
		Buckets: pointBuckets,
	})
	f.reg.MustRegister(h)
	f.histograms[name] = h
	return h
}

var promReplacer = strings.NewReplacer(".", "_", "-", "_")

func promName(name string) string { return promReplacer.Replace(name) }
