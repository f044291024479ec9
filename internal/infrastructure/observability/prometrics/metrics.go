package prometrics

import (
	"net/http"
	"sync"

	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry owns a dedicated prometheus registry and hands out counters and
// histograms behind the observability ports. Asking for the same name twice
// returns the already-registered instrument.
type Registry struct {
	mu         sync.Mutex
	reg        *prometheus.Registry
	counters   map[string]*prometheus.CounterVec
	histograms map[string]*prometheus.HistogramVec
	namespace  string
}

func New(namespace string) *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return &Registry{
		reg:        reg,
		counters:   make(map[string]*prometheus.CounterVec),
		histograms: make(map[string]*prometheus.HistogramVec),
		namespace:  namespace,
	}
}

// Handler serves this registry's metrics for the /metrics endpoint.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}

func (r *Registry) Counter(name, help string, labelKeys ...string) observability.Counter {
	r.mu.Lock()
	defer r.mu.Unlock()

	cv, ok := r.counters[name]
	if !ok {
		cv = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: r.namespace, Name: name, Help: help,
		}, labelKeys)
		r.reg.MustRegister(cv)
		r.counters[name] = cv
	}
	return counter{v: cv}
}

func (r *Registry) Histogram(name, help string, buckets []float64, labelKeys ...string) observability.Histogram {
	r.mu.Lock()
	defer r.mu.Unlock()

	hv, ok := r.histograms[name]
	if !ok {
		hv = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: r.namespace, Name: name, Help: help, Buckets: buckets,
		}, labelKeys)
		r.reg.MustRegister(hv)
		r.histograms[name] = hv
	}
	return histogram{v: hv}
}

type counter struct{ v *prometheus.CounterVec }

func (c counter) Add(delta float64, labels ...observability.Label) {
	c.v.With(toPromLabels(labels)).Add(delta)
}

type histogram struct{ v *prometheus.HistogramVec }

func (h histogram) Observe(value float64, labels ...observability.Label) {
	h.v.With(toPromLabels(labels)).Observe(value)
}

func toPromLabels(labels []observability.Label) prometheus.Labels {
	m := make(prometheus.Labels, len(labels))
	for _, l := range labels {
		m[l.Key] = l.Value
	}
	return m
}
