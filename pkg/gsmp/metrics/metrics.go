// Package metrics emits Prometheus counters and gauges for sampler
// activity: enable/disable/fire/next call counts per engine, numeric
// failures per distribution, CRN hit/miss counts, and current queue
// length. The Collector holds named, typed metric fields populated by
// small Observe* methods, so call sites never touch label plumbing.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds every metric a sampling engine can report against. A
// nil *Collector is valid everywhere its methods are called: every
// Observe*/Set* method is a no-op on a nil receiver, so instrumentation
// is opt-in.
type Collector struct {
	Enables         *prometheus.CounterVec
	Disables        *prometheus.CounterVec
	Fires           *prometheus.CounterVec
	NextCalls       *prometheus.CounterVec
	NumericFailures *prometheus.CounterVec
	CRNHits         prometheus.Counter
	CRNMisses       prometheus.Counter
	QueueLength     *prometheus.GaugeVec
}

// NewCollector builds and registers a Collector's metrics under
// namespace against reg. Pass prometheus.NewRegistry() for an isolated
// registry (tests, multiple samplers in one process) or
// prometheus.DefaultRegisterer to publish alongside the rest of a host
// process's metrics.
func NewCollector(reg prometheus.Registerer, namespace string) *Collector {
	c := &Collector{
		Enables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "enable_total", Help: "Enable calls per sampling engine.",
		}, []string{"engine"}),
		Disables: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "disable_total", Help: "Disable calls per sampling engine.",
		}, []string{"engine"}),
		Fires: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "fire_total", Help: "Fire calls per sampling engine.",
		}, []string{"engine"}),
		NextCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "next_total", Help: "Next calls per sampling engine.",
		}, []string{"engine"}),
		NumericFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "numeric_failures_total", Help: "Root-find/quantile-inversion failures per distribution.",
		}, []string{"distribution"}),
		CRNHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "crn_hits_total", Help: "CommonRandomRecorder snapshot reuses.",
		}),
		CRNMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Name: "crn_misses_total", Help: "CommonRandomRecorder snapshot captures.",
		}),
		QueueLength: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace, Name: "queue_length", Help: "Currently enabled clocks per sampling engine.",
		}, []string{"engine"}),
	}
	reg.MustRegister(c.Enables, c.Disables, c.Fires, c.NextCalls, c.NumericFailures, c.CRNHits, c.CRNMisses, c.QueueLength)
	return c
}

func (c *Collector) ObserveEnable(engine string) {
	if c == nil {
		return
	}
	c.Enables.WithLabelValues(engine).Inc()
}

func (c *Collector) ObserveDisable(engine string) {
	if c == nil {
		return
	}
	c.Disables.WithLabelValues(engine).Inc()
}

func (c *Collector) ObserveFire(engine string) {
	if c == nil {
		return
	}
	c.Fires.WithLabelValues(engine).Inc()
}

func (c *Collector) ObserveNext(engine string) {
	if c == nil {
		return
	}
	c.NextCalls.WithLabelValues(engine).Inc()
}

func (c *Collector) ObserveNumericFailure(distribution string) {
	if c == nil {
		return
	}
	c.NumericFailures.WithLabelValues(distribution).Inc()
}

func (c *Collector) ObserveCRNHit() {
	if c == nil {
		return
	}
	c.CRNHits.Inc()
}

func (c *Collector) ObserveCRNMiss() {
	if c == nil {
		return
	}
	c.CRNMisses.Inc()
}

func (c *Collector) SetQueueLength(engine string, n int) {
	if c == nil {
		return
	}
	c.QueueLength.WithLabelValues(engine).Set(float64(n))
}
