package service

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes sync engine counters. A nil *Metrics records nothing.
type Metrics struct {
	refetches        prometheus.Counter
	refetchFailures  prometheus.Counter
	mutationFailures *prometheus.CounterVec
	storageUsed      prometheus.Gauge
}

// NewMetrics creates and registers the sync metrics on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		refetches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clientfiles_refetch_total",
			Help: "Full tree refetches completed.",
		}),
		refetchFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "clientfiles_refetch_failures_total",
			Help: "Full tree refetches that failed.",
		}),
		mutationFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clientfiles_mutation_failures_total",
			Help: "Optimistic mutations whose remote write failed.",
		}, []string{"op"}),
		storageUsed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "clientfiles_storage_used_bytes",
			Help: "Bytes used by folder files in the cache.",
		}),
	}
	for _, c := range []prometheus.Collector{m.refetches, m.refetchFailures, m.mutationFailures, m.storageUsed} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) refetched(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.refetchFailures.Inc()
		return
	}
	m.refetches.Inc()
}

func (m *Metrics) mutationFailed(op string) {
	if m == nil {
		return
	}
	m.mutationFailures.WithLabelValues(op).Inc()
}

func (m *Metrics) setStorageUsed(n int64) {
	if m == nil {
		return
	}
	m.storageUsed.Set(float64(n))
}
