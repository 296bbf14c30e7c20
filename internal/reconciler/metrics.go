package reconciler

import "github.com/prometheus/client_golang/prometheus"

// Metrics exposes sweep outcomes to prometheus.
type Metrics struct {
	sweeps           prometheus.Counter
	reaped           prometheus.Counter
	reapFailures     prometheus.Counter
	orphanCandidates prometheus.Gauge
	brokenReferences prometheus.Gauge
}

// NewMetrics registers the reconciler collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sweeps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "reconciler",
			Name:      "sweeps_total",
			Help:      "Number of reconciliation sweeps run.",
		}),
		reaped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "reconciler",
			Name:      "orphans_reaped_total",
			Help:      "Number of orphaned objects deleted.",
		}),
		reapFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "lifelog",
			Subsystem: "reconciler",
			Name:      "reap_failures_total",
			Help:      "Number of failed orphan deletions.",
		}),
		orphanCandidates: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lifelog",
			Subsystem: "reconciler",
			Name:      "orphan_candidates",
			Help:      "Orphan candidates observed by the last sweep.",
		}),
		brokenReferences: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "lifelog",
			Subsystem: "reconciler",
			Name:      "broken_references",
			Help:      "Broken references observed by the last sweep.",
		}),
	}

	reg.MustRegister(m.sweeps, m.reaped, m.reapFailures, m.orphanCandidates, m.brokenReferences)
	return m
}

// observe records one finished sweep. Safe on a nil receiver so metrics
// stay optional in tests.
func (m *Metrics) observe(report *Report) {
	if m == nil {
		return
	}
	m.sweeps.Inc()
	m.reaped.Add(float64(report.Reaped))
	m.reapFailures.Add(float64(report.ReapFailures))
	m.orphanCandidates.Set(float64(report.OrphanCandidates))
	m.brokenReferences.Set(float64(report.BrokenReferences))
}
