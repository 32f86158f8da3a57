package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the sweep's operational counters. Build with NewMetrics;
// a nil Registerer yields unregistered collectors (tests, CLI one-shots).
type Metrics struct {
	Cycles           prometheus.Counter
	Candidates       prometheus.Counter
	Fired            prometheus.Counter
	DeliveryFailures *prometheus.CounterVec
	Conflicts        prometheus.Counter
	CandidateErrors  prometheus.Counter
	CycleDuration    prometheus.Histogram
	Activity         prometheus.Counter
	SettingsRejected prometheus.Counter
}

// NewMetrics creates the engine collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Cycles: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "cycles_total",
			Help: "Completed sweep cycles.",
		}),
		Candidates: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "candidates_total",
			Help: "Principals loaded as sweep candidates.",
		}),
		Fired: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "episodes_fired_total",
			Help: "Inactivity episodes whose notifications were delivered and committed.",
		}),
		DeliveryFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "delivery_failures_total",
			Help: "Failed notification deliveries by recipient role.",
		}, []string{"role"}),
		Conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "commit_conflicts_total",
			Help: "Episode commits discarded because the principal changed during delivery.",
		}),
		CandidateErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "candidate_errors_total",
			Help: "Candidates skipped after a storage error or panic.",
		}),
		CycleDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: "legacy", Subsystem: "sweep", Name: "cycle_duration_seconds",
			Help:    "Wall time of a sweep cycle.",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 8),
		}),
		Activity: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Name: "activity_recorded_total",
			Help: "Recorded principal interactions.",
		}),
		SettingsRejected: f.NewCounter(prometheus.CounterOpts{
			Namespace: "legacy", Name: "settings_rejected_total",
			Help: "Settings updates rejected by validation.",
		}),
	}
}
