package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IssuanceMetrics records outcomes of order-created webhook runs.
type IssuanceMetrics struct {
	duration *prometheus.HistogramVec
	outcomes *prometheus.CounterVec
}

// NewIssuanceMetrics registers the issuance metrics on the provided registerer.
func NewIssuanceMetrics(reg prometheus.Registerer) *IssuanceMetrics {
	if reg == nil {
		return &IssuanceMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "issuance_duration_seconds",
		Help:    "Duration of order hash issuance runs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"result"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "issuance_stage_outcomes",
		Help: "Per-stage outcomes of issuance runs.",
	}, []string{"stage", "result"})
	reg.MustRegister(duration, outcomes)
	return &IssuanceMetrics{
		duration: duration,
		outcomes: outcomes,
	}
}

// ObserveDuration records how long a full issuance run took.
func (m *IssuanceMetrics) ObserveDuration(result string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(result)).Observe(d.Seconds())
}

// IncStage counts one stage outcome (e.g. persist/ok, reconcile/failed).
func (m *IssuanceMetrics) IncStage(stage, result string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(stage), normalizeLabel(result)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
