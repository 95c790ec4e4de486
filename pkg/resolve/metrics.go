package resolve

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Result labels.
const (
	resultResolved  = "resolved"
	resultFailed    = "failed"
	resultSkipped   = "skipped"
	resultCancelled = "cancelled"
)

// Metrics counts resolution outcomes. A nil *Metrics records nothing.
type Metrics struct {
	formulas *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inflight prometheus.Gauge
}

// NewMetrics creates the resolver metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		formulas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forummark",
			Subsystem: "resolve",
			Name:      "formulas_total",
			Help:      "Formulas processed by the resolver, by kind and result.",
		}, []string{"kind", "result"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forummark",
			Subsystem: "resolve",
			Name:      "fetch_duration_seconds",
			Help:      "Time spent fetching and decoding one formula.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind"}),
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forummark",
			Subsystem: "resolve",
			Name:      "runs_in_flight",
			Help:      "Text runs currently being resolved.",
		}),
	}

	for _, c := range []prometheus.Collector{m.formulas, m.duration, m.inflight} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observe(kind, result string, seconds float64) {
	if m == nil {
		return
	}
	m.formulas.WithLabelValues(kind, result).Inc()
	if result == resultResolved || result == resultFailed {
		m.duration.WithLabelValues(kind).Observe(seconds)
	}
}

func (m *Metrics) runStarted() {
	if m != nil {
		m.inflight.Inc()
	}
}

func (m *Metrics) runFinished() {
	if m != nil {
		m.inflight.Dec()
	}
}
