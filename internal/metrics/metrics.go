// Package metrics defines the auth service's domain metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics holds the auth counters and histograms.
type Metrics struct {
	operations   *prometheus.CounterVec
	hashDuration *prometheus.HistogramVec
	throttled    prometheus.Counter
}

// New registers the auth metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "auth_operations_total",
				Help: "Auth operations by outcome",
			},
			[]string{"operation", "outcome"},
		),
		hashDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "password_hash_duration_seconds",
				Help:    "Time spent in bcrypt, including waiting for a hashing slot",
				Buckets: []float64{.01, .05, .1, .25, .5, 1, 2, 5},
			},
			[]string{"op"},
		),
		throttled: f.NewCounter(prometheus.CounterOpts{
			Name: "auth_login_throttled_total",
			Help: "Logins rejected because of too many failed attempts",
		}),
	}
}

// ObserveOperation counts one operation outcome. Nil-safe.
func (m *Metrics) ObserveOperation(operation, outcome string) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// ObserveHash records a bcrypt duration. It matches password.Observer.
func (m *Metrics) ObserveHash(op string, d time.Duration) {
	if m == nil {
		return
	}
	m.hashDuration.WithLabelValues(op).Observe(d.Seconds())
}

// IncThrottled counts a throttled login.
func (m *Metrics) IncThrottled() {
	if m == nil {
		return
	}
	m.throttled.Inc()
}
