// Package metrics exposes Prometheus counters for sign-in outcomes and the
// HTTP endpoint that serves them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Sign-in outcome label values.
const (
	OutcomeSuccess            = "success"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeInternalError      = "internal_error"
)

// Metrics contains the gophauth collectors. A nil *Metrics records nothing.
type Metrics struct {
	SignInsTotal   *prometheus.CounterVec
	SignInDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SignInsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gophauth_sign_in_total",
				Help: "Total number of sign-in attempts by outcome",
			},
			[]string{"outcome"},
		),
		SignInDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gophauth_sign_in_duration_seconds",
				Help:    "Sign-in latency by outcome",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(m.SignInsTotal, m.SignInDuration)

	return m
}

// RecordSignIn counts one attempt and its latency.
func (m *Metrics) RecordSignIn(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.SignInsTotal.WithLabelValues(outcome).Inc()
	m.SignInDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())
}
