package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects tier-transition counters for the adaptive
// optimizer: promotions into the specialized tier, demotions back to
// the safe tier, bulk evictions, compile outcomes per tier, and the
// number of resident specialized accessors.
type Metrics struct {
	Promotions prometheus.Counter
	Demotions  prometheus.Counter
	Evictions  prometheus.Counter
	Compiles   *prometheus.CounterVec
	Resident   prometheus.Gauge
}

// NewMetrics creates the collector set and registers it with reg. Pass
// prometheus.DefaultRegisterer for the process-wide registry, or a
// private registry in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Promotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exlang_promotions_total",
			Help: "Accessors promoted from the safe to the specialized tier.",
		}),
		Demotions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exlang_demotions_total",
			Help: "Accessors demoted back to the safe tier.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "exlang_evictions_total",
			Help: "Specialized accessors evicted by tenure-limit enforcement.",
		}),
		Compiles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "exlang_compile_total",
			Help: "Accessor compilations by tier and outcome.",
		}, []string{"tier", "outcome"}),
		Resident: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "exlang_resident_specialized",
			Help: "Specialized accessors currently resident.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Promotions, m.Demotions, m.Evictions, m.Compiles, m.Resident)
	}
	return m
}

// RecordCompile counts one compilation attempt.
func (m *Metrics) RecordCompile(tier string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Compiles.WithLabelValues(tier, outcome).Inc()
}
