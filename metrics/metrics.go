// Package metrics holds the Prometheus collectors for the hazard workflow.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	HazardsReported     *prometheus.CounterVec
	Transitions         *prometheus.CounterVec
	TransitionsRejected *prometheus.CounterVec
	TokenRedemptions    *prometheus.CounterVec
	DispatchOutcomes    *prometheus.CounterVec
	HazardsByStatus     *prometheus.GaugeVec
	StatsCycleDuration  prometheus.Histogram
}

// New registers every collector with reg. Passing a fresh
// prometheus.NewRegistry keeps tests independent of the default registry.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		HazardsReported: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saferoute_hazards_reported_total",
			Help: "Hazard reports accepted from drivers",
		}, []string{"type"}),
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saferoute_hazard_transitions_total",
			Help: "Committed hazard lifecycle transitions",
		}, []string{"action"}),
		TransitionsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saferoute_hazard_transitions_rejected_total",
			Help: "Lifecycle transitions refused, by error code",
		}, []string{"action", "code"}),
		TokenRedemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saferoute_verification_token_redemptions_total",
			Help: "Verification token redemption attempts, by result",
		}, []string{"result"}),
		DispatchOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "saferoute_dispatch_outcomes_total",
			Help: "Verification request dispatch results",
		}, []string{"outcome"}),
		HazardsByStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "saferoute_hazards_by_status",
			Help: "Current number of hazards in each status",
		}, []string{"status"}),
		StatsCycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "saferoute_stats_cycle_duration_seconds",
			Help:    "Duration of the hazard status gauge refresh",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *Metrics) IncReported(hazardType string) {
	if m == nil {
		return
	}
	m.HazardsReported.WithLabelValues(hazardType).Inc()
}

func (m *Metrics) IncTransition(action string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(action).Inc()
}

func (m *Metrics) IncTransitionRejected(action, code string) {
	if m == nil {
		return
	}
	m.TransitionsRejected.WithLabelValues(action, code).Inc()
}

func (m *Metrics) IncTokenRedemption(result string) {
	if m == nil {
		return
	}
	m.TokenRedemptions.WithLabelValues(result).Inc()
}

func (m *Metrics) IncDispatch(outcome string) {
	if m == nil {
		return
	}
	m.DispatchOutcomes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetHazardsByStatus(status string, n int64) {
	if m == nil {
		return
	}
	m.HazardsByStatus.WithLabelValues(status).Set(float64(n))
}

func (m *Metrics) ObserveStatsCycle(start time.Time) {
	if m == nil {
		return
	}
	m.StatsCycleDuration.Observe(time.Since(start).Seconds())
}
