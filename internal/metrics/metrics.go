package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FaultsTotal tracks faults entering the orchestrator per kind
	FaultsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_faults_total",
			Help: "Total number of faults handled",
		},
		[]string{"kind"},
	)

	// RecoveriesTotal tracks successful recoveries per strategy
	RecoveriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_recoveries_total",
			Help: "Total number of successful recoveries",
		},
		[]string{"kind", "strategy"},
	)

	// EscalationsTotal tracks escalations per severity and target
	EscalationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_escalations_total",
			Help: "Total number of escalations",
		},
		[]string{"severity", "target"},
	)

	// RecoveryDuration tracks end-to-end recovery latency
	RecoveryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_recovery_duration_seconds",
			Help:    "Recovery latency in seconds, recovered faults only",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)

	// RequestRetriesTotal tracks resilient client retries per trigger
	RequestRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "triage_request_retries_total",
			Help: "Total number of resilient client retries",
		},
		[]string{"trigger"},
	)

	// RequestLatency tracks resilient client request latency
	RequestLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "triage_request_latency_seconds",
			Help:    "Resilient client request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)
