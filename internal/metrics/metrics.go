package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TransfersTotal counts finished transfers by outcome
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_transfers_total",
			Help: "Total number of orchestrated transfers",
		},
		[]string{"outcome"},
	)

	// TransferDuration tracks end-to-end transfer time
	TransferDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_transfer_duration_seconds",
			Help:    "End-to-end transfer duration in seconds",
			Buckets: []float64{15, 30, 60, 120, 300, 600, 1200, 1800},
		},
	)

	// StageTransitions counts state machine transitions
	StageTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_stage_transitions_total",
			Help: "Total number of orchestrator state transitions",
		},
		[]string{"from", "to"},
	)

	// QuotesTotal counts fee quotes computed per token
	QuotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_fee_quotes_total",
			Help: "Total number of fee quotes computed",
		},
		[]string{"token"},
	)

	// GateVerdicts counts pre-deposit verdicts by code
	GateVerdicts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_gate_verdicts_total",
			Help: "Total number of pre-deposit gate verdicts",
		},
		[]string{"code"},
	)

	// ExitPollAttempts tracks how many polls each exit detection needed
	ExitPollAttempts = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bridge_exit_poll_attempts",
			Help:    "Number of deposit-status polls before an exit hash appeared",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 300},
		},
	)

	// ErrorsTotal counts errors by component and kind
	ErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_errors_total",
			Help: "Total number of errors",
		},
		[]string{"component", "kind"},
	)
)
