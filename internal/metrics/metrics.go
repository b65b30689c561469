package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Control-loop counters and histograms, partitioned by tracked horizon.

var (
	// Driver
	UpdateCyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "driver",
		Name:      "update_cycles_total",
		Help:      "Total coarse control-update cycles",
	}, []string{"horizon"})

	StateTransitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "driver",
		Name:      "state_transitions_total",
		Help:      "Total discontinuous state transitions",
	}, []string{"horizon", "from", "to"})

	TimescaleSuggestionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "driver",
		Name:      "timescale_suggestions_total",
		Help:      "Total corrective timescale suggestions issued",
	}, []string{"horizon", "state"})

	ControlErrorMagnitude = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "sizecontrol",
		Subsystem: "driver",
		Name:      "control_error_abs",
		Help:      "Absolute control error fed to the tuner",
		Buckets:   []float64{1e-6, 1e-5, 1e-4, 1e-3, 1e-2, 0.1, 1},
	}, []string{"horizon"})

	DampingTimescale = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sizecontrol",
		Subsystem: "tuner",
		Name:      "damping_timescale",
		Help:      "Current damping timescale",
	}, []string{"horizon"})

	ActiveState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "sizecontrol",
		Subsystem: "driver",
		Name:      "active_state",
		Help:      "Set to 1 for the active control state, 0 otherwise",
	}, []string{"horizon", "state"})

	// Stores
	DecisionPersistErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "store",
		Name:      "decision_persist_errors_total",
		Help:      "Total failures persisting decision records",
	}, []string{"horizon"})

	CheckpointWritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "checkpoint",
		Name:      "writes_total",
		Help:      "Total checkpoint snapshots written",
	}, []string{"horizon"})

	// Alerts
	AlertsSentTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "alert",
		Name:      "sent_total",
		Help:      "Total alerts delivered per channel",
	}, []string{"channel", "type"})

	AlertsCooldownSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "alert",
		Name:      "cooldown_skipped_total",
		Help:      "Total alerts suppressed by the cooldown window",
	}, []string{"channel", "type"})

	// Circuit breaker
	BreakerStateChanges = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "breaker",
		Name:      "state_changes_total",
		Help:      "Total circuit breaker state changes",
	}, []string{"name", "state"})

	BreakerRejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sizecontrol",
		Subsystem: "breaker",
		Name:      "rejected_total",
		Help:      "Total calls rejected by an open circuit breaker",
	}, []string{"name"})
)
