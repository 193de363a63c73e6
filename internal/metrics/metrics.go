package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registered with the default registry through promauto; the embedding
// application decides whether and where to expose them.
var (
	// ScriptExecutionsTotal counts finished executions by engine and outcome.
	// Outcome is "ok" or one of the error kinds.
	ScriptExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphscript_script_executions_total",
			Help: "Total number of script executions",
		},
		[]string{"engine", "outcome"},
	)

	// ScriptDuration measures execution time from bindings to commit.
	ScriptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "graphscript_script_duration_seconds",
			Help:    "Duration of script executions in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		},
		[]string{"engine"},
	)

	// EngineConstructionsTotal counts interpreter handles built by the lifecycle manager.
	EngineConstructionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "graphscript_engine_constructions_total",
			Help: "Total number of interpreter handles constructed",
		},
		[]string{"engine", "result"},
	)

	// CompiledScripts tracks how many compiled programs the current handle caches.
	CompiledScripts = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "graphscript_compiled_scripts",
			Help: "Number of compiled scripts cached by the current interpreter handle",
		},
		[]string{"engine"},
	)
)
