package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "transpectra"

var (
	// Labels: role (planner, summarizer, assistant), outcome (ok, timeout, canceled, error)
	reasonerCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reasoner",
		Name:      "calls_total",
		Help:      "Model calls by role and outcome",
	}, []string{"role", "outcome"})

	reasonerLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reasoner",
		Name:      "latency_seconds",
		Help:      "Model call latency by role",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	}, []string{"role"})

	// Labels: tool, status (ok, error, timeout)
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "calls_total",
		Help:      "Tool invocations by tool and status",
	}, []string{"tool", "status"})

	toolLatencySeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "tool",
		Name:      "latency_seconds",
		Help:      "Tool invocation latency",
		Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 15, 30, 60},
	}, []string{"tool"})

	toolLoopIterations = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "graph",
		Name:      "tool_iterations",
		Help:      "Reasoning/tool rounds per request",
		Buckets:   []float64{0, 1, 2, 3, 4, 6, 8, 12},
	}, []string{"mode"})

	// Labels: status (ok, error)
	compactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "memory",
		Name:      "compactions_total",
		Help:      "Conversation compactions by status",
	}, []string{"status"})

	// Labels: kind (malformed_json, wrong_count, missing_field)
	validationFallbacksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "output",
		Name:      "fallbacks_total",
		Help:      "Pipeline outputs replaced by the fallback, by validation failure kind",
	}, []string{"kind"})

	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route and status code",
	}, []string{"route", "code"})
)

func RecordReasonerCall(role, outcome string, d time.Duration) {
	reasonerCallsTotal.WithLabelValues(role, outcome).Inc()
	reasonerLatencySeconds.WithLabelValues(role).Observe(d.Seconds())
}

func RecordToolCall(tool, status string, d time.Duration) {
	toolCallsTotal.WithLabelValues(tool, status).Inc()
	toolLatencySeconds.WithLabelValues(tool).Observe(d.Seconds())
}

func RecordToolIterations(mode string, n int) {
	toolLoopIterations.WithLabelValues(mode).Observe(float64(n))
}

func RecordCompaction(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	compactionsTotal.WithLabelValues(status).Inc()
}

func RecordValidationFallback(kind string) {
	validationFallbacksTotal.WithLabelValues(kind).Inc()
}

func RecordHTTPRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}
