package resilience

import (
	"strconv"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker"
)

// Outcome labels shared by breaker and retry metrics.
const (
	outcomeSuccess  = "success"
	outcomeFailure  = "failure"
	outcomeRejected = "rejected"
	outcomeGaveUp   = "gave_up"
)

var (
	breakerState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "codrisk",
		Subsystem: "breaker",
		Name:      "state",
		Help:      "Breaker state per dependency: 0 closed, 0.5 half-open, 1 open.",
	}, []string{"breaker"})

	breakerCalls = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codrisk",
		Subsystem: "breaker",
		Name:      "calls_total",
		Help:      "Calls routed through a breaker by outcome. Rejected calls went to the fallback.",
	}, []string{"breaker", "outcome"})

	breakerTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "codrisk",
		Subsystem: "breaker",
		Name:      "transitions_total",
		Help:      "Breaker state transitions.",
	}, []string{"breaker", "from", "to"})

	retryAttempts = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "codrisk",
		Subsystem: "retry",
		Name:      "attempts",
		Help:      "Attempts used by a retried operation before it returned.",
		Buckets:   []float64{1, 2, 3, 5, 8},
	}, []string{"operation", "outcome"})

	breakerSeq uint64
)

func nextBreakerName(base string) string {
	if base != "" {
		return base
	}
	return "breaker-" + strconv.FormatUint(atomic.AddUint64(&breakerSeq, 1), 10)
}

func stateValue(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 0.5
	case gobreaker.StateOpen:
		return 1
	}
	return -1
}

func observeState(name string, state gobreaker.State) {
	breakerState.WithLabelValues(name).Set(stateValue(state))
}

func observeTransition(name string, from, to gobreaker.State) {
	breakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
	observeState(name, to)
}

func observeCall(name, outcome string) {
	breakerCalls.WithLabelValues(name, outcome).Inc()
}

// observeRetry is a no-op for unnamed configs so ad hoc retries do not add series.
func observeRetry(operation string, attempts int, outcome string) {
	if operation == "" {
		return
	}
	retryAttempts.WithLabelValues(operation, outcome).Observe(float64(attempts))
}
