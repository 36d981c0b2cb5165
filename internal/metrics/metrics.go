// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Solve kinds.
const (
	KindEquilibrium  = "equilibrium"
	KindBestResponse = "best_response"
	KindCurve        = "curve"
)

// Solve outcomes.
const (
	OutcomeConverged    = "converged"
	OutcomeBestEffort   = "best_effort"
	OutcomeDomainError  = "domain_error"
	OutcomeSolverFailed = "failed"
)

var (
	SolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackelberg_solves_total",
		Help: "Solver invocations by kind and outcome.",
	}, []string{"kind", "outcome"})

	SolveDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stackelberg_solve_duration_seconds",
		Help:    "Wall time of solver invocations.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"kind"})

	InnerSolves = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stackelberg_inner_solves",
		Help:    "Best-response solves performed per equilibrium search.",
		Buckets: prometheus.ExponentialBuckets(4, 2, 9),
	})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stackelberg_http_requests_total",
		Help: "HTTP requests by route pattern and status code.",
	}, []string{"route", "code"})
)

// ObserveSolve records one solver invocation.
func ObserveSolve(kind, outcome string, started time.Time) {
	SolvesTotal.WithLabelValues(kind, outcome).Inc()
	SolveDuration.WithLabelValues(kind).Observe(time.Since(started).Seconds())
}
