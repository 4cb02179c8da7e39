// Package metrics provides Prometheus metrics for the riddle agent.
// Labels are kept low-cardinality: no session keys or request IDs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts handled agent requests by intent and task state.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddler_requests_total",
		Help: "Total number of agent requests, by intent and resulting task state.",
	}, []string{"intent", "state"})

	// ProviderCallsTotal counts upstream riddle fetches by upstream and outcome.
	ProviderCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "riddler_provider_calls_total",
		Help: "Total number of riddle upstream calls, by upstream and outcome (ok/error/timeout).",
	}, []string{"upstream", "outcome"})

	// ProviderFallbackTotal counts riddles served from the built-in collection.
	ProviderFallbackTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riddler_provider_fallback_total",
		Help: "Total number of riddles served from the built-in collection after all upstreams failed.",
	})

	// ProviderLatency observes upstream call duration in seconds.
	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "riddler_provider_latency_seconds",
		Help:    "Riddle upstream call latency, by upstream.",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	}, []string{"upstream"})

	// SessionsPurgedTotal counts sessions removed by the TTL sweeper.
	SessionsPurgedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "riddler_sessions_purged_total",
		Help: "Total number of idle sessions removed by the sweeper.",
	})
)
