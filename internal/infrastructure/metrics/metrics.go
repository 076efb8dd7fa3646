// Package metrics holds the prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cleservice"

// Candidate tiers used while ranking fuzzy matches
const (
	TierSubstring = "substring"
	TierFullScan  = "full_scan"
)

// Lookup outcomes
const (
	ResultFound    = "found"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

var (
	// ResolverCandidateTier counts which candidate tier served a fuzzy lookup
	ResolverCandidateTier = MustRegisterCounterVec(namespace, "resolver", "candidate_tier_total",
		"Number of fuzzy lookups served by each candidate tier.", "tier")

	// ResolverLookups counts resolver calls by operation and outcome
	ResolverLookups = MustRegisterCounterVec(namespace, "resolver", "lookups_total",
		"Number of catalog lookups by operation and result.", "operation", "result")

	// CatalogCacheRequests counts listing cache hits and misses
	CatalogCacheRequests = MustRegisterCounterVec(namespace, "catalog_cache", "requests_total",
		"Number of catalog listing cache lookups by result.", "result")

	// OrderTransitions counts orders entering each status
	OrderTransitions = MustRegisterCounterVec(namespace, "orders", "transitions_total",
		"Number of orders entering each status.", "status")

	// RealtimeClients is the number of connected websocket subscribers
	RealtimeClients = MustRegisterGauge(namespace, "realtime", "clients",
		"Number of connected websocket clients.")
)

// MustRegisterCounterVec creates and registers a counter vector.
func MustRegisterCounterVec(namespace, component, name, help string, labelNames ...string) *prometheus.CounterVec {
	m := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
	}, labelNames)
	prometheus.MustRegister(m)
	return m
}

// MustRegisterGauge creates and registers a gauge.
func MustRegisterGauge(namespace, component, name, help string) prometheus.Gauge {
	m := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: component,
		Name:      name,
		Help:      help,
	})
	prometheus.MustRegister(m)
	return m
}
