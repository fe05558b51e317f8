/*
Copyright 2026 Chainguard, Inc.
SPDX-License-Identifier: Apache-2.0
*/

// Package metrics holds the Prometheus collectors shared by the agents.
//
// The agents are short-lived processes started by a scheduler, so nothing
// serves /metrics. Instead a run writes its registry to a node-exporter
// textfile when METRICS_TEXTFILE is set.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics is a registry-scoped set of collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	runs     *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_github_requests_total",
				Help: "Total number of GitHub API requests by method and status code",
			},
			[]string{"method", "code"},
		),
		latency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autopilot_github_request_duration_seconds",
				Help:    "Latency of GitHub API requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		runs: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autopilot_agent_runs_total",
				Help: "Total number of agent runs by agent and outcome",
			},
			[]string{"agent", "outcome"},
		),
	}
}

// Transport wraps next so every request is counted and timed.
func (m *Metrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	if m == nil {
		return next
	}
	return promhttp.InstrumentRoundTripperCounter(m.requests,
		promhttp.InstrumentRoundTripperDuration(m.latency, next))
}

// RecordRun counts one agent run with the given outcome label.
func (m *Metrics) RecordRun(agent, outcome string) {
	if m == nil {
		return
	}
	m.runs.With(prometheus.Labels{"agent": agent, "outcome": outcome}).Inc()
}

// Gatherer exposes the underlying registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// WriteTextfile writes the registry in the text exposition format to path.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
