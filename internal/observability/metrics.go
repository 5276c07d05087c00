// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package observability

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// authOperations is package-level so the auth service can record outcomes
// without holding a Server.
var authOperations = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "passgate_auth_operations_total",
		Help: "Total number of auth operations by operation and outcome",
	},
	[]string{"operation", "outcome"},
)

// RecordAuthOperation increments the auth operation counter.
func RecordAuthOperation(operation, outcome string) {
	authOperations.WithLabelValues(operation, outcome).Inc()
}

// Metrics contains the HTTP metrics for the API listener.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// NewMetrics creates and registers the passgate metrics on reg. Calling it
// again with the same reg returns Metrics backed by the existing collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "passgate_http_requests_total",
				Help: "Total number of HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "passgate_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	m.RequestsTotal = register(reg, m.RequestsTotal)
	m.RequestDuration = register(reg, m.RequestDuration)
	register(reg, authOperations)

	return m
}

// register adds c to reg, returning the collector already registered under
// the same descriptor when there is one. Any other registration error panics.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	err := reg.Register(c)
	if err == nil {
		return c
	}
	var are prometheus.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(C); ok {
			return existing
		}
	}
	panic(err)
}

// ObserveRequest records one finished HTTP request. A nil Metrics is a no-op.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
