// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordAuthOperation(t *testing.T) {
	counter := authOperations.WithLabelValues("register", "conflict")
	before := testutil.ToFloat64(counter)

	RecordAuthOperation("register", "conflict")
	RecordAuthOperation("register", "conflict")

	assert.InDelta(t, before+2, testutil.ToFloat64(counter), 0)
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodGet, "/api/profile", http.StatusUnauthorized, time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/profile", http.StatusUnauthorized, time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/profile", http.StatusOK, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/profile", "401")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/api/profile", "200")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestDuration))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
	})
}

func TestNewMetrics_SameRegistererTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewMetrics(reg)

	var second *Metrics
	assert.NotPanics(t, func() { second = NewMetrics(reg) })

	second.ObserveRequest("GET", "/auth/login", 200, time.Millisecond)
	assert.Equal(t, float64(1), testutil.ToFloat64(first.RequestsTotal.WithLabelValues("GET", "/auth/login", "200")))
}
