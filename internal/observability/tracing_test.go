// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Passgate Contributors

package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

func TestSetupTracing_WithoutEndpoint(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	prevProp := otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	shutdown, err := SetupTracing(context.Background(), TracingConfig{
		ServiceName:    "passgate-test",
		ServiceVersion: "test",
	})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(context.Background(), "op")
	assert.True(t, span.SpanContext().IsValid())
	assert.True(t, span.SpanContext().IsSampled())
	span.End()

	carrier := propagation.MapCarrier{}
	ctx, span := otel.Tracer("test").Start(context.Background(), "inject")
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	span.End()
	assert.NotEmpty(t, carrier.Get("traceparent"))

	require.NoError(t, shutdown(context.Background()))
}

func TestSampleRatio(t *testing.T) {
	assert.InDelta(t, 1.0, sampleRatio(0), 0)
	assert.InDelta(t, 1.0, sampleRatio(-1), 0)
	assert.InDelta(t, 1.0, sampleRatio(2), 0)
	assert.InDelta(t, 0.25, sampleRatio(0.25), 0)
}
