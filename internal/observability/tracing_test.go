package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTracerProviderRegistersGlobalProvider(t *testing.T) {
	tp := NewTracerProvider("kgraph-test")
	require.NotNil(t, tp)
	defer tp.Shutdown(context.Background())

	tracer := Tracer("kgraph-test")
	assert.NotNil(t, tracer)
}

func TestStartSpanReturnsActiveSpan(t *testing.T) {
	tp := NewTracerProvider("kgraph-test")
	defer tp.Shutdown(context.Background())

	ctx, span := StartSpan(context.Background(), "kgraph-test", "ingest_document")
	defer span.End()

	require.NotNil(t, span)
	assert.True(t, span.SpanContext().IsValid())
	assert.NotNil(t, ctx)
}
