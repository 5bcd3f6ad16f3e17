package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

// NewTracerProvider builds an in-process tracer provider, sampling every
// span, and registers it as the global provider so any package can call
// otel.Tracer(name) and get a real tracer. No exporter is attached here.
// internal/app calls this while building its container, so a global
// provider registered before that is replaced by this one.
func NewTracerProvider(serviceName string) *sdktrace.TracerProvider {
	res := resource.NewSchemaless(attribute.String("service.name", serviceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	return tp
}

// Tracer is the package-wide entry point every component spans from,
// mirroring otel's own top-level otel.Tracer convenience function.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// StartSpan starts a span named name under ctx's tracer, a thin wrapper so
// callers don't need to import go.opentelemetry.io/otel/trace directly.
func StartSpan(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	return Tracer(tracerName).Start(ctx, spanName)
}
