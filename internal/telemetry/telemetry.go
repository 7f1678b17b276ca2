// Package telemetry initialises an OpenTelemetry tracer for the compose
// pipeline. Only the stdout exporter is supported: this is a single-process
// batch search with no RPC layer to propagate trace context across, so the
// grpc/jaeger/otlp exporter branches the teacher's DHT nodes need for a
// distributed trace never apply here.
package telemetry

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kneasle/monument/internal/config"
)

// InitTracer configures the global tracer provider per cfg, returning a
// shutdown function the caller must invoke before exiting. When tracing is
// disabled, it returns a no-op shutdown.
func InitTracer(cfg config.TelemetryConfig, serviceName string) func(context.Context) error {
	if !cfg.Tracing.Enabled {
		log.Println("tracing disabled")
		return func(context.Context) error { return nil }
	}

	res, err := resource.New(
		context.Background(),
		resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)),
	)
	if err != nil {
		log.Fatalf("failed to create resource: %v", err)
	}

	var tp *sdktrace.TracerProvider
	switch cfg.Tracing.Exporter {
	case "stdout":
		exp, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			log.Fatalf("failed to initialize stdout exporter: %v", err)
		}
		tp = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exp),
			sdktrace.WithResource(res),
		)
	default:
		panic(fmt.Sprintf("unsupported exporter: %s", cfg.Tracing.Exporter))
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(
		propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		),
	)

	return tp.Shutdown
}

// Tracer is the named tracer StartPhase starts spans from.
func Tracer() trace.Tracer {
	return otel.Tracer("monument/orchestrator")
}

// StartPhase starts a span named after a pipeline phase (build, optimise,
// compact, search, render), returning the span-bearing context and an end
// function the caller defers.
func StartPhase(ctx context.Context, phase string, attrs ...attribute.KeyValue) (context.Context, func()) {
	ctx, span := Tracer().Start(ctx, phase, trace.WithAttributes(attrs...))
	return ctx, func() { span.End() }
}
