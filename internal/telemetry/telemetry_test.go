package telemetry

import (
	"context"
	"testing"

	"github.com/kneasle/monument/internal/config"
)

func TestInitTracerDisabledReturnsNoopShutdown(t *testing.T) {
	shutdown := InitTracer(config.TelemetryConfig{Tracing: config.TracingConfig{Enabled: false}}, "compose")
	if err := shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown() = %v, want nil", err)
	}
}

func TestInitTracerStdoutExporterSucceeds(t *testing.T) {
	shutdown := InitTracer(config.TelemetryConfig{Tracing: config.TracingConfig{Enabled: true, Exporter: "stdout"}}, "compose")
	defer shutdown(context.Background())

	ctx, end := StartPhase(context.Background(), "test-phase")
	if ctx == nil {
		t.Fatal("StartPhase returned nil context")
	}
	end()
}
