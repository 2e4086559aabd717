// Package telemetry configures OpenTelemetry tracing for outgoing backend calls.
package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.uber.org/zap"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noop(context.Context) error { return nil }

// Setup installs a global tracer provider exporting over OTLP gRPC.
// Tracing stays disabled when OTEL_EXPORTER_OTLP_ENDPOINT is unset. The exporter
// reads the endpoint URL and the other OTEL_EXPORTER_OTLP_* variables itself.
func Setup(ctx context.Context, serviceName string, logger *zap.Logger) ShutdownFunc {
	endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if endpoint == "" {
		return noop
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		logger.Warn("otel exporter is not available, tracing disabled", zap.Error(err))
		return noop
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		logger.Warn("otel resource", zap.Error(err))
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	logger.Debug("tracing enabled", zap.String("endpoint", endpoint), zap.String("service", serviceName))

	return provider.Shutdown
}
