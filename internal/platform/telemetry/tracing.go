// Package telemetry wires OpenTelemetry tracing. When no OTLP endpoint is
// configured the global no-op provider stays in place and spans cost nothing.
package telemetry

import (
	"context"
	"fmt"
	"net/url"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/ridloal/gym-membership-service/internal/platform/config"
	"github.com/ridloal/gym-membership-service/internal/platform/logger"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(context.Context) error

func noopShutdown(context.Context) error { return nil }

func SetupTracing(ctx context.Context, cfg config.TelemetryConfig) (ShutdownFunc, error) {
	if cfg.OTLPEndpoint == "" {
		logger.Info("Tracing disabled, OTEL_EXPORTER_OTLP_ENDPOINT not set")
		return noopShutdown, nil
	}

	endpoint, err := url.Parse(cfg.OTLPEndpoint)
	if err != nil || endpoint.Host == "" {
		return nil, fmt.Errorf("invalid OTLP endpoint %q", cfg.OTLPEndpoint)
	}
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(endpoint.Host)}
	if endpoint.Scheme == "http" {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	if endpoint.Path != "" && endpoint.Path != "/" {
		opts = append(opts, otlptracehttp.WithURLPath(endpoint.Path))
	}

	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res := resource.NewSchemaless(attribute.String("service.name", cfg.ServiceName))
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Info("Tracing enabled", "endpoint", cfg.OTLPEndpoint, "service", cfg.ServiceName)
	return tp.Shutdown, nil
}
