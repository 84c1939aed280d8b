// Package telemetry wires OpenTelemetry tracing and metrics for the
// catalog process. It follows the teacher's delegating-provider idiom
// (internal/storage/dolt/store.go's doltTracer/doltMetrics): package-level
// instruments are registered against the global otel provider at init
// time, which is a no-op until Init runs, so instrumented packages never
// need to know whether telemetry is enabled.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	stdoutmetric "go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	stdouttrace "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/hdc-platform/metadata-catalog/internal/config"
)

// Shutdown flushes and closes the configured exporters. Safe to call even
// when telemetry was never initialized (Init returns a no-op in that case).
type Shutdown func(context.Context) error

// Init installs global TracerProvider and MeterProvider instances per cfg.
// When cfg.Enabled is false, the global no-op providers are left in place
// and every otel.Tracer/otel.Meter call elsewhere in the process is free.
func Init(ctx context.Context, cfg config.TelemetrySettings) (Shutdown, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(attribute.String("service.name", serviceName(cfg))),
	)
	if err != nil {
		return nil, fmt.Errorf("telemetry: build resource: %w", err)
	}

	traceExporter, err := stdouttrace.New()
	if err != nil {
		return nil, fmt.Errorf("telemetry: build trace exporter: %w", err)
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	metricReader, err := buildMetricReader(ctx, cfg)
	if err != nil {
		return nil, err
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(metricReader),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	return func(shutdownCtx context.Context) error {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return mp.Shutdown(shutdownCtx)
	}, nil
}

func buildMetricReader(ctx context.Context, cfg config.TelemetrySettings) (sdkmetric.Reader, error) {
	if cfg.OTLPEndpoint != "" {
		exp, err := otlpmetrichttp.New(ctx, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		if err != nil {
			if !cfg.StdoutFallback {
				return nil, fmt.Errorf("telemetry: build otlp metric exporter: %w", err)
			}
		} else {
			return sdkmetric.NewPeriodicReader(exp), nil
		}
	}
	exp, err := stdoutmetric.New()
	if err != nil {
		return nil, fmt.Errorf("telemetry: build stdout metric exporter: %w", err)
	}
	return sdkmetric.NewPeriodicReader(exp), nil
}

func serviceName(cfg config.TelemetrySettings) string {
	if cfg.ServiceName != "" {
		return cfg.ServiceName
	}
	return "metadata-catalog"
}

// Tracer returns the process-wide tracer for the catalog's own spans,
// mirroring the teacher's package-level doltTracer.
var Tracer = otel.Tracer("github.com/hdc-platform/metadata-catalog")

// Meter is the process-wide meter for the catalog's own instruments.
var Meter = otel.Meter("github.com/hdc-platform/metadata-catalog")

// EndSpan records an error (if any) and ends the span, mirroring the
// teacher's endSpan helper in internal/storage/dolt/store.go.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
	span.End()
}
