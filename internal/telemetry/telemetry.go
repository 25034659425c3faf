package telemetry

import (
	"context"
	"log"

	"github.com/gather-app/gather-backend/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// ShutdownFunc flushes pending spans.
type ShutdownFunc func(context.Context) error

// Setup registers a global tracer provider exporting over OTLP/HTTP.
// Without OTEL_EXPORTER_OTLP_ENDPOINT it returns a no-op shutdown and leaves
// the global no-op provider in place.
func Setup(ctx context.Context, cfg *config.Config) (ShutdownFunc, error) {
	noop := func(context.Context) error { return nil }
	if cfg.OTLPEndpoint == "" {
		log.Println("ℹ️ OTEL_EXPORTER_OTLP_ENDPOINT not set, tracing disabled")
		return noop, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.OTLPEndpoint))
	if err != nil {
		return noop, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(cfg.ServiceName)))
	if err != nil {
		return noop, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Printf("✅ Tracing exported to %s as %q", cfg.OTLPEndpoint, cfg.ServiceName)
	return tp.Shutdown, nil
}
