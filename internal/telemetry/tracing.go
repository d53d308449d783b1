package telemetry

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const (
	// TracerName names the tracer used by the workflows.
	TracerName                          = "github.com/temirov/shipyard"
	createExporterErrorTemplateConstant = "create trace exporter for %s: %w"
	createResourceErrorTemplateConstant = "create trace resource: %w"
)

// ShutdownFunc flushes and stops a tracer provider.
type ShutdownFunc func(context.Context) error

// TracingOptions configure trace export.
type TracingOptions struct {
	Endpoint       string
	ServiceName    string
	ServiceVersion string
}

// SetupTracing returns a tracer provider. Without an endpoint it returns a no-op provider.
// With an endpoint it exports spans over OTLP/HTTP and registers the provider globally.
func SetupTracing(executionContext context.Context, options TracingOptions) (trace.TracerProvider, ShutdownFunc, error) {
	noopShutdown := func(context.Context) error { return nil }

	endpoint := strings.TrimSpace(options.Endpoint)
	if len(endpoint) == 0 {
		return noop.NewTracerProvider(), noopShutdown, nil
	}

	exporter, exporterError := otlptracehttp.New(executionContext, otlptracehttp.WithEndpointURL(endpoint))
	if exporterError != nil {
		return nil, noopShutdown, fmt.Errorf(createExporterErrorTemplateConstant, endpoint, exporterError)
	}

	serviceResource, resourceError := resource.New(executionContext,
		resource.WithAttributes(
			semconv.ServiceName(options.ServiceName),
			semconv.ServiceVersion(options.ServiceVersion),
		),
	)
	if resourceError != nil {
		return nil, noopShutdown, fmt.Errorf(createResourceErrorTemplateConstant, resourceError)
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(serviceResource),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return tracerProvider, tracerProvider.Shutdown, nil
}

// Tracer returns the workflow tracer from provider, or a no-op tracer when provider is nil.
func Tracer(provider trace.TracerProvider) trace.Tracer {
	if provider == nil {
		return noop.NewTracerProvider().Tracer(TracerName)
	}
	return provider.Tracer(TracerName)
}
