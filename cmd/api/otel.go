package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"measurements-server/internal/infra/node"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	_otelEndpointEnv     = "MEASUREMENTS_SERVER_OTELCOL_ENDPOINT"
	_defaultOTelEndpoint = "localhost:4317"
	_collectPeriod       = 30 * time.Second
	_collectTimeout      = 35 * time.Second
	_memStatsInterval    = time.Minute
)

var _histogramBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type shutdownFunc func(context.Context) error

// startOTel installs the global meter and tracer providers. Exporters dial
// lazily, so a missing collector only shows up as export errors.
func startOTel() shutdownFunc {
	slog.Info("starting OTel providers", slog.String("endpoint", otelEndpoint()))

	ctx := context.Background()
	res := serviceResource()

	meterProvider, err := newMeterProvider(ctx, res)
	if err != nil {
		panic(err)
	}
	otel.SetMeterProvider(meterProvider)
	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(_memStatsInterval)); err != nil {
		panic(err)
	}

	tracerProvider, err := newTracerProvider(ctx, res)
	if err != nil {
		panic(err)
	}
	otel.SetTracerProvider(tracerProvider)

	return func(ctx context.Context) error {
		return errors.Join(meterProvider.Shutdown(ctx), tracerProvider.Shutdown(ctx))
	}
}

func otelEndpoint() string {
	if value, ok := os.LookupEnv(_otelEndpointEnv); ok {
		return value
	}
	return _defaultOTelEndpoint
}

func serviceResource() *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String("measurements-server"),
		semconv.ServiceVersionKey.String(node.Version),
	)
}

func newTracerProvider(ctx context.Context, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(otelEndpoint()),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

func newMeterProvider(ctx context.Context, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(otelEndpoint()),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter,
		sdkmetric.WithTimeout(_collectTimeout),
		sdkmetric.WithInterval(_collectPeriod),
	)
	histograms := sdkmetric.NewView(
		sdkmetric.Instrument{Name: "*", Kind: sdkmetric.InstrumentKindHistogram},
		sdkmetric.Stream{Aggregation: sdkmetric.AggregationExplicitBucketHistogram{Boundaries: _histogramBuckets}},
	)

	return sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(reader),
		sdkmetric.WithView(histograms),
	), nil
}
