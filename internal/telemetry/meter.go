package telemetry

import (
	"context"
	"fmt"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

// InitMeter ставит глобальный MeterProvider с OTLP экспортом.
// Пустой endpoint - метрики остаются no-op.
func InitMeter(ctx context.Context, endpoint string) (func(), error) {
	if endpoint == "" {
		return func() {}, nil
	}

	exporter, err := otlpmetricgrpc.New(ctx,
		otlpmetricgrpc.WithEndpoint(endpoint),
		otlpmetricgrpc.WithInsecure(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP metric exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(30*time.Second))),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	log.Printf("✅ OpenTelemetry metrics exporting to %s", endpoint)

	return func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Printf("❌ Failed to shutdown meter provider: %v", err)
		}
	}, nil
}

// Init включает трейсы и метрики. shutdown сбрасывает оба провайдера.
func Init(ctx context.Context, endpoint string) (func(), error) {
	shutdownTracer, err := InitTracer(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	shutdownMeter, err := InitMeter(ctx, endpoint)
	if err != nil {
		shutdownTracer()
		return nil, err
	}

	return func() {
		shutdownMeter()
		shutdownTracer()
	}, nil
}
