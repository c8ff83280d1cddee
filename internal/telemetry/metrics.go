package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics - метрики HTTP сервиса
type Metrics struct {
	RequestCounter  metric.Int64Counter
	RequestDuration metric.Float64Histogram
	Generations     metric.Int64Counter
}

func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(ServiceName)

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	generations, err := meter.Int64Counter(
		"generation.requests.total",
		metric.WithDescription("Answers requested from the chat model"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:  requestCounter,
		RequestDuration: requestDuration,
		Generations:     generations,
	}, nil
}

func (m *Metrics) RecordRequest(ctx context.Context, method, route, status string, duration float64) {
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("route", route),
		attribute.String("status", status),
	)
	m.RequestCounter.Add(ctx, 1, attrs)
	m.RequestDuration.Record(ctx, duration, attrs)
}

func (m *Metrics) RecordGeneration(ctx context.Context, ok bool) {
	m.Generations.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", ok)))
}
