package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the metric instruments for the transcription service. All
// record methods tolerate a nil receiver so callers built without telemetry
// need no guards.
type Metrics struct {
	requestTotal      metric.Int64Counter
	requestDuration   metric.Float64Histogram
	requestActive     metric.Int64UpDownCounter
	inferenceDuration metric.Float64Histogram
	modelLoadDuration metric.Float64Histogram
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	requestTotal, err := meter.Int64Counter("transcribe.requests",
		metric.WithDescription("Total number of transcription requests"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.requests counter: %w", err)
	}

	requestDuration, err := meter.Float64Histogram("transcribe.duration",
		metric.WithDescription("Duration of transcription requests in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.duration histogram: %w", err)
	}

	requestActive, err := meter.Int64UpDownCounter("transcribe.active",
		metric.WithDescription("Number of transcription requests in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transcribe.active gauge: %w", err)
	}

	inferenceDuration, err := meter.Float64Histogram("engine.inference.duration",
		metric.WithDescription("Duration of engine inference calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating engine.inference.duration histogram: %w", err)
	}

	modelLoadDuration, err := meter.Float64Histogram("model.load.duration",
		metric.WithDescription("Duration of backend model loading in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating model.load.duration histogram: %w", err)
	}

	return &Metrics{
		requestTotal:      requestTotal,
		requestDuration:   requestDuration,
		requestActive:     requestActive,
		inferenceDuration: inferenceDuration,
		modelLoadDuration: modelLoadDuration,
	}, nil
}

// RecordRequestStart increments the in-flight request count.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, 1)
}

// RecordRequestEnd decrements in-flight requests and records the completed
// request against the backend that served it.
func (m *Metrics) RecordRequestEnd(ctx context.Context, backend, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestActive.Add(ctx, -1)
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrBackend, backend),
		attribute.String(AttrStatus, status),
	))
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrBackend, backend),
	))
}

// RecordInference records one engine inference call.
func (m *Metrics) RecordInference(ctx context.Context, backend string, duration time.Duration) {
	if m == nil {
		return
	}
	m.inferenceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrBackend, backend),
	))
}

// RecordModelLoad records how long backend initialization took.
func (m *Metrics) RecordModelLoad(ctx context.Context, backend string, duration time.Duration) {
	if m == nil {
		return
	}
	m.modelLoadDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrBackend, backend),
	))
}
