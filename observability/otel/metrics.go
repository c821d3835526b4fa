// Package otel exports dispatcher metrics through an OpenTelemetry meter.
package otel

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/Swind/go-dispatcher/core"
)

// meterName is the instrumentation scope name for dispatcher metrics.
const meterName = "github.com/Swind/go-dispatcher"

// MetricsExporter adapts core.Metrics to OpenTelemetry instruments.
//
// Instruments:
//   - dispatcher.dispatch (Int64Counter): routing decisions, attribute route
//   - dispatcher.task.duration (Float64Histogram): seconds, attribute runner
//   - dispatcher.task.panics (Int64Counter): attribute runner
//   - dispatcher.task.rejected (Int64Counter): attributes runner, reason
//   - dispatcher.queue.depth (Int64Gauge): attribute runner
type MetricsExporter struct {
	dispatches metric.Int64Counter
	duration   metric.Float64Histogram
	panics     metric.Int64Counter
	rejected   metric.Int64Counter
	depth      metric.Int64Gauge
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter uses the global MeterProvider. Without one configured
// every instrument is a noop.
func NewMetricsExporter() *MetricsExporter {
	return NewMetricsExporterWithMeter(otel.Meter(meterName))
}

// NewMetricsExporterWithMeter uses the provided meter.
func NewMetricsExporterWithMeter(meter metric.Meter) *MetricsExporter {
	// On error the API returns noop instruments.
	dispatches, _ := meter.Int64Counter(
		"dispatcher.dispatch",
		metric.WithDescription("Number of routing decisions"),
		metric.WithUnit("{task}"),
	)
	duration, _ := meter.Float64Histogram(
		"dispatcher.task.duration",
		metric.WithDescription("Duration of queued task execution in seconds"),
		metric.WithUnit("s"),
	)
	panics, _ := meter.Int64Counter(
		"dispatcher.task.panics",
		metric.WithDescription("Number of queued tasks that panicked"),
		metric.WithUnit("{task}"),
	)
	rejected, _ := meter.Int64Counter(
		"dispatcher.task.rejected",
		metric.WithDescription("Number of tasks rejected after shutdown"),
		metric.WithUnit("{task}"),
	)
	depth, _ := meter.Int64Gauge(
		"dispatcher.queue.depth",
		metric.WithDescription("Queue depth observed at the last post"),
		metric.WithUnit("{task}"),
	)

	return &MetricsExporter{
		dispatches: dispatches,
		duration:   duration,
		panics:     panics,
		rejected:   rejected,
		depth:      depth,
	}
}

func (m *MetricsExporter) RecordDispatch(route core.Route) {
	m.dispatches.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("route", route.String())))
}

func (m *MetricsExporter) RecordTaskDuration(runnerName string, duration time.Duration) {
	m.duration.Record(context.Background(), duration.Seconds(),
		metric.WithAttributes(attribute.String("runner", runnerName)))
}

func (m *MetricsExporter) RecordTaskPanic(runnerName string, _ any) {
	m.panics.Add(context.Background(), 1,
		metric.WithAttributes(attribute.String("runner", runnerName)))
}

func (m *MetricsExporter) RecordQueueDepth(runnerName string, depth int) {
	m.depth.Record(context.Background(), int64(depth),
		metric.WithAttributes(attribute.String("runner", runnerName)))
}

func (m *MetricsExporter) RecordTaskRejected(runnerName string, reason string) {
	m.rejected.Add(context.Background(), 1,
		metric.WithAttributes(
			attribute.String("runner", runnerName),
			attribute.String("reason", reason),
		))
}
