package main

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Swind/go-dispatcher/core"
	dotel "github.com/Swind/go-dispatcher/observability/otel"
)

// fanout forwards every observation to each collector in turn.
type fanout []core.Metrics

func (f fanout) RecordDispatch(route core.Route) {
	for _, m := range f {
		m.RecordDispatch(route)
	}
}

func (f fanout) RecordTaskDuration(runnerName string, d time.Duration) {
	for _, m := range f {
		m.RecordTaskDuration(runnerName, d)
	}
}

func (f fanout) RecordTaskPanic(runnerName string, panicInfo any) {
	for _, m := range f {
		m.RecordTaskPanic(runnerName, panicInfo)
	}
}

func (f fanout) RecordQueueDepth(runnerName string, depth int) {
	for _, m := range f {
		m.RecordQueueDepth(runnerName, depth)
	}
}

func (f fanout) RecordTaskRejected(runnerName string, reason string) {
	for _, m := range f {
		m.RecordTaskRejected(runnerName, reason)
	}
}

// otelSummary records into an in-process OpenTelemetry pipeline and prints
// the dispatch counters on demand.
type otelSummary struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	exporter *dotel.MetricsExporter
}

func newOtelSummary() *otelSummary {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return &otelSummary{
		reader:   reader,
		provider: provider,
		exporter: dotel.NewMetricsExporterWithMeter(provider.Meter("dispatchdemo")),
	}
}

func (s *otelSummary) print(ctx context.Context) error {
	var rm metricdata.ResourceMetrics
	if err := s.reader.Collect(ctx, &rm); err != nil {
		return err
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				fmt.Printf("otel %s %s = %d\n", m.Name, dp.Attributes.Encoded(attribute.DefaultEncoder()), dp.Value)
			}
		}
	}
	return nil
}

func (s *otelSummary) shutdown(ctx context.Context) error {
	return s.provider.Shutdown(ctx)
}
