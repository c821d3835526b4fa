package otel_test

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Swind/go-dispatcher/core"
	dotel "github.com/Swind/go-dispatcher/observability/otel"
)

func setupTestMeter() (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	return reader, mp
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestMetricsExporter_CountsRoutes(t *testing.T) {
	reader, mp := setupTestMeter()
	m := dotel.NewMetricsExporterWithMeter(mp.Meter("test"))

	m.RecordDispatch(core.RouteInline)
	m.RecordDispatch(core.RouteInline)
	m.RecordDispatch(core.RouteForeground)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "dispatcher.dispatch")
	if metric == nil {
		t.Fatal("dispatcher.dispatch metric not found")
	}
	sum, ok := metric.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("expected Sum[int64] data type")
	}

	counts := map[string]int64{}
	for _, dp := range sum.DataPoints {
		route, _ := dp.Attributes.Value(attribute.Key("route"))
		counts[route.AsString()] = dp.Value
	}
	if counts["inline"] != 2 {
		t.Errorf("inline: want 2, got %d", counts["inline"])
	}
	if counts["foreground"] != 1 {
		t.Errorf("foreground: want 1, got %d", counts["foreground"])
	}
}

func TestMetricsExporter_RecordsDuration(t *testing.T) {
	reader, mp := setupTestMeter()
	m := dotel.NewMetricsExporterWithMeter(mp.Meter("test"))

	m.RecordTaskDuration("foreground", 20*time.Millisecond)

	rm := collectMetrics(t, reader)
	metric := findMetric(rm, "dispatcher.task.duration")
	if metric == nil {
		t.Fatal("dispatcher.task.duration metric not found")
	}
	hist, ok := metric.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("expected Histogram[float64] data type")
	}
	if len(hist.DataPoints) != 1 || hist.DataPoints[0].Count != 1 {
		t.Fatalf("expected one sample, got %+v", hist.DataPoints)
	}
}

func TestMetricsExporter_PanicsAndRejections(t *testing.T) {
	reader, mp := setupTestMeter()
	m := dotel.NewMetricsExporterWithMeter(mp.Meter("test"))

	m.RecordTaskPanic("background-1", "boom")
	m.RecordTaskRejected("foreground", "shutting down")
	m.RecordQueueDepth("foreground", 3)

	rm := collectMetrics(t, reader)
	for _, name := range []string{"dispatcher.task.panics", "dispatcher.task.rejected", "dispatcher.queue.depth"} {
		if findMetric(rm, name) == nil {
			t.Errorf("%s metric not found", name)
		}
	}
}
