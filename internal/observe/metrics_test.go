package observe

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
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

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestHistogramObservation(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	histograms := []struct {
		name string
		h    metric.Float64Histogram
	}{
		{"sitevoice.normalize.duration", m.NormalizeDuration},
		{"sitevoice.recognition.duration", m.RecognitionDuration},
		{"sitevoice.classification.duration", m.ClassificationDuration},
		{"sitevoice.disambiguation.duration", m.DisambiguationDuration},
		{"sitevoice.pipeline.duration", m.PipelineDuration},
	}

	for _, tc := range histograms {
		tc.h.Record(ctx, 0.123)
		tc.h.Record(ctx, 4.56)
	}

	rm := collect(t, reader)

	for _, tc := range histograms {
		t.Run(tc.name, func(t *testing.T) {
			met := findMetric(rm, tc.name)
			if met == nil {
				t.Fatalf("metric %q not found", tc.name)
			}
			hist, ok := met.Data.(metricdata.Histogram[float64])
			if !ok {
				t.Fatalf("metric %q is not a histogram", tc.name)
			}
			if len(hist.DataPoints) == 0 {
				t.Fatalf("metric %q has no data points", tc.name)
			}
			if got := hist.DataPoints[0].Count; got != 2 {
				t.Errorf("sample count = %d, want 2", got)
			}
		})
	}
}

// counterValue finds the int64 sum data point whose attribute key equals
// value, or -1 when absent.
func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name, key, value string) int64 {
	t.Helper()
	met := findMetric(rm, name)
	if met == nil {
		t.Fatalf("metric %q not found", name)
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("metric %q is not a sum", name)
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == key && kv.Value.AsString() == value {
				return dp.Value
			}
		}
	}
	return -1
}

func TestProviderRequestCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordProviderRequest(ctx, "assemblyai", "stt", "ok")
	m.RecordProviderRequest(ctx, "assemblyai", "stt", "ok")
	m.RecordProviderRequest(ctx, "whisper", "stt", "error")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "sitevoice.provider.requests", "provider", "assemblyai"); got != 2 {
		t.Errorf("assemblyai requests = %d, want 2", got)
	}
	if got := counterValue(t, rm, "sitevoice.provider.requests", "status", "error"); got != 1 {
		t.Errorf("error requests = %d, want 1", got)
	}
}

func TestRoutingDecisionCounter(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRoutingDecision(ctx, "MANUAL_REVIEW")
	m.RecordRoutingDecision(ctx, "MANUAL_REVIEW")
	m.RecordRoutingDecision(ctx, "AUTO_APPROVE")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "sitevoice.routing.decisions", "route", "MANUAL_REVIEW"); got != 2 {
		t.Errorf("manual review decisions = %d, want 2", got)
	}
}

func TestSuggestionAndDegradationCounters(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSuggestion(ctx, "currency")
	m.RecordSuggestion(ctx, "currency")
	m.RecordSuggestion(ctx, "safety")
	m.RecordDegradedStage(ctx, "classification")

	rm := collect(t, reader)
	if got := counterValue(t, rm, "sitevoice.suggestions.generated", "type", "currency"); got != 2 {
		t.Errorf("currency suggestions = %d, want 2", got)
	}
	if got := counterValue(t, rm, "sitevoice.stage.degraded", "stage", "classification"); got != 1 {
		t.Errorf("classification degradations = %d, want 1", got)
	}
}

func TestActivePipelinesGauge(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.ActivePipelines.Add(ctx, 1)
	m.ActivePipelines.Add(ctx, 1)
	m.ActivePipelines.Add(ctx, -1)

	rm := collect(t, reader)
	met := findMetric(rm, "sitevoice.active_pipelines")
	if met == nil {
		t.Fatal("metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("metric is not a sum")
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Errorf("gauge value = %+v, want 1", sum.DataPoints)
	}
}

func TestAttrHelper(t *testing.T) {
	kv := Attr("provider", "whisper")
	if kv.Key != attribute.Key("provider") || kv.Value.AsString() != "whisper" {
		t.Errorf("Attr = %+v", kv)
	}
}
