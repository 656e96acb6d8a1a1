// Package observe provides application-wide observability primitives for
// SiteVoice: OpenTelemetry metrics, distributed tracing, and structured
// logging helpers.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all SiteVoice metrics.
const meterName = "github.com/siteproof/sitevoice"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use, the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms per pipeline stage ---

	// NormalizeDuration tracks audio preprocessing latency.
	NormalizeDuration metric.Float64Histogram

	// RecognitionDuration tracks speech-to-text latency across providers,
	// including fallback attempts.
	RecognitionDuration metric.Float64Histogram

	// ClassificationDuration tracks context classification latency.
	ClassificationDuration metric.Float64Histogram

	// DisambiguationDuration tracks transcript disambiguation latency.
	DisambiguationDuration metric.Float64Histogram

	// PipelineDuration tracks end-to-end submission processing latency.
	PipelineDuration metric.Float64Histogram

	// --- Counters ---

	// ProviderRequests counts provider API calls. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...), attribute.String("status", ...)
	ProviderRequests metric.Int64Counter

	// RoutingDecisions counts routing outcomes. Use with attribute:
	//   attribute.String("route", ...)
	RoutingDecisions metric.Int64Counter

	// SuggestionsGenerated counts emitted suggestions. Use with attribute:
	//   attribute.String("type", ...)
	SuggestionsGenerated metric.Int64Counter

	// DegradedStages counts non-terminal stage degradations. Use with
	// attribute: attribute.String("stage", ...)
	DegradedStages metric.Int64Counter

	// --- Error counters ---

	// ProviderErrors counts provider errors. Use with attributes:
	//   attribute.String("provider", ...), attribute.String("kind", ...)
	ProviderErrors metric.Int64Counter

	// --- Gauges ---

	// ActivePipelines tracks the number of submissions currently in flight.
	ActivePipelines metric.Int64UpDownCounter
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// transcription-pipeline latencies, where recognition polling dominates.
var latencyBuckets = []float64{
	0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.NormalizeDuration, err = m.Float64Histogram("sitevoice.normalize.duration",
		metric.WithDescription("Latency of audio preprocessing."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.RecognitionDuration, err = m.Float64Histogram("sitevoice.recognition.duration",
		metric.WithDescription("Latency of speech-to-text recognition including fallback."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ClassificationDuration, err = m.Float64Histogram("sitevoice.classification.duration",
		metric.WithDescription("Latency of context classification."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.DisambiguationDuration, err = m.Float64Histogram("sitevoice.disambiguation.duration",
		metric.WithDescription("Latency of transcript disambiguation."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.PipelineDuration, err = m.Float64Histogram("sitevoice.pipeline.duration",
		metric.WithDescription("End-to-end submission processing latency."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.ProviderRequests, err = m.Int64Counter("sitevoice.provider.requests",
		metric.WithDescription("Total provider API requests by provider, kind, and status."),
	); err != nil {
		return nil, err
	}
	if met.RoutingDecisions, err = m.Int64Counter("sitevoice.routing.decisions",
		metric.WithDescription("Total routing decisions by route."),
	); err != nil {
		return nil, err
	}
	if met.SuggestionsGenerated, err = m.Int64Counter("sitevoice.suggestions.generated",
		metric.WithDescription("Total suggestions emitted by type."),
	); err != nil {
		return nil, err
	}
	if met.DegradedStages, err = m.Int64Counter("sitevoice.stage.degraded",
		metric.WithDescription("Total non-terminal stage degradations by stage."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ProviderErrors, err = m.Int64Counter("sitevoice.provider.errors",
		metric.WithDescription("Total provider errors by provider and kind."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActivePipelines, err = m.Int64UpDownCounter("sitevoice.active_pipelines",
		metric.WithDescription("Number of submissions currently being processed."),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is a convenience alias for [attribute.String] to reduce verbosity at
// call sites.
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordProviderRequest is a convenience method that records a provider
// request counter increment with the standard attribute set.
func (m *Metrics) RecordProviderRequest(ctx context.Context, provider, kind, status string) {
	m.ProviderRequests.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
			attribute.String("status", status),
		),
	)
}

// RecordProviderError is a convenience method that records a provider error
// counter increment.
func (m *Metrics) RecordProviderError(ctx context.Context, provider, kind string) {
	m.ProviderErrors.Add(ctx, 1,
		metric.WithAttributes(
			attribute.String("provider", provider),
			attribute.String("kind", kind),
		),
	)
}

// RecordRoutingDecision records a routing outcome counter increment.
func (m *Metrics) RecordRoutingDecision(ctx context.Context, route string) {
	m.RoutingDecisions.Add(ctx, 1,
		metric.WithAttributes(attribute.String("route", route)),
	)
}

// RecordSuggestion records an emitted suggestion counter increment.
func (m *Metrics) RecordSuggestion(ctx context.Context, suggestionType string) {
	m.SuggestionsGenerated.Add(ctx, 1,
		metric.WithAttributes(attribute.String("type", suggestionType)),
	)
}

// RecordDegradedStage records a non-terminal stage degradation.
func (m *Metrics) RecordDegradedStage(ctx context.Context, stage string) {
	m.DegradedStages.Add(ctx, 1,
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
