// Package observe provides application-wide observability primitives for the
// streaming VAD daemon: OpenTelemetry metrics, distributed tracing,
// structured logging, and HTTP middleware that ties them together.
//
// Metrics are recorded through the OpenTelemetry Metrics API. A Prometheus
// exporter bridge is available via [InitProvider] so that metrics can still be
// scraped via the standard /metrics endpoint. A package-level default
// [Metrics] instance ([DefaultMetrics]) is provided for convenience; tests
// should use [NewMetrics] with a custom [metric.MeterProvider] to avoid
// cross-test pollution.
//
// The segmentation engine itself never records telemetry — all instruments
// here are driven from the pipeline layer that wraps it.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all daemon metrics.
const meterName = "github.com/fujie-cit/streaming-vad"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// --- Latency histograms ---

	// ProcessDuration tracks per-frame processing latency, including the
	// classifier invocation when one falls on the frame.
	ProcessDuration metric.Float64Histogram

	// SegmentDuration tracks the wall-clock length of detected speech
	// segments, from Started to Ended.
	SegmentDuration metric.Float64Histogram

	// --- Counters ---

	// FramesProcessed counts processed input frames. Use with attribute:
	//   attribute.String("state", ...)
	FramesProcessed metric.Int64Counter

	// SegmentsStarted counts detected speech onsets.
	SegmentsStarted metric.Int64Counter

	// SegmentsEnded counts completed speech segments.
	SegmentsEnded metric.Int64Counter

	// --- Error counters ---

	// ClassifierErrors counts classifier failures. Use with attribute:
	//   attribute.String("classifier", ...)
	ClassifierErrors metric.Int64Counter

	// --- Gauges ---

	// ActiveStreams tracks the number of audio streams currently being
	// segmented.
	ActiveStreams metric.Int64UpDownCounter

	// --- HTTP middleware ---

	// HTTPRequestDuration tracks HTTP request processing time. Use with attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// processBuckets defines histogram bucket boundaries (in seconds) for the
// per-frame hot path, which completes in well under a frame interval.
var processBuckets = []float64{
	0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1,
}

// segmentBuckets defines histogram bucket boundaries (in seconds) for
// detected speech segment lengths.
var segmentBuckets = []float64{
	0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	// Histograms.
	if met.ProcessDuration, err = m.Float64Histogram("vad.process.duration",
		metric.WithDescription("Latency of processing a single input frame."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(processBuckets...),
	); err != nil {
		return nil, err
	}
	if met.SegmentDuration, err = m.Float64Histogram("vad.segment.duration",
		metric.WithDescription("Wall-clock length of detected speech segments."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(segmentBuckets...),
	); err != nil {
		return nil, err
	}

	// Counters.
	if met.FramesProcessed, err = m.Int64Counter("vad.frames.processed",
		metric.WithDescription("Total input frames processed by segmentation state."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsStarted, err = m.Int64Counter("vad.segments.started",
		metric.WithDescription("Total detected speech onsets."),
	); err != nil {
		return nil, err
	}
	if met.SegmentsEnded, err = m.Int64Counter("vad.segments.ended",
		metric.WithDescription("Total completed speech segments."),
	); err != nil {
		return nil, err
	}

	// Error counters.
	if met.ClassifierErrors, err = m.Int64Counter("vad.classifier.errors",
		metric.WithDescription("Total classifier failures by classifier name."),
	); err != nil {
		return nil, err
	}

	// Gauges (UpDownCounters).
	if met.ActiveStreams, err = m.Int64UpDownCounter("vad.active_streams",
		metric.WithDescription("Number of audio streams currently being segmented."),
	); err != nil {
		return nil, err
	}

	// HTTP middleware histogram.
	if met.HTTPRequestDuration, err = m.Float64Histogram("vad.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
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

// RecordFrame is a convenience method that records one processed frame with
// its segmentation state and processing latency.
func (m *Metrics) RecordFrame(ctx context.Context, state string, duration time.Duration) {
	m.FramesProcessed.Add(ctx, 1,
		metric.WithAttributes(attribute.String("state", state)),
	)
	m.ProcessDuration.Record(ctx, duration.Seconds())
}

// RecordSegment is a convenience method that records one completed speech
// segment of the given wall-clock length.
func (m *Metrics) RecordSegment(ctx context.Context, duration time.Duration) {
	m.SegmentsEnded.Add(ctx, 1)
	m.SegmentDuration.Record(ctx, duration.Seconds())
}

// RecordClassifierError is a convenience method that records a classifier
// failure for the named classifier.
func (m *Metrics) RecordClassifierError(ctx context.Context, name string) {
	m.ClassifierErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("classifier", name)),
	)
}
