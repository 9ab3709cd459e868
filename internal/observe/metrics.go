// Package observe provides observability primitives for amrx: OpenTelemetry
// metrics with a Prometheus exporter bridge so the server's /metrics
// endpoint can be scraped.
//
// A package-level default [Metrics] instance ([DefaultMetrics]) is provided
// for convenience; tests should use [NewMetrics] with their own
// [metric.MeterProvider] to avoid cross-test pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all amrx metrics.
const meterName = "github.com/zsiec/amrx"

// Metrics holds all OpenTelemetry metric instruments for the application.
// All fields are safe for concurrent use; the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// OpenDuration tracks container open latency, dominated by the index
	// build's forward pass.
	OpenDuration metric.Float64Histogram

	// FilesOpened counts container opens. Use with attributes:
	//   attribute.String("format", ...), attribute.String("status", ...)
	FilesOpened metric.Int64Counter

	// FramesServed counts frames delivered to clients. Use with attribute:
	//   attribute.String("transport", ...)
	FramesServed metric.Int64Counter

	// BytesServed counts frame payload bytes delivered to clients. Use
	// with attribute:
	//   attribute.String("transport", ...)
	BytesServed metric.Int64Counter

	// Seeks counts cursor repositions requested by clients.
	Seeks metric.Int64Counter

	// ActiveSessions tracks the number of live streaming sessions.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks HTTP request processing time. Use with
	// attributes:
	//   attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// openBuckets defines histogram bucket boundaries (in seconds) sized for
// index builds, which are a single sequential pass even on long files.
var openBuckets = []float64{
	0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.OpenDuration, err = m.Float64Histogram("amrx.open.duration",
		metric.WithDescription("Latency of container opens including the index build."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(openBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FilesOpened, err = m.Int64Counter("amrx.files.opened",
		metric.WithDescription("Total container opens by format and status."),
	); err != nil {
		return nil, err
	}
	if met.FramesServed, err = m.Int64Counter("amrx.frames.served",
		metric.WithDescription("Total frames delivered to clients by transport."),
	); err != nil {
		return nil, err
	}
	if met.BytesServed, err = m.Int64Counter("amrx.bytes.served",
		metric.WithDescription("Total frame payload bytes delivered to clients by transport."),
		metric.WithUnit("By"),
	); err != nil {
		return nil, err
	}
	if met.Seeks, err = m.Int64Counter("amrx.seeks",
		metric.WithDescription("Total cursor repositions requested by clients."),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("amrx.active_sessions",
		metric.WithDescription("Number of live streaming sessions."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("amrx.http.request.duration",
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

// DefaultMetrics returns the package-level [Metrics] instance, creating it
// on first call using [otel.GetMeterProvider]. Subsequent calls return the
// same pointer. Panics if instrument creation fails (should not happen with
// the global provider).
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

// RecordOpen records one container open with its latency and outcome.
func (m *Metrics) RecordOpen(ctx context.Context, format, status string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("format", format),
		attribute.String("status", status),
	)
	m.FilesOpened.Add(ctx, 1, attrs)
	m.OpenDuration.Record(ctx, seconds, attrs)
}

// RecordFramesServed records delivered frames and their payload bytes for
// one transport.
func (m *Metrics) RecordFramesServed(ctx context.Context, transport string, frames, bytes int64) {
	attrs := metric.WithAttributes(attribute.String("transport", transport))
	m.FramesServed.Add(ctx, frames, attrs)
	m.BytesServed.Add(ctx, bytes, attrs)
}
