package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

func TestNewMetrics(t *testing.T) {
	t.Parallel()

	mp := sdkmetric.NewMeterProvider()
	defer mp.Shutdown(context.Background())

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics failed: %v", err)
	}

	// Instruments must accept records without a registered exporter.
	ctx := context.Background()
	m.RecordOpen(ctx, "amr-nb", "ok", 0.002)
	m.RecordFramesServed(ctx, "ws", 50, 50*13)
	m.Seeks.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, 1)
	m.ActiveSessions.Add(ctx, -1)
	m.HTTPRequestDuration.Record(ctx, 0.01)
}

func TestDefaultMetricsSamePointer(t *testing.T) {
	t.Parallel()

	if DefaultMetrics() != DefaultMetrics() {
		t.Error("DefaultMetrics returned different pointers")
	}
}
