package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "claudeck"

// Metrics holds all OTEL metric instruments for claudeck.
// All counters are cumulative (monotonic) and safe for concurrent use.
type Metrics struct {
	// PTY stream counters
	BytesRead        metric.Int64Counter
	ChunksClassified metric.Int64Counter

	// Mode transitions (partitioned by from/to via attributes)
	ModeTransitions metric.Int64Counter

	// Command injection counters (partitioned by status + kind)
	Commands metric.Int64Counter

	// State endpoint reads
	StateReads metric.Int64Counter
}

// NewMetrics creates all metric instruments. Returns no-op instruments
// when no MeterProvider is registered (safe to call unconditionally).
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.BytesRead, err = meter.Int64Counter("pty.bytes.read",
		metric.WithDescription("Total bytes read from the session PTY"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, err
	}

	m.ChunksClassified, err = meter.Int64Counter("classifier.chunks",
		metric.WithDescription("Number of output chunks fed to the classifier"))
	if err != nil {
		return nil, err
	}

	m.ModeTransitions, err = meter.Int64Counter("classifier.transitions",
		metric.WithDescription("Mode transitions partitioned by from/to mode"))
	if err != nil {
		return nil, err
	}

	m.Commands, err = meter.Int64Counter("commands.total",
		metric.WithDescription("Injected commands partitioned by status (sent, failed) and kind (text, control)"))
	if err != nil {
		return nil, err
	}

	m.StateReads, err = meter.Int64Counter("state.reads",
		metric.WithDescription("Number of state snapshot reads served"))
	if err != nil {
		return nil, err
	}

	return m, nil
}

// RecordRead records one PTY read of n bytes.
func (m *Metrics) RecordRead(ctx context.Context, n int64) {
	if m == nil {
		return
	}
	m.BytesRead.Add(ctx, n)
	m.ChunksClassified.Add(ctx, 1)
}

// RecordTransition records a mode transition.
func (m *Metrics) RecordTransition(ctx context.Context, from, to string) {
	if m == nil {
		return
	}
	m.ModeTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("mode.from", from),
		attribute.String("mode.to", to),
	))
}

// RecordCommand records an injected command with its outcome.
func (m *Metrics) RecordCommand(ctx context.Context, status, kind string) {
	if m == nil {
		return
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command.status", status),
		attribute.String("command.kind", kind),
	))
}

// RecordStateRead records one served state snapshot.
func (m *Metrics) RecordStateRead(ctx context.Context) {
	if m == nil {
		return
	}
	m.StateReads.Add(ctx, 1)
}
