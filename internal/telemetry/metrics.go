package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Counters are gv's domain metrics. All instruments come from the
// installed meter provider, so they are no-ops when telemetry is off.
type Counters struct {
	transitions   metric.Int64Counter
	edges         metric.Int64Counter
	pollenSeeded  metric.Int64Counter
	dewEvaporated metric.Int64Counter
	tidyFindings  metric.Int64Counter
}

// NewCounters registers gv's counters on the global meter.
func NewCounters() *Counters {
	m := Meter("")
	transitions, _ := m.Int64Counter("gv.bud.transitions",
		metric.WithDescription("Bud lifecycle transitions applied"),
	)
	edges, _ := m.Int64Counter("gv.dependency.edges",
		metric.WithDescription("Dependency edges added"),
	)
	pollenSeeded, _ := m.Int64Counter("gv.pollen.seeded",
		metric.WithDescription("Pollen suggestions accepted as buds"),
	)
	dewEvaporated, _ := m.Int64Counter("gv.dew.evaporated",
		metric.WithDescription("Expired dew rows swept"),
	)
	tidyFindings, _ := m.Int64Counter("gv.tidy.findings",
		metric.WithDescription("Clutter findings flagged by tidy scans"),
	)
	return &Counters{
		transitions:   transitions,
		edges:         edges,
		pollenSeeded:  pollenSeeded,
		dewEvaporated: dewEvaporated,
		tidyFindings:  tidyFindings,
	}
}

// Transition records one lifecycle transition.
func (c *Counters) Transition(ctx context.Context, from, to string) {
	c.transitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("gv.from", from),
		attribute.String("gv.to", to),
	))
}

// Edge records one dependency edge.
func (c *Counters) Edge(ctx context.Context, depType string) {
	c.edges.Add(ctx, 1, metric.WithAttributes(attribute.String("gv.dep.type", depType)))
}

// PollenSeeded records accepted pollen.
func (c *Counters) PollenSeeded(ctx context.Context, n int64) {
	c.pollenSeeded.Add(ctx, n)
}

// DewEvaporated records swept dew rows.
func (c *Counters) DewEvaporated(ctx context.Context, n int64) {
	c.dewEvaporated.Add(ctx, n)
}

// TidyFindings records flags from one scan.
func (c *Counters) TidyFindings(ctx context.Context, n int64) {
	c.tidyFindings.Add(ctx, n)
}

// StartSpan opens a span on the global tracer. It is cheap when
// telemetry is off.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer("").Start(ctx, name, trace.WithAttributes(attrs...))
}

// EndSpan closes a span, recording err when non-nil.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
