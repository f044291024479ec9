package observability

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// nop implements every port as a no-op. The port method sets are disjoint, so
// one type can back all the fallbacks returned when a component is built
// without telemetry.
type nop struct{}

func (nop) With(...Field) Logger          { return nop{} }
func (nop) Debug(string, ...Field)        {}
func (nop) Info(string, ...Field)         {}
func (nop) Warn(string, ...Field)         {}
func (nop) Error(string, ...Field)        {}
func (nop) Add(float64, ...Label)         {}
func (nop) Observe(float64, ...Label)     {}
func (nop) Counter(MetricKey) Counter     { return nop{} }
func (nop) Histogram(MetricKey) Histogram { return nop{} }
func (nop) Tracer() Tracer                { return nop{} }
func (nop) Logger() Logger                { return nop{} }
func (nop) Metrics() Metrics              { return nop{} }

func (nop) Start(ctx context.Context, _ string, _ ...attribute.KeyValue) (context.Context, trace.Span) {
	return ctx, trace.SpanFromContext(ctx)
}

// Nop returns an Observability that records nothing.
func Nop() Observability { return nop{} }

func NopLogger() Logger       { return nop{} }
func NopTracer() Tracer       { return nop{} }
func NopCounter() Counter     { return nop{} }
func NopHistogram() Histogram { return nop{} }
func NopMetrics() Metrics     { return nop{} }
