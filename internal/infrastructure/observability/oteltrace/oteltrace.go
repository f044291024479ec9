package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/orderflow/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracer adapts an otel trace.Tracer to the observability port. It goes
// through the global provider, so whatever exporter the host environment
// installs (or the default no-op) applies without this package knowing.
type tracer struct{ t trace.Tracer }

func New(service string) observability.Tracer {
	if service == "" {
		service = "orderflow"
	}
	return tracer{t: otel.Tracer(service)}
}

func (tr tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tr.t.Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}
