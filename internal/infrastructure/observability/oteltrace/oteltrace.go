package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/notafiscal-console/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultScope = "notafiscal-console"

type tracer struct {
	t    trace.Tracer
	kind trace.SpanKind
}

// New returns a Tracer on the global provider; spans reach an exporter only
// once telemetry.Setup has installed the SDK provider.
func New(scope string) observability.Tracer {
	return FromProvider(otel.GetTracerProvider(), scope, trace.SpanKindInternal)
}

// FromProvider builds a Tracer on tp whose spans all carry kind.
func FromProvider(tp trace.TracerProvider, scope string, kind trace.SpanKind) observability.Tracer {
	if scope == "" {
		scope = defaultScope
	}
	if kind == trace.SpanKindUnspecified {
		kind = trace.SpanKindInternal
	}
	return &tracer{t: tp.Tracer(scope), kind: kind}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithSpanKind(t.kind), trace.WithAttributes(attrs...))
}
