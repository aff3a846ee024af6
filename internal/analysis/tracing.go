package analysis

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation name for analysis spans. Spans go to
// the global provider, which is a no-op unless the binary installs one.
const TracerName = "github.com/blackwell-systems/devinsight/internal/analysis"

func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// recordFailure marks span as failed with msg.
func recordFailure(span trace.Span, msg string) {
	span.SetStatus(codes.Error, msg)
	span.SetAttributes(attribute.String("error.message", msg))
}
