package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// StartStoreSpan begins a client-kind span for a single store operation,
// mirroring the teacher's doltTracer.Start(ctx, "dolt.exec", ...) call
// sites in internal/storage/dolt/store.go.
func StartStoreSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return Tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(append([]attribute.KeyValue{attribute.String("db.system", "catalog-store")}, attrs...)...),
	)
}
