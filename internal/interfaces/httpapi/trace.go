package httpapi

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/draftradar/tipoff/internal/interfaces/httpapi")

// inertSpan is handed out when a request carries no recorded parent; ending
// it does nothing. Keeps call sites free of nil checks.
var inertSpan = trace.SpanFromContext(context.Background())

// startSpan opens a handler-level child span. Routes the tracing middleware
// filters out (health probes) have no recording parent, and handler work on
// those requests stays span-free instead of producing orphan roots.
func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, inertSpan
	}
	return tracer.Start(ctx, name)
}
