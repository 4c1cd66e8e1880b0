package usecase

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/draftradar/tipoff/internal/usecase")

// inertSpan is handed out when the caller carries no recorded parent, so
// service work on untraced paths (scheduler ticks, warmup) stays span-free.
var inertSpan = trace.SpanFromContext(context.Background())

func startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if !trace.SpanFromContext(ctx).SpanContext().IsValid() {
		return ctx, inertSpan
	}
	return tracer.Start(ctx, name)
}
