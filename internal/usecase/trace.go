package usecase

import (
	"context"

	"github.com/riskibarqy/club-standings/internal/domain/scraperun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	usecaseTracer   = otel.Tracer("club-standings/internal/usecase")
	usecaseNoopSpan = trace.SpanFromContext(context.Background())
)

// startUsecaseSpan only opens child spans; a call without a traced parent
// (cron process, tests) runs untraced.
func startUsecaseSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, usecaseNoopSpan
	}
	return usecaseTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// runTraceRef returns the ids stored on a scrape run so the audit row can
// be looked up in the tracing backend.
func runTraceRef(ctx context.Context) (traceID, spanID string) {
	spanCtx := trace.SpanContextFromContext(ctx)
	if !spanCtx.IsValid() {
		return "", ""
	}
	return spanCtx.TraceID().String(), spanCtx.SpanID().String()
}

func recordLeagueOutcome(span trace.Span, trigger scraperun.Trigger, res LeagueSyncResult) {
	span.SetAttributes(
		attribute.String("standings.trigger", string(trigger)),
		attribute.String("standings.status", string(res.Status)),
		attribute.Int("standings.attempts", res.Attempts),
		attribute.Int("standings.deleted", res.DeletedCount),
		attribute.Int("standings.inserted", res.InsertedCount),
	)
	if res.Error != nil {
		span.RecordError(res.Error)
		span.SetStatus(codes.Error, res.Error.Error())
	}
}
