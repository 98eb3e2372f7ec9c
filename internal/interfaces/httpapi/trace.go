package httpapi

import (
	"context"
	"strings"

	"github.com/riskibarqy/club-standings/internal/usecase"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const handlerSpanPrefix = "httpapi.Handler."

var (
	apiTracer = otel.Tracer("club-standings/internal/interfaces/httpapi")
	noopSpan  = trace.SpanFromContext(context.Background())
)

// startSpan opens spans for handlers only, and only below a request span
// started by RequestTracing. Everything else gets a no-op span.
func startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if !strings.HasPrefix(name, handlerSpanPrefix) {
		return ctx, noopSpan
	}
	if !trace.SpanContextFromContext(ctx).IsValid() {
		return ctx, noopSpan
	}
	return apiTracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func leagueAttributes(ids ...string) []attribute.KeyValue {
	leagueIDs := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != "" {
			leagueIDs = append(leagueIDs, id)
		}
	}

	switch len(leagueIDs) {
	case 0:
		return nil
	case 1:
		return []attribute.KeyValue{attribute.String("standings.league_id", leagueIDs[0])}
	default:
		return []attribute.KeyValue{attribute.StringSlice("standings.league_ids", leagueIDs)}
	}
}

func annotateSyncResult(span trace.Span, result usecase.SyncResult) {
	span.SetAttributes(
		attribute.Int("standings.deleted", result.DeletedCount),
		attribute.Int("standings.inserted", result.InsertedCount),
		attribute.StringSlice("standings.synced_leagues", syncedLeagueIDs(result)),
	)
}
