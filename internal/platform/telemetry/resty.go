package telemetry

import (
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentResty wraps every request of client in a client span named
// "<spanName> <METHOD>". Only scheme, host and path are recorded: query
// strings and headers carry API keys and bearer secrets.
func InstrumentResty(client *resty.Client, tracerName, spanName string) {
	tracer := otel.Tracer(tracerName)

	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		ctx, _ := tracer.Start(req.Context(), spanName+" "+req.Method, trace.WithSpanKind(trace.SpanKindClient))
		req.SetContext(ctx)
		return nil
	})
	client.OnAfterResponse(func(_ *resty.Client, res *resty.Response) error {
		span := trace.SpanFromContext(res.Request.Context())
		defer span.End()

		span.SetAttributes(requestAttributes(res.Request)...)
		span.SetAttributes(
			attribute.Int("http.status_code", res.StatusCode()),
			attribute.Int("http.response_size", len(res.Body())),
		)
		if res.StatusCode() >= 400 {
			span.SetStatus(codes.Error, res.Status())
		}
		return nil
	})
	client.OnError(func(req *resty.Request, err error) {
		span := trace.SpanFromContext(req.Context())
		defer span.End()

		span.SetAttributes(requestAttributes(req)...)
		span.RecordError(err)
		span.SetStatus(codes.Error, spanName+" request failed")
	})
}

func requestAttributes(req *resty.Request) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("http.method", req.Method)}
	if req.RawRequest == nil || req.RawRequest.URL == nil {
		return attrs
	}
	u := req.RawRequest.URL
	return append(attrs,
		attribute.String("http.scheme", u.Scheme),
		attribute.String("http.host", u.Host),
		attribute.String("http.path", u.Path),
	)
}
