package common

import (
	"context"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracingRoundTripper records request/response attributes on the span carried by
// the request context. Without a recording span the attributes are logged only
// when LogFallback is set.
type tracingRoundTripper struct {
	Wrapped     http.RoundTripper
	LogFallback bool
}

func (rt *tracingRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	attrs := []attribute.KeyValue{
		attribute.String("http.method", req.Method),
		attribute.String("http.url", req.URL.Redacted()),
	}
	if id := req.Header.Get(RequestIDHeader); id != "" {
		attrs = append(attrs, attribute.String("http.request_id", id))
	}

	resp, err := rt.Wrapped.RoundTrip(req)
	if !rt.LogFallback && !trace.SpanFromContext(ctx).IsRecording() {
		return resp, err
	}
	if err != nil {
		attrs = append(attrs, attribute.String("http.error", err.Error()))
	} else {
		attrs = append(attrs, attribute.Int("http.status_code", resp.StatusCode))
	}
	AddRequestAttributes(ctx, attrs...)
	return resp, err
}

// AddRequestAttributes sets attributes on the current trace span. With no recording
// span the attributes are logged at debug level instead, together with any trace/span id.
func AddRequestAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
		return
	}

	logAttrs := make([]slog.Attr, 0, len(attrs)+3)
	for _, attr := range attrs {
		logAttrs = append(logAttrs, slog.Any(string(attr.Key), attr.Value.AsInterface()))
	}
	logAttrs = append(logAttrs, slog.Bool("observability.fallback", true))
	sc := span.SpanContext()
	if sc.HasTraceID() {
		logAttrs = append(logAttrs, slog.String("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		logAttrs = append(logAttrs, slog.String("span_id", sc.SpanID().String()))
	}
	slog.LogAttrs(ctx, slog.LevelDebug, "http round trip", logAttrs...)
}
