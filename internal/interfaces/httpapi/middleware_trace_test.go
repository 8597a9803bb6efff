package httpapi

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldTraceRequest_HealthPaths(t *testing.T) {
	paths := []string{"/healthz", "/health", "/livez", "/readyz", " /healthz "}
	for _, path := range paths {
		if shouldTraceRequest(path) {
			t.Fatalf("expected no tracing for path %q", path)
		}
	}
}

func TestShouldTraceRequest_NonHealthPaths(t *testing.T) {
	paths := []string{"/v1/live/fixtures", "/v1/internal/sources", "/", "/docs"}
	for _, path := range paths {
		if !shouldTraceRequest(path) {
			t.Fatalf("expected tracing for path %q", path)
		}
	}
}

func serveWithRecordedSpan(t *testing.T, maxBytes int, req *http.Request, next http.Handler) map[attribute.Key]attribute.Value {
	t.Helper()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(req.Context()) })

	ctx, span := provider.Tracer("test").Start(req.Context(), "request")
	CaptureRequestBody(maxBytes, next).ServeHTTP(httptest.NewRecorder(), req.WithContext(ctx))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range ended[0].Attributes() {
		attrs[kv.Key] = kv.Value
	}
	return attrs
}

func TestCaptureRequestBody_RecordsTruncatedBodyAndReplaysIt(t *testing.T) {
	body := `{"source_id":12,"dispatch_id":"abc"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/reconcile", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	var seen string
	attrs := serveWithRecordedSpan(t, 10, req, http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		raw, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		seen = string(raw)
	}))

	assert.Equal(t, body, seen)
	assert.Equal(t, body[:10], attrs["http.request.body"].AsString())
	assert.True(t, attrs["http.request.body.truncated"].AsBool())
}

func TestCaptureRequestBody_SkipsWebhooks(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/whatsapp", strings.NewReader(`{"entry":[]}`))
	req.Header.Set("Content-Type", "application/json")

	attrs := serveWithRecordedSpan(t, 64, req, http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	_, ok := attrs["http.request.body"]
	assert.False(t, ok)
}
