package httpapi

import (
	"context"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestShouldCreateHTTPAPISpan(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want bool
	}{
		{name: "handler span", in: "httpapi.Handler.ListLiveFixtures", want: true},
		{name: "webhook handler span", in: "httpapi.Handler.ReceiveWhatsAppWebhook", want: true},
		{name: "middleware span", in: "httpapi.RequestLogging", want: false},
		{name: "helper span", in: "httpapi.writeError", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := shouldCreateHTTPAPISpan(tt.in)
			if got != tt.want {
				t.Fatalf("shouldCreateHTTPAPISpan(%q)=%v want=%v", tt.in, got, tt.want)
			}
		})
	}
}

func TestStartSpan_WithoutParentIsNoop(t *testing.T) {
	ctx, span := startSpan(context.Background(), "httpapi.Handler.Healthz")
	defer span.End()

	if span.SpanContext().IsValid() {
		t.Fatalf("expected no-op span without a parent")
	}
	if ctx != context.Background() {
		t.Fatalf("context must be returned unchanged")
	}
}

func TestStartSpan_ChildCarriesAttributes(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	parentCtx, parent := provider.Tracer("test").Start(context.Background(), "request")
	ctx, span := startSpan(parentCtx, "httpapi.Handler.GetLiveOdds", attribute.Int64("fixture_id", 99))
	annotate(ctx, attribute.String("dispatch_id", "d-1"))
	span.End()
	parent.End()

	if !span.SpanContext().IsValid() {
		t.Fatalf("expected a recorded child span")
	}
	var child sdktrace.ReadOnlySpan
	for _, ended := range recorder.Ended() {
		if ended.Name() == "httpapi.Handler.GetLiveOdds" {
			child = ended
		}
	}
	if child == nil {
		t.Fatalf("child span not recorded")
	}
	if child.Parent().SpanID() != parent.SpanContext().SpanID() {
		t.Fatalf("child must hang off the request span")
	}

	got := map[attribute.Key]attribute.Value{}
	for _, kv := range child.Attributes() {
		got[kv.Key] = kv.Value
	}
	if got["fixture_id"].AsInt64() != 99 || got["dispatch_id"].AsString() != "d-1" {
		t.Fatalf("unexpected attributes: %v", child.Attributes())
	}
}
