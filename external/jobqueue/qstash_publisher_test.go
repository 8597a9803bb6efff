package jobqueue

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/platform/resilience"
)

func TestQStashPublisher_Enqueue(t *testing.T) {
	t.Parallel()

	var (
		gotPath    string
		gotHeaders http.Header
		gotBody    string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHeaders = r.Header.Clone()
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	p, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:          server.URL,
		Token:            "qstash-token",
		TargetBaseURL:    "https://deep90.example.com",
		Retries:          3,
		InternalJobToken: "job-token",
	}, nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	err = p.Enqueue(context.Background(), "v1/internal/jobs/reconcile", map[string]any{"source_id": 2}, 90*time.Second, "reconcile-2-20260412T180000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/v2/publish/https://deep90.example.com/v1/internal/jobs/reconcile") {
		t.Fatalf("unexpected publish path: %s", gotPath)
	}
	checks := map[string]string{
		"Authorization":                        "Bearer qstash-token",
		"Upstash-Retries":                      "3",
		"Upstash-Delay":                        "90s",
		"Upstash-Deduplication-Id":             "reconcile-2-20260412T180000Z",
		"Upstash-Forward-X-Internal-Job-Token": "job-token",
	}
	for header, want := range checks {
		if got := gotHeaders.Get(header); got != want {
			t.Fatalf("unexpected header %s: got=%q want=%q", header, got, want)
		}
	}
	if gotBody != `{"source_id":2}` {
		t.Fatalf("unexpected body: %s", gotBody)
	}
}

func TestQStashPublisher_TransientFailuresOpenBreaker(t *testing.T) {
	t.Parallel()

	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	p, err := NewQStashPublisher(QStashPublisherConfig{
		BaseURL:       server.URL,
		TargetBaseURL: "https://deep90.example.com",
		CircuitBreaker: resilience.CircuitBreakerConfig{
			Enabled:          true,
			FailureThreshold: 2,
			OpenTimeout:      time.Minute,
		},
	}, nil)
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}

	for i := 0; i < 2; i++ {
		if err := p.Enqueue(context.Background(), "/job", nil, 0, ""); !errors.Is(err, errQStashTransient) {
			t.Fatalf("attempt %d: expected transient error, got=%v", i, err)
		}
	}
	if err := p.Enqueue(context.Background(), "/job", nil, 0, ""); !errors.Is(err, resilience.ErrCircuitOpen) {
		t.Fatalf("expected open circuit, got=%v", err)
	}
	if calls != 2 {
		t.Fatalf("unexpected upstream calls: got=%d want=2", calls)
	}
}

func TestNewQStashPublisher_RejectsBadURL(t *testing.T) {
	t.Parallel()

	if _, err := NewQStashPublisher(QStashPublisherConfig{BaseURL: "ftp://qstash", TargetBaseURL: "https://x"}, nil); err == nil {
		t.Fatalf("expected error for unsupported scheme")
	}
}

func TestCurlPreviewRedactsTokens(t *testing.T) {
	t.Parallel()

	preview := curlPreview("https://qstash/v2/publish/x", [][2]string{{"Upstash-Forward-X-Internal-Job-Token", "secret"}}, "{}")
	if strings.Contains(preview, "secret") {
		t.Fatalf("token leaked in preview: %s", preview)
	}
}
