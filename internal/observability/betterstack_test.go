package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jcamiloaa/deep90-app/internal/config"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

func newBetterStackServer(t *testing.T) (*httptest.Server, func() (int, string)) {
	t.Helper()

	var mu sync.Mutex
	requestCount := 0
	var lastAuth string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		requestCount++
		lastAuth = r.Header.Get("Authorization")
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	return server, func() (int, string) {
		mu.Lock()
		defer mu.Unlock()
		return requestCount, lastAuth
	}
}

func TestInitLogger_ShipsErrorToBetterStack(t *testing.T) {
	t.Parallel()

	server, stats := newBetterStackServer(t)
	cfg := config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: server.URL,
		BetterStackToken:    "secret-token",
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
		LogLevel:            logging.LevelInfo,
		ServiceName:         "deep90-api",
		AppEnv:              config.EnvDev,
	}

	logger, shutdown, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	logger.ErrorContext(context.Background(), "reconcile failed", "component", "reconciler")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	count, auth := stats()
	if count == 0 {
		t.Fatalf("expected Better Stack endpoint to receive at least 1 request")
	}
	if auth != "Bearer secret-token" {
		t.Fatalf("unexpected authorization header: %q", auth)
	}
}

func TestInitLogger_BetterStackRespectsMinLevel(t *testing.T) {
	t.Parallel()

	server, stats := newBetterStackServer(t)
	cfg := config.Config{
		BetterStackEnabled:  true,
		BetterStackEndpoint: server.URL,
		BetterStackTimeout:  2 * time.Second,
		BetterStackMinLevel: logging.LevelError,
		LogLevel:            logging.LevelInfo,
		ServiceName:         "deep90-api",
		AppEnv:              config.EnvDev,
	}

	logger, shutdown, err := InitLogger(cfg)
	if err != nil {
		t.Fatalf("init logger: %v", err)
	}

	logger.InfoContext(context.Background(), "info log should not be shipped")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		t.Fatalf("shutdown logger: %v", err)
	}

	if count, _ := stats(); count != 0 {
		t.Fatalf("expected no request for info log, got %d", count)
	}
}

func TestBetterStackWriteSyncer_DropsAfterClose(t *testing.T) {
	t.Parallel()

	server, stats := newBetterStackServer(t)
	syncer := newBetterStackWriteSyncer(server.URL, "", time.Second)
	if err := syncer.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	n, err := syncer.Write([]byte(`{"msg":"late"}`))
	if err != nil || n == 0 {
		t.Fatalf("write after close: n=%d err=%v", n, err)
	}
	if count, _ := stats(); count != 0 {
		t.Fatalf("expected no request after close, got %d", count)
	}
}

func TestBetterStackWriteSyncer_BatchesLinesOnClose(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var bodies [][]map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var batch []map[string]any
		if err := sonic.ConfigDefault.NewDecoder(r.Body).Decode(&batch); err != nil {
			t.Errorf("decode batch: %v", err)
		}
		mu.Lock()
		bodies = append(bodies, batch)
		mu.Unlock()
		w.WriteHeader(http.StatusAccepted)
	}))
	t.Cleanup(server.Close)

	syncer := newBetterStackWriteSyncer(server.URL, "", time.Second)
	for _, line := range []string{`{"msg":"a"}`, "{\"msg\":\"b\"}\n", "  "} {
		if _, err := syncer.Write([]byte(line)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := syncer.Close(context.Background()); err != nil {
		t.Fatalf("close: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	total := 0
	for _, batch := range bodies {
		total += len(batch)
	}
	if total != 2 {
		t.Fatalf("expected 2 shipped lines, got %d in %d requests", total, len(bodies))
	}
	if last := bodies[len(bodies)-1]; last[len(last)-1]["msg"] != "b" {
		t.Fatalf("lines out of order: %v", bodies)
	}
}

func TestNormalizeBetterStackEndpoint(t *testing.T) {
	cases := map[string]string{
		"":                           "",
		"in.logs.betterstack.com":    "https://in.logs.betterstack.com",
		" http://localhost:9000 ":    "http://localhost:9000",
		"https://in.logs.example.io": "https://in.logs.example.io",
	}
	for in, want := range cases {
		if got := normalizeBetterStackEndpoint(in); got != want {
			t.Fatalf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
