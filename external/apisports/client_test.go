package apisports

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/platform/resilience"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
)

const liveFixturesBody = `{
  "get": "fixtures",
  "errors": [],
  "results": 2,
  "response": [
    {
      "fixture": {
        "id": 1208021,
        "referee": "M. Oliver",
        "timezone": "UTC",
        "date": "2026-04-12T17:30:00+00:00",
        "timestamp": 1776015000,
        "venue": {"name": "Anfield", "city": "Liverpool"},
        "status": {"long": "Second Half", "short": "2H", "elapsed": 67, "seconds": "67:12"}
      },
      "league": {"id": 39, "name": "Premier League", "country": "England", "season": 2025, "round": "Regular Season - 32"},
      "teams": {
        "home": {"id": 40, "name": "Liverpool", "logo": "l.png", "winner": true},
        "away": {"id": 49, "name": "Chelsea", "logo": "c.png", "winner": null}
      },
      "goals": {"home": 2, "away": 1},
      "score": {"halftime": {"home": 1, "away": 1}, "fulltime": {"home": null, "away": null}}
    },
    {"fixture": "broken"}
  ]
}`

const liveOddsBody = `{
  "errors": {},
  "response": [
    {
      "fixture": {"id": 1208021, "status": {"long": "Second Half", "elapsed": 67, "seconds": "67:12"}},
      "league": {"id": 39, "season": 2025},
      "teams": {"home": {"id": 40, "goals": 2}, "away": {"id": 49, "goals": 1}},
      "status": {"stopped": false, "blocked": true, "finished": false},
      "update": "2026-04-12T18:37:05+00:00",
      "odds": [
        {"id": 59, "name": "Fulltime Result", "values": [
          {"value": "Home", "odd": "1.45", "handicap": null, "main": true, "suspended": false},
          {"value": "Draw", "odd": "4.10", "handicap": null, "main": null, "suspended": false}
        ]},
        {"id": 36, "name": "Over/Under", "values": [
          {"value": "Over", "odd": "1.90", "handicap": 3.5, "main": true, "suspended": true}
        ]}
      ]
    }
  ]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc, retries int, breaker resilience.CircuitBreakerConfig) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(ClientConfig{
		BaseURL:        server.URL,
		APIKey:         "secret-key",
		Host:           "v3.football.api-sports.io",
		MaxRetries:     retries,
		RetryBackoff:   time.Millisecond,
		CircuitBreaker: breaker,
	})
}

func TestClient_FetchLiveFixtures(t *testing.T) {
	t.Parallel()

	var gotKey, gotHost, gotQuery, gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-rapidapi-key")
		gotHost = r.Header.Get("x-rapidapi-host")
		gotQuery = r.URL.RawQuery
		gotPath = r.URL.Path
		_, _ = w.Write([]byte(liveFixturesBody))
	}, 0, resilience.CircuitBreakerConfig{})

	feed, err := client.FetchLiveFixtures(context.Background(), "/fixtures", map[string]string{"live": "all"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotKey != "secret-key" || gotHost != "v3.football.api-sports.io" {
		t.Fatalf("unexpected auth headers: key=%q host=%q", gotKey, gotHost)
	}
	if gotPath != "/fixtures" || gotQuery != "live=all" {
		t.Fatalf("unexpected request: path=%s query=%s", gotPath, gotQuery)
	}
	if len(feed.Items) != 1 || len(feed.Rejected) != 1 {
		t.Fatalf("unexpected split: items=%d rejected=%d", len(feed.Items), len(feed.Rejected))
	}
	if feed.Rejected[0].Index != 1 {
		t.Fatalf("unexpected rejected index: %d", feed.Rejected[0].Index)
	}

	item := feed.Items[0]
	if item.FixtureID != 1208021 || item.StatusShort != "2H" {
		t.Fatalf("unexpected fixture: %+v", item)
	}
	if item.ElapsedSeconds == nil || *item.ElapsedSeconds != 67*60+12 {
		t.Fatalf("unexpected clock: %v", item.ElapsedSeconds)
	}
	if item.Goals.Home == nil || *item.Goals.Home != 2 || item.Fulltime.Home != nil {
		t.Fatalf("unexpected scores: goals=%+v fulltime=%+v", item.Goals, item.Fulltime)
	}
	if item.HomeWinner == nil || !*item.HomeWinner || item.AwayWinner != nil {
		t.Fatalf("unexpected winner flags")
	}
	if item.Date == nil || !item.Date.Equal(time.Date(2026, 4, 12, 17, 30, 0, 0, time.UTC)) {
		t.Fatalf("unexpected date: %v", item.Date)
	}
	if len(item.Raw) == 0 {
		t.Fatalf("expected raw payload to be kept")
	}
}

func TestClient_FetchLiveOdds(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(liveOddsBody))
	}, 0, resilience.CircuitBreakerConfig{})

	feed, err := client.FetchLiveOdds(context.Background(), "/odds/live", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.Items) != 1 {
		t.Fatalf("unexpected items: %d", len(feed.Items))
	}

	item := feed.Items[0]
	if !item.Blocked || item.Stopped || item.Finished {
		t.Fatalf("unexpected flags: %+v", item)
	}
	if item.GoalsHome == nil || *item.GoalsHome != 2 {
		t.Fatalf("unexpected goals: %v", item.GoalsHome)
	}
	if len(item.Categories) != 2 {
		t.Fatalf("unexpected categories: %d", len(item.Categories))
	}
	draw := item.Categories[0].Values[1]
	if draw.Label != "Draw" || draw.Odd != "4.10" || draw.Main {
		t.Fatalf("unexpected draw value: %+v", draw)
	}
	over := item.Categories[1].Values[0]
	if over.Handicap != "3.5" || !over.Suspended {
		t.Fatalf("unexpected over value: %+v", over)
	}
	if item.UpstreamAt == nil {
		t.Fatalf("expected update time")
	}
}

func TestClient_EmptyResponseIsValid(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[],"results":0,"response":[]}`))
	}, 0, resilience.CircuitBreakerConfig{})

	feed, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(feed.Items) != 0 || len(feed.Rejected) != 0 {
		t.Fatalf("expected empty feed, got %+v", feed)
	}
}

func TestClient_ErrorsFieldIsUpstreamError(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"errors":{"token":"Error/Missing application key secret-key"},"response":[]}`))
	}, 0, resilience.CircuitBreakerConfig{})

	_, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil)
	var upstreamErr *usecase.UpstreamError
	if !errors.As(err, &upstreamErr) {
		t.Fatalf("expected upstream error, got=%v", err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"response":[]}`))
	}, 1, resilience.CircuitBreakerConfig{})

	if _, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("unexpected calls: got=%d want=2", calls.Load())
	}
}

func TestClient_ClientErrorIsNotRetried(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"message":"bad key secret-key"}`))
	}, 2, resilience.CircuitBreakerConfig{})

	_, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil)
	var upstreamErr *usecase.UpstreamError
	if !errors.As(err, &upstreamErr) || upstreamErr.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 upstream error, got=%v", err)
	}
	if strings.Contains(err.Error(), "secret-key") {
		t.Fatalf("api key leaked in error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("unexpected calls: got=%d want=1", calls.Load())
	}
}

func TestClient_TransportFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	baseURL := server.URL
	server.Close()

	client := NewClient(ClientConfig{BaseURL: baseURL, APIKey: "k"})
	_, err := client.FetchLiveOdds(context.Background(), "/odds/live", nil)
	var transportErr *usecase.TransportError
	if !errors.As(err, &transportErr) {
		t.Fatalf("expected transport error, got=%v", err)
	}
	if !usecase.IsFeedFailure(err) {
		t.Fatalf("expected feed failure classification")
	}
}

func TestClient_BreakerOpensOnRepeatedServerErrors(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, 0, resilience.CircuitBreakerConfig{Enabled: true, FailureThreshold: 2, OpenTimeout: time.Minute})

	for i := 0; i < 2; i++ {
		_, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil)
		var upstreamErr *usecase.UpstreamError
		if !errors.As(err, &upstreamErr) {
			t.Fatalf("attempt %d: expected upstream error, got=%v", i, err)
		}
	}

	_, err := client.FetchLiveFixtures(context.Background(), "/fixtures", nil)
	if !errors.Is(err, usecase.ErrDependencyUnavailable) {
		t.Fatalf("expected breaker rejection, got=%v", err)
	}
	if calls.Load() != 2 {
		t.Fatalf("unexpected upstream calls: got=%d want=2", calls.Load())
	}
}

func TestClockValue(t *testing.T) {
	t.Parallel()

	cases := map[string]*int{
		`"43:13"`: intPtr(43*60 + 13),
		`2593`:    intPtr(2593),
		`null`:    nil,
	}
	for raw, want := range cases {
		var c clockValue
		if err := c.UnmarshalJSON([]byte(raw)); err != nil {
			t.Fatalf("unexpected error for %s: %v", raw, err)
		}
		got := c.ptr()
		if (got == nil) != (want == nil) || (got != nil && *got != *want) {
			t.Fatalf("unexpected clock for %s: got=%v want=%v", raw, got, want)
		}
	}
}

func intPtr(v int) *int { return &v }
