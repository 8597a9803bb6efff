package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantVary    bool
		wantHeaders bool
	}{
		{name: "configured origin", allowed: []string{"https://deep90.app"}, method: http.MethodGet, origin: "https://deep90.app", wantStatus: http.StatusOK, wantOrigin: "https://deep90.app", wantVary: true, wantHeaders: true},
		{name: "wildcard preflight", allowed: []string{"*"}, method: http.MethodOptions, origin: "https://deep90.app", wantStatus: http.StatusNoContent, wantOrigin: "*", wantHeaders: true},
		{name: "unconfigured origin", allowed: []string{" https://allowed.example.com ", ""}, method: http.MethodGet, origin: "https://not-allowed.example.com", wantStatus: http.StatusOK},
		{name: "unconfigured preflight still short-circuits", allowed: []string{"https://deep90.app"}, method: http.MethodOptions, origin: "https://evil.example.com", wantStatus: http.StatusNoContent},
		{name: "no origin header", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "/v1/live/fixtures", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			CORS(tt.allowed, next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status=%d want=%d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantOrigin {
				t.Fatalf("Access-Control-Allow-Origin=%q want=%q", got, tt.wantOrigin)
			}
			if got := rec.Header().Get("Vary") == "Origin"; got != tt.wantVary {
				t.Fatalf("Vary header=%q", rec.Header().Get("Vary"))
			}
			allowHeaders := rec.Header().Get("Access-Control-Allow-Headers")
			if tt.wantHeaders && !strings.Contains(allowHeaders, internalJobTokenHeader) {
				t.Fatalf("job token header not allowed: %q", allowHeaders)
			}
			if !tt.wantHeaders && allowHeaders != "" {
				t.Fatalf("unexpected Access-Control-Allow-Headers %q", allowHeaders)
			}
		})
	}
}
