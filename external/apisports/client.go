package apisports

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/platform/resilience"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL  = "https://v3.football.api-sports.io"
	defaultHostName = "v3.football.api-sports.io"
	maxBodyBytes    = 8 << 20
)

var errAPISportsTransient = crerr.New("api-sports transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Host           string
	Timeout        time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads live fixtures and live odds from API-Football.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	apiKey       string
	host         string
	maxRetries   int
	retryBackoff time.Duration
	logger       *logging.Logger
	breaker      *resilience.CircuitBreaker
	flight       resilience.SingleFlight[[]byte]
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 30 * time.Second
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultHostName
	}
	retryBackoff := cfg.RetryBackoff
	if retryBackoff <= 0 {
		retryBackoff = time.Second
	}

	return &Client{
		httpClient:   httpClient,
		baseURL:      baseURL,
		apiKey:       strings.TrimSpace(cfg.APIKey),
		host:         host,
		maxRetries:   max(cfg.MaxRetries, 0),
		retryBackoff: retryBackoff,
		logger:       logger.Named("apisports"),
		breaker:      resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

func (c *Client) FetchLiveFixtures(ctx context.Context, endpoint string, params map[string]string) (usecase.LiveFixtureFeed, error) {
	items, err := c.fetchResponse(ctx, endpoint, params)
	if err != nil {
		return usecase.LiveFixtureFeed{}, err
	}

	feed := usecase.LiveFixtureFeed{Items: make([]usecase.ExternalLiveFixture, 0, len(items))}
	for i, raw := range items {
		item, err := decodeLiveFixture(raw)
		if err != nil {
			feed.Rejected = append(feed.Rejected, usecase.ValidationError{Index: i, Reason: err.Error()})
			continue
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

func (c *Client) FetchLiveOdds(ctx context.Context, endpoint string, params map[string]string) (usecase.LiveOddsFeed, error) {
	items, err := c.fetchResponse(ctx, endpoint, params)
	if err != nil {
		return usecase.LiveOddsFeed{}, err
	}

	feed := usecase.LiveOddsFeed{Items: make([]usecase.ExternalLiveOdds, 0, len(items))}
	for i, raw := range items {
		item, err := decodeLiveOdds(raw)
		if err != nil {
			feed.Rejected = append(feed.Rejected, usecase.ValidationError{Index: i, Reason: err.Error()})
			continue
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

func (c *Client) fetchResponse(ctx context.Context, endpoint string, params map[string]string) ([]rawItem, error) {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "api-sports circuit breaker rejected request", "state", c.breaker.State())
		return nil, &usecase.TransportError{
			Op:  "call api-sports",
			Err: fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err),
		}
	}

	fullURL := c.buildURL(endpoint, params)
	raw, err, shared := c.flight.Do(fullURL, func() ([]byte, error) {
		body, reqErr := c.executeRequest(ctx, fullURL)
		c.breaker.Record(reqErr, isAPISportsCircuitFailure)
		return body, reqErr
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.logger.DebugContext(ctx, "api-sports response shared with in-flight request", "url", fullURL)
	}

	items, err := decodeEnvelope(raw)
	if err != nil {
		var upstreamErr *usecase.UpstreamError
		if stderrors.As(err, &upstreamErr) {
			upstreamErr.Body = c.redact(upstreamErr.Body)
		}
		return nil, err
	}
	return items, nil
}

func (c *Client) buildURL(endpoint string, params map[string]string) string {
	endpoint = "/" + strings.TrimLeft(strings.TrimSpace(endpoint), "/")
	values := url.Values{}
	for key, value := range params {
		values.Set(key, value)
	}
	fullURL := c.baseURL + endpoint
	if encoded := values.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}
	return fullURL
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, &usecase.TransportError{Op: "build request", Err: err}
		}
		req.Header.Set("accept", "application/json")
		req.Header.Set("x-rapidapi-key", c.apiKey)
		req.Header.Set("x-rapidapi-host", c.host)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = &usecase.TransportError{
				Op:  "send request",
				Err: fmt.Errorf("%w: %s", errAPISportsTransient, c.redact(err.Error())),
			}
		} else {
			raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
			_ = resp.Body.Close()
			switch {
			case readErr != nil:
				lastErr = &usecase.TransportError{
					Op:  "read response body",
					Err: fmt.Errorf("%w: %v", errAPISportsTransient, readErr),
				}
			case resp.StatusCode >= 200 && resp.StatusCode < 300:
				return raw, nil
			default:
				upstreamErr := &usecase.UpstreamError{StatusCode: resp.StatusCode, Body: c.redact(abbreviateBody(raw))}
				if !isRetryableStatus(resp.StatusCode) {
					return nil, upstreamErr
				}
				lastErr = &transientUpstream{UpstreamError: upstreamErr}
			}
		}

		if ctx.Err() != nil || attempt == c.maxRetries {
			break
		}
		timer := time.NewTimer(time.Duration(attempt+1) * c.retryBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &usecase.TransportError{Op: "wait retry", Err: ctx.Err()}
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "api-sports request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

func (c *Client) redact(value string) string {
	if c.apiKey == "" {
		return value
	}
	return strings.ReplaceAll(value, c.apiKey, "REDACTED")
}

// transientUpstream marks a retryable non-2xx answer for the breaker while
// still unwrapping to *usecase.UpstreamError.
type transientUpstream struct {
	*usecase.UpstreamError
}

func (e *transientUpstream) Unwrap() []error {
	return []error{e.UpstreamError, errAPISportsTransient}
}

func isAPISportsCircuitFailure(err error) bool {
	return stderrors.Is(err, errAPISportsTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
