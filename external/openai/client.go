package openai

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/platform/resilience"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultBaseURL = "https://api.openai.com/v1"

var (
	errOpenAITransient = crerr.New("openai transient failure")
	errNotFound        = crerr.New("openai resource not found")
)

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	APIKey         string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client drives threads and runs of the Assistants v2 API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

var _ usecase.AssistantBridge = (*Client)(nil)

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

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		logger:     logger.Named("openai"),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}
}

func (c *Client) CreateThread(ctx context.Context) (string, error) {
	var out threadResponse
	if err := c.do(ctx, http.MethodPost, "/threads", map[string]any{}, &out); err != nil {
		return "", crerr.Wrap(err, "create thread")
	}
	if out.ID == "" {
		return "", crerr.New("create thread: empty thread id")
	}
	return out.ID, nil
}

// ThreadExists lists one message of the thread; a 404 means the thread is gone.
func (c *Client) ThreadExists(ctx context.Context, threadID string) (bool, error) {
	if strings.TrimSpace(threadID) == "" {
		return false, nil
	}
	var out messageList
	err := c.do(ctx, http.MethodGet, "/threads/"+url.PathEscape(threadID)+"/messages?limit=1", nil, &out)
	if stderrors.Is(err, errNotFound) {
		return false, nil
	}
	if err != nil {
		return false, crerr.Wrapf(err, "check thread %s", threadID)
	}
	return true, nil
}

func (c *Client) PostMessage(ctx context.Context, threadID, content string, metadata map[string]string) error {
	body := messageRequest{Role: "user", Content: content}
	if len(metadata) > 0 {
		body.Metadata = metadata
	}
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/messages", body, nil); err != nil {
		return crerr.Wrapf(err, "post message thread=%s", threadID)
	}
	return nil
}

func (c *Client) CreateRun(ctx context.Context, threadID, assistantID string, tools []usecase.ToolDefinition) (usecase.AssistantRun, error) {
	body := runRequest{AssistantID: assistantID}
	for _, tool := range tools {
		body.Tools = append(body.Tools, toolSpec{
			Type: "function",
			Function: functionSpec{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		})
	}

	var out runResponse
	if err := c.do(ctx, http.MethodPost, "/threads/"+url.PathEscape(threadID)+"/runs", body, &out); err != nil {
		return usecase.AssistantRun{}, crerr.Wrapf(err, "create run thread=%s", threadID)
	}
	return out.toRun(), nil
}

func (c *Client) GetRun(ctx context.Context, threadID, runID string) (usecase.AssistantRun, error) {
	var out runResponse
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return usecase.AssistantRun{}, crerr.Wrapf(err, "get run=%s", runID)
	}
	return out.toRun(), nil
}

func (c *Client) SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []usecase.ToolOutput) (usecase.AssistantRun, error) {
	body := submitToolOutputsRequest{ToolOutputs: make([]toolOutput, 0, len(outputs))}
	for _, output := range outputs {
		body.ToolOutputs = append(body.ToolOutputs, toolOutput{ToolCallID: output.ToolCallID, Output: output.Output})
	}

	var out runResponse
	path := "/threads/" + url.PathEscape(threadID) + "/runs/" + url.PathEscape(runID) + "/submit_tool_outputs"
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return usecase.AssistantRun{}, crerr.Wrapf(err, "submit tool outputs run=%s", runID)
	}
	return out.toRun(), nil
}

// LatestAssistantMessage returns the text of the newest assistant message.
func (c *Client) LatestAssistantMessage(ctx context.Context, threadID string) (string, bool, error) {
	var out messageList
	path := "/threads/" + url.PathEscape(threadID) + "/messages?order=desc&limit=10"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return "", false, crerr.Wrapf(err, "list messages thread=%s", threadID)
	}
	for _, message := range out.Data {
		if message.Role != "assistant" {
			continue
		}
		text := message.text()
		if text == "" {
			continue
		}
		return text, true, nil
	}
	return "", false, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, target any) error {
	if err := c.breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "openai circuit breaker rejected request", "state", c.breaker.State())
		return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	}

	err := c.execute(ctx, method, path, payload, target)
	c.breaker.Record(err, isOpenAICircuitFailure)
	return err
}

func (c *Client) execute(ctx context.Context, method, path string, payload, target any) error {
	var body io.Reader
	if payload != nil {
		raw, err := sonic.Marshal(payload)
		if err != nil {
			return crerr.Wrap(err, "marshal request")
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return crerr.Wrap(err, "build request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("OpenAI-Beta", "assistants=v2")
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", errOpenAITransient, method, path, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: read response: %v", errOpenAITransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s %s", errNotFound, method, path)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: %s %s status=%d body=%s", errOpenAITransient, method, path, resp.StatusCode, abbreviate(raw))
	case resp.StatusCode/100 != 2:
		return crerr.Newf("%s %s status=%d body=%s", method, path, resp.StatusCode, abbreviate(raw))
	}

	if target == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := sonic.Unmarshal(raw, target); err != nil {
		return crerr.Wrap(err, "decode response")
	}
	return nil
}

func isOpenAICircuitFailure(err error) bool {
	return stderrors.Is(err, errOpenAITransient)
}

func abbreviate(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
