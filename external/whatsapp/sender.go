package whatsapp

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultBaseURL = "https://graph.facebook.com/v21.0"
	// maxTextBody is the Cloud API limit for a text message body.
	maxTextBody = 4096
)

var errWhatsAppTransient = crerr.New("whatsapp transient failure")

type SenderConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	AccessToken    string
	PhoneNumberID  string
	Timeout        time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Sender posts plain text messages through the WhatsApp Cloud API.
type Sender struct {
	httpClient *http.Client
	messageURL string
	token      string
	logger     *logging.Logger
	breaker    *resilience.CircuitBreaker
}

type textMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	RecipientType    string   `json:"recipient_type"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

func NewSender(cfg SenderConfig) (*Sender, error) {
	phoneNumberID := strings.TrimSpace(cfg.PhoneNumberID)
	if phoneNumberID == "" {
		return nil, crerr.New("whatsapp phone number id is required")
	}
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
		httpClient.Timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &Sender{
		httpClient: httpClient,
		messageURL: baseURL + "/" + phoneNumberID + "/messages",
		token:      strings.TrimSpace(cfg.AccessToken),
		logger:     logger.Named("whatsapp"),
		breaker:    resilience.NewCircuitBreaker(cfg.CircuitBreaker),
	}, nil
}

// SendText delivers body to the recipient, split into several messages when
// it exceeds the body limit.
func (s *Sender) SendText(ctx context.Context, to, body string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return crerr.New("recipient is required")
	}
	for _, chunk := range splitText(body, maxTextBody) {
		if err := s.send(ctx, to, chunk); err != nil {
			return err
		}
	}
	return nil
}

func (s *Sender) send(ctx context.Context, to, body string) error {
	if err := s.breaker.Allow(); err != nil {
		return fmt.Errorf("whatsapp is temporarily unavailable: %w", err)
	}

	payload, err := sonic.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             "text",
		Text:             textBody{PreviewURL: true, Body: body},
	})
	if err != nil {
		return crerr.Wrap(err, "marshal text message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.messageURL, bytes.NewReader(payload))
	if err != nil {
		return crerr.Wrap(err, "build send request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		callErr := fmt.Errorf("%w: send text: %v", errWhatsAppTransient, err)
		s.breaker.Record(callErr, isWhatsAppCircuitFailure)
		return callErr
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode/100 != 2 {
		callErr := crerr.Newf("send text status=%d body=%s", resp.StatusCode, strings.TrimSpace(string(raw)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
			callErr = fmt.Errorf("%w: %v", errWhatsAppTransient, callErr)
		}
		s.breaker.Record(callErr, isWhatsAppCircuitFailure)
		return callErr
	}
	s.breaker.RecordSuccess()

	var out sendResponse
	if err := sonic.Unmarshal(raw, &out); err == nil && len(out.Messages) > 0 {
		s.logger.DebugContext(ctx, "whatsapp text sent", "to", to, "message_id", out.Messages[0].ID)
	}
	return nil
}

// splitText cuts text into chunks of at most limit bytes, preferring line
// breaks and never splitting a rune.
func splitText(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}

	chunks := make([]string, 0, len(text)/limit+1)
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n")
		if cut <= 0 {
			cut = limit
			for cut > 0 && !utf8.RuneStart(text[cut]) {
				cut--
			}
		}
		chunks = append(chunks, strings.TrimRight(text[:cut], "\n"))
		text = strings.TrimLeft(text[cut:], "\n")
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}

func isWhatsAppCircuitFailure(err error) bool {
	return stderrors.Is(err, errWhatsAppTransient)
}
