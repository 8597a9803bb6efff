package httpapi

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/counter"
	"github.com/jcamiloaa/deep90-app/internal/infrastructure/repository/memory"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
	"github.com/jcamiloaa/deep90-app/internal/usecase"
)

const testJobToken = "job-token"

type stubFeed struct {
	fixtures usecase.LiveFixtureFeed
	err      error
}

func (f *stubFeed) FetchLiveFixtures(context.Context, string, map[string]string) (usecase.LiveFixtureFeed, error) {
	return f.fixtures, f.err
}

func (f *stubFeed) FetchLiveOdds(context.Context, string, map[string]string) (usecase.LiveOddsFeed, error) {
	return usecase.LiveOddsFeed{}, f.err
}

type idleBridge struct{}

func (idleBridge) CreateThread(context.Context) (string, error)                         { return "thread_1", nil }
func (idleBridge) ThreadExists(context.Context, string) (bool, error)                   { return true, nil }
func (idleBridge) PostMessage(context.Context, string, string, map[string]string) error { return nil }
func (idleBridge) CreateRun(context.Context, string, string, []usecase.ToolDefinition) (usecase.AssistantRun, error) {
	return usecase.AssistantRun{ID: "run_1", Status: usecase.RunCompleted}, nil
}
func (idleBridge) GetRun(context.Context, string, string) (usecase.AssistantRun, error) {
	return usecase.AssistantRun{ID: "run_1", Status: usecase.RunCompleted}, nil
}
func (idleBridge) SubmitToolOutputs(context.Context, string, string, []usecase.ToolOutput) (usecase.AssistantRun, error) {
	return usecase.AssistantRun{ID: "run_1", Status: usecase.RunCompleted}, nil
}
func (idleBridge) LatestAssistantMessage(context.Context, string) (string, bool, error) {
	return "hello", true, nil
}

type recordingSender struct {
	mu   sync.Mutex
	sent map[string][]string
}

func (s *recordingSender) SendText(_ context.Context, to, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sent == nil {
		s.sent = make(map[string][]string)
	}
	s.sent[to] = append(s.sent[to], body)
	return nil
}

func (s *recordingSender) messages(to string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent[to]...)
}

type apiHarness struct {
	router     http.Handler
	feed       *stubFeed
	sender     *recordingSender
	dispatcher *usecase.ChatDispatcher
}

func newAPIHarness(t *testing.T, withChat bool, appSecret string) *apiHarness {
	t.Helper()

	logger := logging.NewNop()
	fixtures := memory.NewLiveFixtureRepository()
	odds := memory.NewLiveOddsRepository()
	feed := &stubFeed{}
	reconciler := usecase.NewReconciliationService(
		memory.NewSourceRepository(),
		fixtures,
		odds,
		feed,
		nil,
		memory.NewJobDispatchRepository(),
		usecase.ReconciliationConfig{},
		logger,
	)

	h := &apiHarness{feed: feed, sender: &recordingSender{}}
	if withChat {
		router := usecase.NewConversationRouter(
			memory.NewConversationRepository(),
			idleBridge{},
			usecase.NewAssistantToolbox(fixtures, odds, time.Second, logger),
			nil,
			usecase.ConversationRouterConfig{},
			logger,
		)
		chat := usecase.NewChatService(memory.NewSubscriberRepository(), router, h.sender, counter.NewMemoryCounter(), usecase.ChatConfig{DailyLimit: 20}, logger)
		dispatcher, err := usecase.NewChatDispatcher(chat, 2, 5*time.Second, logger)
		if err != nil {
			t.Fatalf("create dispatcher: %v", err)
		}
		h.dispatcher = dispatcher
	}

	handler := NewHandler(reconciler, usecase.NewLiveDataService(fixtures, odds, logger), h.dispatcher,
		WebhookConfig{VerifyToken: "verify-me", AppSecret: appSecret}, logger)
	h.router = NewRouter(handler, logger, true, []string{"*"}, testJobToken, 0)
	return h
}

func (h *apiHarness) do(t *testing.T, method, path string, body string, headers map[string]string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)

	var envelope map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode response: %v body=%s", err, rec.Body.String())
		}
	}
	return rec, envelope
}

func jobHeaders() map[string]string {
	return map[string]string{internalJobTokenHeader: testJobToken, "Content-Type": "application/json"}
}

func (h *apiHarness) bootstrap(t *testing.T) map[string]int64 {
	t.Helper()

	rec, body := h.do(t, http.MethodPost, "/v1/internal/jobs/bootstrap", "", jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("bootstrap status=%d body=%s", rec.Code, rec.Body.String())
	}
	ids := make(map[string]int64)
	for _, raw := range body["data"].([]any) {
		item := raw.(map[string]any)
		ids[item["kind"].(string)] = int64(item["id"].(float64))
	}
	return ids
}

func TestInternalRoutes_RequireJobToken(t *testing.T) {
	h := newAPIHarness(t, false, "")

	rec, body := h.do(t, http.MethodPost, "/v1/internal/jobs/check-stalled", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if status := body["error"].(map[string]any)["status"]; status != "UNAUTHENTICATED" {
		t.Fatalf("unexpected error status %v", status)
	}

	rec, _ = h.do(t, http.MethodGet, "/v1/internal/sources", "", map[string]string{internalJobTokenHeader: "wrong"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong token, got %d", rec.Code)
	}
}

func TestBootstrapThenListSources(t *testing.T) {
	h := newAPIHarness(t, false, "")
	ids := h.bootstrap(t)
	if len(ids) != 2 || ids["live_fixtures"] == 0 || ids["live_odds"] == 0 {
		t.Fatalf("expected both default sources, got %v", ids)
	}

	rec, body := h.do(t, http.MethodGet, "/v1/internal/sources", "", jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("list status=%d", rec.Code)
	}
	if items := body["data"].([]any); len(items) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(items))
	}
}

func TestReconcileJob_ReplacesSnapshot(t *testing.T) {
	h := newAPIHarness(t, false, "")
	ids := h.bootstrap(t)
	h.feed.fixtures = usecase.LiveFixtureFeed{Items: []usecase.ExternalLiveFixture{
		{FixtureID: 101, StatusShort: "1H", StatusLong: "First Half", HomeTeamID: 1, AwayTeamID: 2},
		{FixtureID: 102, StatusShort: "2H", StatusLong: "Second Half", HomeTeamID: 3, AwayTeamID: 4},
	}}

	payload := `{"source_id":` + itoa(ids["live_fixtures"]) + `,"dispatch_id":"d-1"}`
	rec, body := h.do(t, http.MethodPost, "/v1/internal/jobs/reconcile", payload, jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile status=%d body=%s", rec.Code, rec.Body.String())
	}
	outcome := body["data"].(map[string]any)
	if outcome["success"] != true || outcome["items_count"] != float64(2) {
		t.Fatalf("unexpected outcome %v", outcome)
	}

	rec, body = h.do(t, http.MethodGet, "/v1/live/fixtures?limit=10", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("live fixtures status=%d", rec.Code)
	}
	if items := body["data"].([]any); len(items) != 2 {
		t.Fatalf("expected 2 live fixtures, got %d", len(items))
	}
}

func TestReconcileJob_RecordedFeedFailureAnswers200(t *testing.T) {
	h := newAPIHarness(t, false, "")
	ids := h.bootstrap(t)
	h.feed.err = &usecase.UpstreamError{StatusCode: http.StatusBadGateway}

	payload := `{"source_id":` + itoa(ids["live_fixtures"]) + `}`
	rec, body := h.do(t, http.MethodPost, "/v1/internal/jobs/reconcile", payload, jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for recorded failure, got %d", rec.Code)
	}
	outcome := body["data"].(map[string]any)
	if outcome["success"] != false || outcome["error"] == nil {
		t.Fatalf("expected failed outcome, got %v", outcome)
	}

	_, body = h.do(t, http.MethodGet, "/v1/internal/sources", "", jobHeaders())
	for _, raw := range body["data"].([]any) {
		item := raw.(map[string]any)
		if item["kind"] == "live_fixtures" && (item["status"] != "failed" || item["error_count"] != float64(1)) {
			t.Fatalf("expected failed source with error_count=1, got %v", item)
		}
	}
}

func TestReconcileJob_RejectsInvalidPayload(t *testing.T) {
	h := newAPIHarness(t, false, "")

	for _, payload := range []string{`{"source_id":0}`, `{"source_id":"x"}`, `{"unknown":1}`} {
		rec, _ := h.do(t, http.MethodPost, "/v1/internal/jobs/reconcile", payload, jobHeaders())
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("payload %s: expected 400, got %d", payload, rec.Code)
		}
	}

	rec, _ := h.do(t, http.MethodPost, "/v1/internal/jobs/reconcile", `{"source_id":999}`, jobHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown source, got %d", rec.Code)
	}
}

func TestListSourceDispatches_ShowsCompletedJob(t *testing.T) {
	h := newAPIHarness(t, false, "")
	ids := h.bootstrap(t)
	fixtures := itoa(ids["live_fixtures"])

	payload := `{"source_id":` + fixtures + `,"dispatch_id":"d-42"}`
	rec, _ := h.do(t, http.MethodPost, "/v1/internal/jobs/reconcile", payload, jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("reconcile status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec, body := h.do(t, http.MethodGet, "/v1/internal/sources/"+fixtures+"/dispatches?limit=5", "", jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("dispatches status=%d body=%s", rec.Code, rec.Body.String())
	}
	items := body["data"].([]any)
	if len(items) != 1 {
		t.Fatalf("expected 1 dispatch, got %v", items)
	}
	item := items[0].(map[string]any)
	if item["dispatch_id"] != "d-42" || item["status"] != "completed" || item["completed_at"] == nil {
		t.Fatalf("unexpected dispatch %v", item)
	}

	rec, _ = h.do(t, http.MethodGet, "/v1/internal/sources/"+fixtures+"/dispatches?limit=500", "", jobHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized limit, got %d", rec.Code)
	}
	rec, _ = h.do(t, http.MethodGet, "/v1/internal/sources/999/dispatches", "", jobHeaders())
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown source, got %d", rec.Code)
	}
}

func TestSourceOperatorRoutes(t *testing.T) {
	h := newAPIHarness(t, false, "")
	ids := h.bootstrap(t)
	odds := itoa(ids["live_odds"])

	rec, _ := h.do(t, http.MethodPost, "/v1/internal/sources/"+odds+"/restart", "", jobHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("restart of idle source: expected 400, got %d", rec.Code)
	}

	rec, body := h.do(t, http.MethodPost, "/v1/internal/sources/"+odds+"/disable", "", jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("disable status=%d", rec.Code)
	}
	if item := body["data"].(map[string]any); item["enabled"] != false || item["status"] != "paused" {
		t.Fatalf("unexpected disabled source %v", item)
	}

	rec, body = h.do(t, http.MethodPost, "/v1/internal/sources/"+odds+"/enable", "", jobHeaders())
	if rec.Code != http.StatusOK {
		t.Fatalf("enable status=%d", rec.Code)
	}
	if item := body["data"].(map[string]any); item["enabled"] != true || item["status"] != "idle" {
		t.Fatalf("unexpected enabled source %v", item)
	}

	rec, _ = h.do(t, http.MethodPost, "/v1/internal/sources/abc/enable", "", jobHeaders())
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad id, got %d", rec.Code)
	}
}

func TestGetLiveOdds_NotFound(t *testing.T) {
	h := newAPIHarness(t, false, "")

	rec, body := h.do(t, http.MethodGet, "/v1/live/odds/55", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if status := body["error"].(map[string]any)["status"]; status != "NOT_FOUND" {
		t.Fatalf("unexpected status %v", status)
	}
}

func TestVerifyWhatsAppWebhook(t *testing.T) {
	h := newAPIHarness(t, false, "")

	rec, _ := h.do(t, http.MethodGet, "/v1/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=42", "", nil)
	if rec.Code != http.StatusOK || rec.Body.String() != "42" {
		t.Fatalf("expected challenge echo, got %d %q", rec.Code, rec.Body.String())
	}

	rec, _ = h.do(t, http.MethodGet, "/v1/webhooks/whatsapp?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=42", "", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

const menuWebhookBody = `{"object":"whatsapp_business_account","entry":[{"id":"1","changes":[{"field":"messages","value":{
"contacts":[{"wa_id":"573001112233","profile":{"name":"Camila"}}],
"messages":[
 {"id":"wamid.1","from":"573001112233","timestamp":"1760000000","type":"text","text":{"body":"menu"}},
 {"id":"wamid.2","from":"573001112233","timestamp":"1760000001","type":"image"}
]}}]}]}`

func signBody(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

func TestReceiveWhatsAppWebhook_DisabledChat(t *testing.T) {
	h := newAPIHarness(t, false, "")

	rec, _ := h.do(t, http.MethodPost, "/v1/webhooks/whatsapp", menuWebhookBody, nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestReceiveWhatsAppWebhook_RejectsBadSignature(t *testing.T) {
	h := newAPIHarness(t, true, "app-secret")

	rec, _ := h.do(t, http.MethodPost, "/v1/webhooks/whatsapp", menuWebhookBody, map[string]string{signatureHeader: signBody("other", menuWebhookBody)})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestReceiveWhatsAppWebhook_QueuesAndReplies(t *testing.T) {
	h := newAPIHarness(t, true, "app-secret")

	rec, body := h.do(t, http.MethodPost, "/v1/webhooks/whatsapp", menuWebhookBody, map[string]string{signatureHeader: signBody("app-secret", menuWebhookBody)})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	ack := body["data"].(map[string]any)
	if ack["accepted"] != float64(1) || ack["ignored"] != float64(1) {
		t.Fatalf("unexpected ack %v", ack)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.dispatcher.Close(ctx); err != nil {
		t.Fatalf("drain dispatcher: %v", err)
	}

	sent := h.sender.messages("573001112233")
	if len(sent) != 1 || !strings.Contains(sent[0], "Camila") {
		t.Fatalf("expected one menu reply addressed to the profile name, got %q", sent)
	}
}

func TestInboundMessages_InteractiveReplies(t *testing.T) {
	var payload whatsAppWebhook
	raw := `{"entry":[{"changes":[{"value":{"messages":[
 {"id":"a","from":"57300","timestamp":"1","type":"interactive","interactive":{"type":"list_reply","list_reply":{"id":"live_odds:77","title":"Live odds"}}},
 {"id":"b","from":"57300","timestamp":"2","type":"button","button":{"payload":"exit_assistant","text":"Exit"}},
 {"id":"c","from":"57300","timestamp":"3","type":"text","text":{"body":"   "}}
]}}]}]}`
	if err := sonic.Unmarshal([]byte(raw), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}

	messages, ignored := inboundMessages(payload)
	if len(messages) != 2 || ignored != 1 {
		t.Fatalf("expected 2 messages and 1 ignored, got %d/%d", len(messages), ignored)
	}
	if messages[0].SelectionID != "live_odds:77" || messages[0].Text != "Live odds" {
		t.Fatalf("unexpected list reply %+v", messages[0])
	}
	if messages[1].SelectionID != "exit_assistant" || !messages[1].ReceivedAt.Equal(time.Unix(2, 0).UTC()) {
		t.Fatalf("unexpected button reply %+v", messages[1])
	}
}

func TestValidWebhookSignature(t *testing.T) {
	body := []byte(`{"a":1}`)
	if !validWebhookSignature("s", body, signBody("s", string(body))) {
		t.Fatalf("expected signature to match")
	}
	for _, header := range []string{"", "sha256=zz", "md5=abc", signBody("t", string(body))} {
		if validWebhookSignature("s", body, header) {
			t.Fatalf("expected header %q to be rejected", header)
		}
	}
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
