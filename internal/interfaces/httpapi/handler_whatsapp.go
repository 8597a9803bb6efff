package httpapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/usecase"
	jsoniter "github.com/json-iterator/go"
)

const (
	maxWebhookBodyBytes = 1 << 20
	signatureHeader     = "X-Hub-Signature-256"
	signaturePrefix     = "sha256="
)

type whatsAppWebhook struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string              `json:"field"`
			Value whatsAppChangeValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type whatsAppChangeValue struct {
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
	Messages []whatsAppMessage `json:"messages"`
}

type whatsAppMessage struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text"`
	Interactive *struct {
		Type        string         `json:"type"`
		ListReply   *whatsAppReply `json:"list_reply"`
		ButtonReply *whatsAppReply `json:"button_reply"`
	} `json:"interactive"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button"`
}

type whatsAppReply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type webhookAckDTO struct {
	Accepted int `json:"accepted"`
	Ignored  int `json:"ignored"`
	Dropped  int `json:"dropped"`
}

// VerifyWhatsAppWebhook answers the subscription challenge.
func (h *Handler) VerifyWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.VerifyWhatsAppWebhook")
	defer span.End()

	query := r.URL.Query()
	expected := strings.TrimSpace(h.webhook.VerifyToken)
	token := query.Get("hub.verify_token")
	if query.Get("hub.mode") != "subscribe" || expected == "" ||
		!hmac.Equal([]byte(token), []byte(expected)) {
		h.logger.WarnContext(ctx, "whatsapp webhook verification rejected", "mode", query.Get("hub.mode"))
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, query.Get("hub.challenge"))
}

// ReceiveWhatsAppWebhook queues every chat message and acknowledges at once.
// Status callbacks and unsupported message types are ignored.
func (h *Handler) ReceiveWhatsAppWebhook(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ReceiveWhatsAppWebhook")
	defer span.End()

	if h.chat == nil {
		writeError(ctx, w, fmt.Errorf("%w: whatsapp chat is disabled", usecase.ErrDependencyUnavailable))
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodyBytes))
	if err != nil {
		writeError(ctx, w, fmt.Errorf("%w: read webhook body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if h.webhook.AppSecret != "" && !validWebhookSignature(h.webhook.AppSecret, body, r.Header.Get(signatureHeader)) {
		writeError(ctx, w, fmt.Errorf("%w: invalid webhook signature", usecase.ErrUnauthorized))
		return
	}

	var payload whatsAppWebhook
	if err := jsoniter.Unmarshal(body, &payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid webhook payload: %v", usecase.ErrInvalidInput, err))
		return
	}

	messages, ignored := inboundMessages(payload)
	ack := webhookAckDTO{Ignored: ignored}
	for _, msg := range messages {
		if err := h.chat.Submit(ctx, msg); err != nil {
			ack.Dropped++
			h.logger.WarnContext(ctx, "queue whatsapp message failed", "message_id", msg.MessageID, "error", err)
			continue
		}
		ack.Accepted++
	}

	writeSuccess(ctx, w, http.StatusOK, ack)
}

func validWebhookSignature(secret string, body []byte, header string) bool {
	header = strings.TrimSpace(header)
	if !strings.HasPrefix(header, signaturePrefix) {
		return false
	}
	provided, err := hex.DecodeString(strings.TrimPrefix(header, signaturePrefix))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(provided, mac.Sum(nil))
}

func inboundMessages(payload whatsAppWebhook) ([]usecase.InboundMessage, int) {
	out := make([]usecase.InboundMessage, 0)
	ignored := 0
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			names := make(map[string]string, len(change.Value.Contacts))
			for _, contact := range change.Value.Contacts {
				names[contact.WaID] = contact.Profile.Name
			}

			for _, message := range change.Value.Messages {
				msg, ok := toInboundMessage(message)
				if !ok {
					ignored++
					continue
				}
				msg.ProfileName = names[message.From]
				out = append(out, msg)
			}
		}
	}
	return out, ignored
}

func toInboundMessage(message whatsAppMessage) (usecase.InboundMessage, bool) {
	msg := usecase.InboundMessage{
		MessageID:  message.ID,
		From:       message.From,
		ReceivedAt: parseWebhookTimestamp(message.Timestamp),
	}

	switch message.Type {
	case "text":
		if message.Text == nil {
			return usecase.InboundMessage{}, false
		}
		msg.Text = message.Text.Body
	case "interactive":
		if message.Interactive == nil {
			return usecase.InboundMessage{}, false
		}
		reply := message.Interactive.ListReply
		if reply == nil {
			reply = message.Interactive.ButtonReply
		}
		if reply == nil {
			return usecase.InboundMessage{}, false
		}
		msg.Text = reply.Title
		msg.SelectionID = reply.ID
	case "button":
		if message.Button == nil {
			return usecase.InboundMessage{}, false
		}
		msg.Text = message.Button.Text
		msg.SelectionID = message.Button.Payload
	default:
		return usecase.InboundMessage{}, false
	}

	if strings.TrimSpace(msg.From) == "" || (strings.TrimSpace(msg.Text) == "" && msg.SelectionID == "") {
		return usecase.InboundMessage{}, false
	}
	return msg, true
}

func parseWebhookTimestamp(raw string) time.Time {
	seconds, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || seconds <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(seconds, 0).UTC()
}
