package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
	"github.com/jcamiloaa/deep90-app/internal/domain/subscriber"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

const (
	replyAssistantFailure = "Something went wrong, please try again. Send *menu* to see the options."
	replyDailyLimit       = "You reached the daily message limit of the free plan. Upgrade to premium to keep chatting, or come back tomorrow."
)

// InboundMessage is one normalized WhatsApp message.
type InboundMessage struct {
	MessageID   string
	From        string
	ProfileName string
	Text        string
	SelectionID string
	ReceivedAt  time.Time
}

// MessageSender delivers text replies to a phone number.
type MessageSender interface {
	SendText(ctx context.Context, to, body string) error
}

// DailyMessageCounter increments a per-day counter and returns the new value.
type DailyMessageCounter interface {
	Increment(ctx context.Context, key string, expireAt time.Time) (int64, error)
}

type ChatConfig struct {
	DailyLimit   int
	LimitedTiers []subscriber.Tier
}

type ChatOutcome struct {
	SubscriberID   int64       `json:"subscriber_id"`
	Action         RouteAction `json:"action"`
	ConversationID int64       `json:"conversation_id,omitempty"`
	Limited        bool        `json:"limited,omitempty"`
	Reply          string      `json:"reply"`
}

type ChatService struct {
	subscribers  subscriber.Repository
	router       *ConversationRouter
	sender       MessageSender
	counter      DailyMessageCounter
	cfg          ChatConfig
	limitedTiers map[subscriber.Tier]struct{}
	logger       *logging.Logger
	now          func() time.Time
}

func NewChatService(
	subscribers subscriber.Repository,
	router *ConversationRouter,
	sender MessageSender,
	counter DailyMessageCounter,
	cfg ChatConfig,
	logger *logging.Logger,
) *ChatService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.LimitedTiers == nil {
		cfg.LimitedTiers = []subscriber.Tier{subscriber.TierFree}
	}
	limited := make(map[subscriber.Tier]struct{}, len(cfg.LimitedTiers))
	for _, tier := range cfg.LimitedTiers {
		limited[tier] = struct{}{}
	}

	return &ChatService{
		subscribers:  subscribers,
		router:       router,
		sender:       sender,
		counter:      counter,
		cfg:          cfg,
		limitedTiers: limited,
		logger:       logger.Named("chat"),
		now:          time.Now,
	}
}

// HandleInbound runs one inbound message through routing and the assistant and
// sends the resulting reply. Assistant failures are answered with a retry hint
// and reported in the returned error.
func (s *ChatService) HandleInbound(ctx context.Context, msg InboundMessage) (ChatOutcome, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ChatService.HandleInbound")
	defer span.End()

	phone := normalizePhone(msg.From)
	if phone == "" {
		return ChatOutcome{}, fmt.Errorf("%w: sender phone is required", ErrInvalidInput)
	}

	sub, err := s.ensureSubscriber(ctx, phone, msg.ProfileName)
	if err != nil {
		return ChatOutcome{}, err
	}
	outcome := ChatOutcome{SubscriberID: sub.ID}

	event := ClassifyInbound(msg.Text, msg.SelectionID)
	routed, err := s.router.Route(ctx, RouteInput{Subscriber: sub, Event: event})
	if err != nil {
		return s.fail(ctx, phone, outcome, fmt.Errorf("route message=%s: %w", msg.MessageID, err))
	}
	outcome.Action = routed.Action
	outcome.ConversationID = routed.Conversation.ID

	switch routed.Action {
	case ActionShowMenu:
		outcome.Reply = MenuText(sub.DisplayName)
	case ActionExited:
		outcome.Reply = exitText(routed.Conversation.Preserve) + "\n\n" + MenuText(sub.DisplayName)
	case ActionSwitched:
		outcome.Reply = switchedText(routed.Conversation, routed.Reused)
	case ActionContinue:
		limited, err := s.overDailyLimit(ctx, sub)
		if err != nil {
			s.logger.WarnContext(ctx, "daily counter unavailable", "subscriber_id", sub.ID, "error", err)
		}
		if limited {
			outcome.Limited = true
			outcome.Reply = replyDailyLimit
			break
		}

		reply, err := s.router.Dispatch(ctx, routed.Conversation, sub, event.Text)
		if err != nil {
			return s.fail(ctx, phone, outcome, fmt.Errorf("dispatch conversation=%d: %w", routed.Conversation.ID, err))
		}
		outcome.Reply = reply.Content
	}

	if err := s.send(ctx, phone, outcome.Reply); err != nil {
		return outcome, err
	}
	return outcome, nil
}

func (s *ChatService) ensureSubscriber(ctx context.Context, phone, profileName string) (subscriber.Subscriber, error) {
	sub, exists, err := s.subscribers.GetByPhone(ctx, phone)
	if err != nil {
		return subscriber.Subscriber{}, fmt.Errorf("get subscriber: %w", err)
	}
	if exists {
		return sub, nil
	}

	sub, err = s.subscribers.Register(ctx, phone, strings.TrimSpace(profileName), s.now().UTC())
	if err != nil {
		return subscriber.Subscriber{}, fmt.Errorf("register subscriber: %w", err)
	}
	s.logger.InfoContext(ctx, "subscriber registered", "subscriber_id", sub.ID)
	return sub, nil
}

// overDailyLimit counts the message against today's quota. Counter failures
// let the message through.
func (s *ChatService) overDailyLimit(ctx context.Context, sub subscriber.Subscriber) (bool, error) {
	if s.counter == nil || s.cfg.DailyLimit <= 0 {
		return false, nil
	}
	now := s.now().UTC()
	if _, ok := s.limitedTiers[sub.EffectiveTier(now)]; !ok {
		return false, nil
	}

	day := now.Truncate(24 * time.Hour)
	key := "chat:daily:" + strconv.FormatInt(sub.ID, 10) + ":" + day.Format("20060102")
	count, err := s.counter.Increment(ctx, key, day.Add(24*time.Hour))
	if err != nil {
		return false, err
	}
	return count > int64(s.cfg.DailyLimit), nil
}

func (s *ChatService) fail(ctx context.Context, phone string, outcome ChatOutcome, cause error) (ChatOutcome, error) {
	if errors.Is(cause, ErrInvalidInput) {
		return outcome, cause
	}
	s.logger.ErrorContext(ctx, "chat message failed", "subscriber_id", outcome.SubscriberID, "error", cause)
	outcome.Reply = replyAssistantFailure
	if err := s.send(ctx, phone, outcome.Reply); err != nil {
		return outcome, errors.Join(cause, err)
	}
	return outcome, cause
}

func (s *ChatService) send(ctx context.Context, phone, body string) error {
	if s.sender == nil || strings.TrimSpace(body) == "" {
		return nil
	}
	if err := s.sender.SendText(ctx, phone, body); err != nil {
		return fmt.Errorf("send reply: %w", err)
	}
	return nil
}

// MenuText lists the selectable personas.
func MenuText(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "there"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Hi %s! Choose an assistant by sending its code:\n", name)
	for _, persona := range conversation.SelectablePersonas() {
		spec, _ := persona.Spec()
		fmt.Fprintf(&sb, "\n*%s* - %s\n%s\n", persona, spec.Title, spec.Description)
	}
	sb.WriteString("\nSend *exit* at any time to leave the current assistant.")
	return sb.String()
}

func switchedText(conv conversation.Conversation, reused bool) string {
	spec, ok := conv.Persona.Spec()
	title := string(conv.Persona)
	if ok {
		title = spec.Title
	}
	if reused {
		return fmt.Sprintf("Welcome back to *%s*. We can pick up where we left off.", title)
	}
	text := fmt.Sprintf("You are now talking with *%s*.", title)
	if conv.FixtureID != nil {
		text += fmt.Sprintf(" Fixture %d is in context.", *conv.FixtureID)
	}
	return text + " Send *exit* to leave."
}

func exitText(preserved bool) string {
	if preserved {
		return "Conversation closed. Your history is saved for next time."
	}
	return "Conversation closed."
}

func normalizePhone(raw string) string {
	var sb strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
