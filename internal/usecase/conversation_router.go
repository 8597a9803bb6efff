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
	"github.com/jcamiloaa/deep90-app/internal/platform/id"
	"github.com/jcamiloaa/deep90-app/internal/platform/logging"
)

type EventKind string

const (
	EventText          EventKind = "text"
	EventSelectPersona EventKind = "select_persona"
	EventExit          EventKind = "exit"
	EventMenu          EventKind = "menu"
)

// InboundEvent is a normalized chat event.
type InboundEvent struct {
	Kind      EventKind
	Text      string
	Persona   conversation.Persona
	FixtureID *int64
}

type RouteInput struct {
	Subscriber subscriber.Subscriber
	Event      InboundEvent
}

type RouteAction string

const (
	ActionSwitched RouteAction = "switched"
	ActionContinue RouteAction = "continue"
	ActionShowMenu RouteAction = "show_menu"
	ActionExited   RouteAction = "exited"
)

type RouteResult struct {
	Action       RouteAction
	Conversation conversation.Conversation
	Reused       bool
}

type AssistantReply struct {
	ConversationID int64
	RunID          string
	Content        string
	ToolIterations int
}

type ConversationRouterConfig struct {
	AssistantIDs      map[conversation.Persona]string
	PreserveTiers     []subscriber.Tier
	MaxToolIterations int
	PollInterval      time.Duration
	PollTimeout       time.Duration
}

type toolExecutor interface {
	Definitions() []ToolDefinition
	Execute(ctx context.Context, calls []ToolCall) []ToolOutput
}

// ConversationRouter binds chat events to a persona conversation and runs
// user turns through the assistant.
type ConversationRouter struct {
	repo          conversation.Repository
	bridge        AssistantBridge
	tools         toolExecutor
	ids           id.Generator
	cfg           ConversationRouterConfig
	preserveTiers map[subscriber.Tier]struct{}
	logger        *logging.Logger
	now           func() time.Time
}

func NewConversationRouter(
	repo conversation.Repository,
	bridge AssistantBridge,
	tools *AssistantToolbox,
	ids id.Generator,
	cfg ConversationRouterConfig,
	logger *logging.Logger,
) *ConversationRouter {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewUUIDGenerator()
	}
	if cfg.MaxToolIterations <= 0 {
		cfg.MaxToolIterations = 5
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 3 * time.Second
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = 90 * time.Second
	}
	if cfg.PreserveTiers == nil {
		cfg.PreserveTiers = []subscriber.Tier{subscriber.TierPremium, subscriber.TierPro}
	}

	preserve := make(map[subscriber.Tier]struct{}, len(cfg.PreserveTiers))
	for _, tier := range cfg.PreserveTiers {
		preserve[tier] = struct{}{}
	}

	r := &ConversationRouter{
		repo:          repo,
		bridge:        bridge,
		ids:           ids,
		cfg:           cfg,
		preserveTiers: preserve,
		logger:        logger.Named("router"),
		now:           time.Now,
	}
	if tools != nil {
		r.tools = tools
	}
	return r
}

func (r *ConversationRouter) Route(ctx context.Context, input RouteInput) (RouteResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConversationRouter.Route")
	defer span.End()

	sub := input.Subscriber
	if sub.ID == 0 {
		return RouteResult{}, fmt.Errorf("%w: subscriber is required", ErrInvalidInput)
	}

	switch input.Event.Kind {
	case EventSelectPersona:
		return r.switchPersona(ctx, sub, input.Event)
	case EventExit, EventMenu:
		return r.leave(ctx, sub, input.Event)
	case EventText:
		active, ok, err := r.repo.GetActive(ctx, sub.ID)
		if err != nil {
			return RouteResult{}, fmt.Errorf("get active conversation user=%d: %w", sub.ID, err)
		}
		if !ok {
			return RouteResult{Action: ActionShowMenu}, nil
		}
		return RouteResult{Action: ActionContinue, Conversation: active}, nil
	default:
		return RouteResult{}, fmt.Errorf("%w: unknown event kind %q", ErrInvalidInput, input.Event.Kind)
	}
}

func (r *ConversationRouter) switchPersona(ctx context.Context, sub subscriber.Subscriber, event InboundEvent) (RouteResult, error) {
	spec, ok := event.Persona.Spec()
	if !ok || !spec.Selectable {
		return RouteResult{}, fmt.Errorf("%w: persona %q cannot be selected", ErrInvalidInput, event.Persona)
	}

	now := r.now().UTC()
	tier := sub.EffectiveTier(now)
	trigger, err := r.newMessage(0, conversation.DirectionUser, event.Text, "persona_select", now)
	if err != nil {
		return RouteResult{}, err
	}
	trigger.Payload = map[string]any{"persona": string(event.Persona)}
	if event.FixtureID != nil {
		trigger.Payload["fixture_id"] = *event.FixtureID
	}

	// Saved threads are only offered to tiers that keep context, so a lapsed
	// subscription starts clean even if an older conversation was preserved.
	preserve := r.preserves(tier)
	var (
		preserved conversation.Conversation
		found     bool
	)
	if preserve {
		preserved, found, err = r.repo.FindPreserved(ctx, sub.ID, event.Persona, event.FixtureID)
		if err != nil {
			return RouteResult{}, fmt.Errorf("find preserved conversation user=%d: %w", sub.ID, err)
		}
	}
	if found {
		exists, err := r.bridge.ThreadExists(ctx, preserved.ThreadID)
		if err != nil {
			r.logger.WarnContext(ctx, "validate preserved thread failed", "conversation_id", preserved.ID, "error", err)
		}
		if err == nil && exists {
			reused, err := r.repo.Activate(ctx, conversation.ActivateInput{
				UserID:           sub.ID,
				ReuseID:          preserved.ID,
				PreservePrevious: preserve,
				At:               now,
				Message:          &trigger,
			})
			if err != nil {
				return RouteResult{}, fmt.Errorf("reactivate conversation=%d: %w", preserved.ID, err)
			}
			notice := fmt.Sprintf("The user came back to this conversation. Subscription: %s. Keep the context of previous messages.", tier)
			if err := r.bridge.PostMessage(ctx, reused.ThreadID, notice, r.metadata(sub, tier)); err != nil {
				r.logger.WarnContext(ctx, "post return notice failed", "conversation_id", reused.ID, "error", err)
			}
			return RouteResult{Action: ActionSwitched, Conversation: reused, Reused: true}, nil
		}
	}

	threadID, err := r.bridge.CreateThread(ctx)
	if err != nil {
		return RouteResult{}, fmt.Errorf("%w: create thread: %v", ErrAssistantUnavailable, err)
	}
	initial := event.Persona.InitialContext(displayName(sub), string(tier), event.FixtureID)
	if err := r.bridge.PostMessage(ctx, threadID, initial, r.metadata(sub, tier)); err != nil {
		return RouteResult{}, fmt.Errorf("%w: prime thread: %v", ErrAssistantUnavailable, err)
	}

	created, err := r.repo.Activate(ctx, conversation.ActivateInput{
		UserID:           sub.ID,
		ThreadID:         threadID,
		Persona:          event.Persona,
		FixtureID:        event.FixtureID,
		Preserve:         preserve,
		PreservePrevious: preserve,
		At:               now,
		Message:          &trigger,
	})
	if err != nil {
		return RouteResult{}, fmt.Errorf("activate conversation user=%d: %w", sub.ID, err)
	}
	return RouteResult{Action: ActionSwitched, Conversation: created}, nil
}

func (r *ConversationRouter) leave(ctx context.Context, sub subscriber.Subscriber, event InboundEvent) (RouteResult, error) {
	active, ok, err := r.repo.GetActive(ctx, sub.ID)
	if err != nil {
		return RouteResult{}, fmt.Errorf("get active conversation user=%d: %w", sub.ID, err)
	}
	if !ok {
		return RouteResult{Action: ActionShowMenu}, nil
	}

	now := r.now().UTC()
	preserve := r.preserves(sub.EffectiveTier(now))
	message, err := r.newMessage(active.ID, conversation.DirectionUser, event.Text, string(event.Kind), now)
	if err != nil {
		return RouteResult{}, err
	}
	if err := r.repo.Deactivate(ctx, active.ID, preserve, &message); err != nil {
		return RouteResult{}, fmt.Errorf("deactivate conversation=%d: %w", active.ID, err)
	}

	active.Active = false
	active.Preserve = preserve
	action := ActionExited
	if event.Kind == EventMenu {
		action = ActionShowMenu
	}
	return RouteResult{Action: action, Conversation: active}, nil
}

// Dispatch stores the user turn, runs the assistant on the conversation thread
// and stores the reply. Assistant failures keep the user turn and surface
// ErrAssistantUnavailable.
func (r *ConversationRouter) Dispatch(ctx context.Context, conv conversation.Conversation, sub subscriber.Subscriber, text string) (AssistantReply, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ConversationRouter.Dispatch")
	defer span.End()

	text = strings.TrimSpace(text)
	if text == "" {
		return AssistantReply{}, fmt.Errorf("%w: message text is required", ErrInvalidInput)
	}

	now := r.now().UTC()
	turn, err := r.newMessage(conv.ID, conversation.DirectionUser, text, conversation.MessageTypeText, now)
	if err != nil {
		return AssistantReply{}, err
	}
	if err := r.repo.AppendMessage(ctx, turn); err != nil {
		return AssistantReply{}, fmt.Errorf("append user turn conversation=%d: %w", conv.ID, err)
	}

	assistantID := r.assistantFor(conv.Persona)
	if assistantID == "" {
		return AssistantReply{}, fmt.Errorf("%w: no assistant configured for persona %s", ErrAssistantUnavailable, conv.Persona)
	}

	tier := sub.EffectiveTier(now)
	if err := r.bridge.PostMessage(ctx, conv.ThreadID, text, r.metadata(sub, tier)); err != nil {
		return AssistantReply{}, fmt.Errorf("%w: post message: %v", ErrAssistantUnavailable, err)
	}

	var definitions []ToolDefinition
	if r.tools != nil {
		definitions = r.tools.Definitions()
	}
	run, err := r.bridge.CreateRun(ctx, conv.ThreadID, assistantID, definitions)
	if err != nil {
		return AssistantReply{}, fmt.Errorf("%w: create run: %v", ErrAssistantUnavailable, err)
	}

	run, iterations, err := r.awaitRun(ctx, conv.ThreadID, run)
	if err != nil {
		r.logger.WarnContext(ctx, "assistant run did not complete",
			"conversation_id", conv.ID,
			"run_id", run.ID,
			"tool_iterations", iterations,
			"error", err,
		)
		return AssistantReply{}, err
	}

	content, ok, err := r.bridge.LatestAssistantMessage(ctx, conv.ThreadID)
	if err != nil {
		return AssistantReply{}, fmt.Errorf("%w: fetch reply: %v", ErrAssistantUnavailable, err)
	}
	if !ok {
		return AssistantReply{}, fmt.Errorf("%w: run %s completed without a reply", ErrAssistantUnavailable, run.ID)
	}

	reply, err := r.newMessage(conv.ID, conversation.DirectionAssistant, content, conversation.MessageTypeText, r.now().UTC())
	if err != nil {
		return AssistantReply{}, err
	}
	reply.Payload = map[string]any{"run_id": run.ID, "tool_iterations": iterations}
	if err := r.repo.AppendMessage(ctx, reply); err != nil {
		return AssistantReply{}, fmt.Errorf("append assistant turn conversation=%d: %w", conv.ID, err)
	}

	return AssistantReply{
		ConversationID: conv.ID,
		RunID:          run.ID,
		Content:        content,
		ToolIterations: iterations,
	}, nil
}

// awaitRun polls until the run completes. Tool rounds are capped by
// MaxToolIterations and the whole wait by PollTimeout.
func (r *ConversationRouter) awaitRun(ctx context.Context, threadID string, run AssistantRun) (AssistantRun, int, error) {
	pollCtx, cancel := context.WithTimeout(ctx, r.cfg.PollTimeout)
	defer cancel()

	iterations := 0
	for {
		var err error
		switch run.Status {
		case RunCompleted:
			return run, iterations, nil
		case RunRequiresAction:
			if iterations >= r.cfg.MaxToolIterations {
				return run, iterations, fmt.Errorf("%w: run %s exceeded %d tool iterations", ErrAssistantUnavailable, run.ID, r.cfg.MaxToolIterations)
			}
			iterations++
			var outputs []ToolOutput
			if r.tools != nil {
				outputs = r.tools.Execute(pollCtx, run.ToolCalls)
			} else {
				outputs = unavailableToolOutputs(run.ToolCalls)
			}
			run, err = r.bridge.SubmitToolOutputs(pollCtx, threadID, run.ID, outputs)
		case RunQueued, RunInProgress:
			if err := waitFor(pollCtx, r.cfg.PollInterval); err != nil {
				return run, iterations, r.pollError(ctx, run, err)
			}
			run, err = r.bridge.GetRun(pollCtx, threadID, run.ID)
		default:
			reason := run.LastError
			if reason == "" {
				reason = string(run.Status)
			}
			return run, iterations, fmt.Errorf("%w: run %s ended: %s", ErrAssistantUnavailable, run.ID, reason)
		}
		if err != nil {
			if pollCtx.Err() != nil {
				return run, iterations, r.pollError(ctx, run, pollCtx.Err())
			}
			return run, iterations, fmt.Errorf("%w: poll run: %v", ErrAssistantUnavailable, err)
		}
	}
}

func (r *ConversationRouter) pollError(parent context.Context, run AssistantRun, err error) error {
	if parent.Err() != nil {
		return fmt.Errorf("%w: %v", ErrAssistantUnavailable, parent.Err())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: run %s still %s after %s", ErrAssistantUnavailable, run.ID, run.Status, r.cfg.PollTimeout)
	}
	return fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
}

func waitFor(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func unavailableToolOutputs(calls []ToolCall) []ToolOutput {
	outputs := make([]ToolOutput, 0, len(calls))
	for _, call := range calls {
		outputs = append(outputs, ToolOutput{ToolCallID: call.ID, Output: fmt.Sprintf("Error: function '%s' is not implemented.", call.Name)})
	}
	return outputs
}

func (r *ConversationRouter) assistantFor(persona conversation.Persona) string {
	if assistantID := strings.TrimSpace(r.cfg.AssistantIDs[persona]); assistantID != "" {
		return assistantID
	}
	return strings.TrimSpace(r.cfg.AssistantIDs[conversation.PersonaGeneral])
}

func (r *ConversationRouter) preserves(tier subscriber.Tier) bool {
	_, ok := r.preserveTiers[tier]
	return ok
}

func (r *ConversationRouter) metadata(sub subscriber.Subscriber, tier subscriber.Tier) map[string]string {
	return map[string]string{
		"name":         displayName(sub),
		"subscription": string(tier),
		"user_id":      strconv.FormatInt(sub.ID, 10),
	}
}

func (r *ConversationRouter) newMessage(conversationID int64, direction conversation.Direction, content, kind string, at time.Time) (conversation.Message, error) {
	messageID, err := r.ids.NewID()
	if err != nil {
		return conversation.Message{}, fmt.Errorf("generate message id: %w", err)
	}
	if kind == "" {
		kind = conversation.MessageTypeText
	}
	return conversation.Message{
		ID:             messageID,
		ConversationID: conversationID,
		Direction:      direction,
		Content:        content,
		Type:           kind,
		CreatedAt:      at,
	}, nil
}

func displayName(sub subscriber.Subscriber) string {
	if name := strings.TrimSpace(sub.DisplayName); name != "" {
		return name
	}
	return "User"
}
