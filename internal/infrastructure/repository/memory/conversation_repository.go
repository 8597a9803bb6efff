package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
)

type ConversationRepository struct {
	mu            sync.RWMutex
	nextID        int64
	conversations map[int64]conversation.Conversation
	messages      map[int64][]conversation.Message
}

func NewConversationRepository() *ConversationRepository {
	return &ConversationRepository{
		conversations: make(map[int64]conversation.Conversation),
		messages:      make(map[int64][]conversation.Message),
	}
}

func (r *ConversationRepository) GetActive(_ context.Context, userID int64) (conversation.Conversation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, item := range r.conversations {
		if item.UserID == userID && item.Active {
			return cloneConversation(item), true, nil
		}
	}
	return conversation.Conversation{}, false, nil
}

func (r *ConversationRepository) FindPreserved(_ context.Context, userID int64, persona conversation.Persona, fixtureID *int64) (conversation.Conversation, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var (
		found conversation.Conversation
		ok    bool
	)
	for _, item := range r.conversations {
		if item.UserID != userID || item.Active || !item.Preserve || !item.SameContext(persona, fixtureID) {
			continue
		}
		if !ok || item.UpdatedAt.After(found.UpdatedAt) {
			found, ok = item, true
		}
	}
	if !ok {
		return conversation.Conversation{}, false, nil
	}
	return cloneConversation(found), true, nil
}

func (r *ConversationRepository) Activate(_ context.Context, input conversation.ActivateInput) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var target conversation.Conversation
	if input.ReuseID != 0 {
		existing, ok := r.conversations[input.ReuseID]
		if !ok || existing.UserID != input.UserID {
			return conversation.Conversation{}, fmt.Errorf("conversation=%d not found for user=%d", input.ReuseID, input.UserID)
		}
		target = existing
	} else {
		r.nextID++
		target = conversation.Conversation{
			ID:        r.nextID,
			UserID:    input.UserID,
			ThreadID:  input.ThreadID,
			Persona:   input.Persona,
			FixtureID: cloneInt64(input.FixtureID),
			Preserve:  input.Preserve,
			CreatedAt: input.At,
		}
	}

	for id, item := range r.conversations {
		if item.UserID == input.UserID && item.Active && id != target.ID {
			item.Active = false
			item.Preserve = input.PreservePrevious
			item.UpdatedAt = input.At
			r.conversations[id] = item
		}
	}

	target.Active = true
	target.UpdatedAt = input.At
	if input.Message != nil {
		message := *input.Message
		message.ConversationID = target.ID
		r.messages[target.ID] = append(r.messages[target.ID], message)
		at := input.At
		target.LastMessageAt = &at
	}
	r.conversations[target.ID] = target
	return cloneConversation(target), nil
}

func (r *ConversationRepository) Deactivate(_ context.Context, conversationID int64, preserve bool, message *conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.conversations[conversationID]
	if !ok {
		return fmt.Errorf("conversation=%d not found", conversationID)
	}
	item.Active = false
	item.Preserve = preserve
	if message != nil {
		copied := *message
		copied.ConversationID = conversationID
		r.messages[conversationID] = append(r.messages[conversationID], copied)
		item.UpdatedAt = copied.CreatedAt
		item.LastMessageAt = cloneTime(&copied.CreatedAt)
	}
	r.conversations[conversationID] = item
	return nil
}

func (r *ConversationRepository) AppendMessage(_ context.Context, message conversation.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.conversations[message.ConversationID]
	if !ok {
		return fmt.Errorf("conversation=%d not found", message.ConversationID)
	}
	r.messages[message.ConversationID] = append(r.messages[message.ConversationID], message)
	item.LastMessageAt = cloneTime(&message.CreatedAt)
	item.UpdatedAt = message.CreatedAt
	r.conversations[message.ConversationID] = item
	return nil
}

func (r *ConversationRepository) ListMessages(_ context.Context, conversationID int64, limit int) ([]conversation.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := append([]conversation.Message(nil), r.messages[conversationID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// ActiveCount is the number of active conversations for a user.
func (r *ConversationRepository) ActiveCount(userID int64) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, item := range r.conversations {
		if item.UserID == userID && item.Active {
			count++
		}
	}
	return count
}

func cloneConversation(item conversation.Conversation) conversation.Conversation {
	copied := item
	copied.FixtureID = cloneInt64(item.FixtureID)
	copied.LastMessageAt = cloneTime(item.LastMessageAt)
	return copied
}

func cloneInt64(in *int64) *int64 {
	if in == nil {
		return nil
	}
	v := *in
	return &v
}
