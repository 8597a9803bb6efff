package conversation

import (
	"fmt"
	"time"
)

type Direction string

const (
	DirectionUser      Direction = "user"
	DirectionAssistant Direction = "assistant"
)

const MessageTypeText = "text"

type Conversation struct {
	ID            int64
	UserID        int64
	ThreadID      string
	Active        bool
	Persona       Persona
	FixtureID     *int64
	Preserve      bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastMessageAt *time.Time
}

// FormattedID is the external reference of the conversation.
func (c Conversation) FormattedID() string {
	if c.Persona == PersonaSystem {
		return fmt.Sprintf("system_conversation_%d", c.ID)
	}
	return fmt.Sprintf("%s_%s", c.ThreadID, c.Persona)
}

// SameContext reports whether c serves the given persona and fixture.
func (c Conversation) SameContext(persona Persona, fixtureID *int64) bool {
	if c.Persona != persona {
		return false
	}
	if c.FixtureID == nil || fixtureID == nil {
		return c.FixtureID == nil && fixtureID == nil
	}
	return *c.FixtureID == *fixtureID
}

// Message is an immutable turn.
type Message struct {
	ID             string
	ConversationID int64
	Direction      Direction
	Content        string
	Type           string
	Payload        map[string]any
	CreatedAt      time.Time
}

// ActivateInput describes an activation transition. When ReuseID is set the
// preserved conversation is reactivated, otherwise a new one is created with
// ThreadID, Persona, FixtureID and Preserve. The conversation being left gets
// PreservePrevious, decided from the user's tier at switch time.
type ActivateInput struct {
	UserID           int64
	ReuseID          int64
	ThreadID         string
	Persona          Persona
	FixtureID        *int64
	Preserve         bool
	PreservePrevious bool
	At               time.Time
	Message          *Message
}
