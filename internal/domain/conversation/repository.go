package conversation

import "context"

type Repository interface {
	GetActive(ctx context.Context, userID int64) (Conversation, bool, error)
	FindPreserved(ctx context.Context, userID int64, persona Persona, fixtureID *int64) (Conversation, bool, error)
	// Activate deactivates the user's active conversation, then reactivates or
	// creates the target and appends input.Message, all in one transaction.
	Activate(ctx context.Context, input ActivateInput) (Conversation, error)
	// Deactivate clears the active flag, stores preserve and appends message in
	// one transaction.
	Deactivate(ctx context.Context, conversationID int64, preserve bool, message *Message) error
	AppendMessage(ctx context.Context, message Message) error
	ListMessages(ctx context.Context, conversationID int64, limit int) ([]Message, error)
}
