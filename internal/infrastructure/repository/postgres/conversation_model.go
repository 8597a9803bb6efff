package postgres

import (
	"database/sql"
	"time"
)

type conversationTableModel struct {
	ID            int64         `db:"id"`
	UserID        int64         `db:"user_id"`
	ThreadID      string        `db:"thread_id"`
	Persona       string        `db:"persona"`
	FixtureID     sql.NullInt64 `db:"fixture_id"`
	IsActive      bool          `db:"is_active"`
	Preserve      bool          `db:"preserve"`
	CreatedAt     time.Time     `db:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at"`
	LastMessageAt sql.NullTime  `db:"last_message_at"`
}

type conversationInsertModel struct {
	UserID    int64     `db:"user_id"`
	ThreadID  string    `db:"thread_id"`
	Persona   string    `db:"persona"`
	FixtureID *int64    `db:"fixture_id"`
	IsActive  bool      `db:"is_active"`
	Preserve  bool      `db:"preserve"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type conversationMessageModel struct {
	ID             string    `db:"id"`
	ConversationID int64     `db:"conversation_id"`
	Direction      string    `db:"direction"`
	Content        string    `db:"content"`
	MessageType    string    `db:"message_type"`
	Payload        string    `db:"payload"`
	CreatedAt      time.Time `db:"created_at"`
}

var conversationColumns = []string{
	"id", "user_id", "thread_id", "persona", "fixture_id", "is_active", "preserve",
	"created_at", "updated_at", "last_message_at",
}

type subscriberTableModel struct {
	ID             int64        `db:"id"`
	PhoneNumber    string       `db:"phone_number"`
	DisplayName    string       `db:"display_name"`
	Tier           string       `db:"tier"`
	SubscriptionTo sql.NullTime `db:"subscription_to"`
	CreatedAt      time.Time    `db:"created_at"`
	LastActivityAt sql.NullTime `db:"last_activity_at"`
}

type subscriberInsertModel struct {
	PhoneNumber    string    `db:"phone_number"`
	DisplayName    string    `db:"display_name"`
	Tier           string    `db:"tier"`
	CreatedAt      time.Time `db:"created_at"`
	LastActivityAt time.Time `db:"last_activity_at"`
}
