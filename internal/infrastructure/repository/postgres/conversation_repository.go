package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/conversation"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type ConversationRepository struct {
	db *sqlx.DB
}

func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

func (r *ConversationRepository) GetActive(ctx context.Context, userID int64) (conversation.Conversation, bool, error) {
	query, args, err := qb.Select(conversationColumns...).From("conversations").
		Where(qb.Eq("user_id", userID), qb.Eq("is_active", true)).
		Limit(1).
		ToSQL()
	if err != nil {
		return conversation.Conversation{}, false, fmt.Errorf("build select active conversation query: %w", err)
	}
	return r.getOne(ctx, query, args, fmt.Sprintf("select active conversation user=%d", userID))
}

func (r *ConversationRepository) FindPreserved(ctx context.Context, userID int64, persona conversation.Persona, fixtureID *int64) (conversation.Conversation, bool, error) {
	fixtureCondition := qb.IsNull("fixture_id")
	if fixtureID != nil {
		fixtureCondition = qb.Eq("fixture_id", *fixtureID)
	}
	query, args, err := qb.Select(conversationColumns...).From("conversations").
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("persona", string(persona)),
			fixtureCondition,
			qb.Eq("preserve", true),
			qb.Eq("is_active", false),
		).
		OrderBy("updated_at DESC", "id DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return conversation.Conversation{}, false, fmt.Errorf("build select preserved conversation query: %w", err)
	}
	return r.getOne(ctx, query, args, fmt.Sprintf("select preserved conversation user=%d persona=%s", userID, persona))
}

// Activate runs the switch in one transaction. The partial unique index on
// (user_id) WHERE is_active rejects a concurrent second activation.
func (r *ConversationRepository) Activate(ctx context.Context, input conversation.ActivateInput) (conversation.Conversation, error) {
	at := input.At.UTC()
	if input.At.IsZero() {
		at = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("begin tx activate conversation: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	deactivateQuery, deactivateArgs, err := qb.Update("conversations").
		Set("is_active", false).
		Set("preserve", input.PreservePrevious).
		Set("updated_at", at).
		Where(qb.Eq("user_id", input.UserID), qb.Eq("is_active", true)).
		ToSQL()
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("build deactivate conversations query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, deactivateQuery, deactivateArgs...); err != nil {
		return conversation.Conversation{}, fmt.Errorf("deactivate conversations user=%d: %w", input.UserID, err)
	}

	var (
		query string
		args  []any
	)
	returning := "RETURNING " + strings.Join(conversationColumns, ", ")
	if input.ReuseID != 0 {
		query, args, err = qb.Update("conversations").
			Set("is_active", true).
			Set("updated_at", at).
			Where(qb.Eq("id", input.ReuseID), qb.Eq("user_id", input.UserID)).
			Suffix(returning).
			ToSQL()
	} else {
		query, args, err = qb.InsertModel("conversations", conversationInsertModel{
			UserID:    input.UserID,
			ThreadID:  input.ThreadID,
			Persona:   string(input.Persona),
			FixtureID: input.FixtureID,
			IsActive:  true,
			Preserve:  input.Preserve,
			CreatedAt: at,
			UpdatedAt: at,
		}, returning)
	}
	if err != nil {
		return conversation.Conversation{}, fmt.Errorf("build activate conversation query: %w", err)
	}

	var row conversationTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return conversation.Conversation{}, fmt.Errorf("conversation=%d not found for user=%d", input.ReuseID, input.UserID)
		}
		return conversation.Conversation{}, fmt.Errorf("activate conversation user=%d: %w", input.UserID, err)
	}

	if input.Message != nil {
		message := *input.Message
		message.ConversationID = row.ID
		if message.CreatedAt.IsZero() {
			message.CreatedAt = at
		}
		if err := appendMessage(ctx, tx, message); err != nil {
			return conversation.Conversation{}, err
		}
		row.LastMessageAt.Time, row.LastMessageAt.Valid = message.CreatedAt, true
	}

	if err := tx.Commit(); err != nil {
		return conversation.Conversation{}, fmt.Errorf("commit activate conversation user=%d: %w", input.UserID, err)
	}
	return conversationFromRow(row), nil
}

func (r *ConversationRepository) Deactivate(ctx context.Context, conversationID int64, preserve bool, message *conversation.Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx deactivate conversation: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query, args, err := qb.Update("conversations").
		Set("is_active", false).
		Set("preserve", preserve).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("id", conversationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate conversation query: %w", err)
	}
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deactivate conversation=%d: %w", conversationID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected deactivate conversation=%d: %w", conversationID, err)
	}
	if affected == 0 {
		return fmt.Errorf("conversation=%d not found", conversationID)
	}

	if message != nil {
		copied := *message
		copied.ConversationID = conversationID
		if err := appendMessage(ctx, tx, copied); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit deactivate conversation=%d: %w", conversationID, err)
	}
	return nil
}

func (r *ConversationRepository) AppendMessage(ctx context.Context, message conversation.Message) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx append message: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := appendMessage(ctx, tx, message); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append message conversation=%d: %w", message.ConversationID, err)
	}
	return nil
}

func (r *ConversationRepository) ListMessages(ctx context.Context, conversationID int64, limit int) ([]conversation.Message, error) {
	builder := qb.Select("id", "conversation_id", "direction", "content", "message_type", "payload::text AS payload", "created_at").
		From("conversation_messages").
		Where(qb.Eq("conversation_id", conversationID)).
		OrderBy("created_at DESC", "id DESC")
	if limit > 0 {
		builder = builder.Limit(limit)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list messages query: %w", err)
	}

	var rows []conversationMessageModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list messages conversation=%d: %w", conversationID, err)
	}

	// newest first from the query, oldest first to callers
	out := make([]conversation.Message, len(rows))
	for i, row := range rows {
		out[len(rows)-1-i] = conversation.Message{
			ID:             row.ID,
			ConversationID: row.ConversationID,
			Direction:      conversation.Direction(row.Direction),
			Content:        row.Content,
			Type:           row.MessageType,
			Payload:        decodeJSONMap(row.Payload),
			CreatedAt:      row.CreatedAt.UTC(),
		}
	}
	return out, nil
}

func (r *ConversationRepository) getOne(ctx context.Context, query string, args []any, op string) (conversation.Conversation, bool, error) {
	var row conversationTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return conversation.Conversation{}, false, nil
		}
		return conversation.Conversation{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return conversationFromRow(row), true, nil
}

func appendMessage(ctx context.Context, tx *sqlx.Tx, message conversation.Message) error {
	if strings.TrimSpace(message.ID) == "" {
		return fmt.Errorf("message id is required")
	}
	payload, err := encodeJSONMap(message.Payload)
	if err != nil {
		return fmt.Errorf("marshal message payload: %w", err)
	}
	createdAt := message.CreatedAt.UTC()
	if message.CreatedAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	messageType := message.Type
	if messageType == "" {
		messageType = conversation.MessageTypeText
	}

	query, args, err := qb.InsertModel("conversation_messages", conversationMessageModel{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		Direction:      string(message.Direction),
		Content:        message.Content,
		MessageType:    messageType,
		Payload:        payload,
		CreatedAt:      createdAt,
	}, "")
	if err != nil {
		return fmt.Errorf("build insert message query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert message conversation=%d: %w", message.ConversationID, err)
	}

	touchQuery, touchArgs, err := qb.Update("conversations").
		Set("last_message_at", createdAt).
		Set("updated_at", createdAt).
		Where(qb.Eq("id", message.ConversationID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build touch conversation query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, touchQuery, touchArgs...); err != nil {
		return fmt.Errorf("touch conversation=%d: %w", message.ConversationID, err)
	}
	return nil
}

func conversationFromRow(row conversationTableModel) conversation.Conversation {
	persona, _ := conversation.ParsePersona(row.Persona)
	return conversation.Conversation{
		ID:            row.ID,
		UserID:        row.UserID,
		ThreadID:      row.ThreadID,
		Active:        row.IsActive,
		Persona:       persona,
		FixtureID:     nullInt64Ptr(row.FixtureID),
		Preserve:      row.Preserve,
		CreatedAt:     row.CreatedAt.UTC(),
		UpdatedAt:     row.UpdatedAt.UTC(),
		LastMessageAt: nullTimePtr(row.LastMessageAt),
	}
}
