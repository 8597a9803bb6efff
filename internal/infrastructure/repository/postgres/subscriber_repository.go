package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/subscriber"
	qb "github.com/jcamiloaa/deep90-app/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

var subscriberColumns = []string{"id", "phone_number", "display_name", "tier", "subscription_to", "created_at", "last_activity_at"}

type SubscriberRepository struct {
	db *sqlx.DB
}

func NewSubscriberRepository(db *sqlx.DB) *SubscriberRepository {
	return &SubscriberRepository{db: db}
}

func (r *SubscriberRepository) GetByPhone(ctx context.Context, phone string) (subscriber.Subscriber, bool, error) {
	query, args, err := qb.Select(subscriberColumns...).From("subscribers").
		Where(qb.Eq("phone_number", strings.TrimSpace(phone))).
		Limit(1).
		ToSQL()
	if err != nil {
		return subscriber.Subscriber{}, false, fmt.Errorf("build select subscriber query: %w", err)
	}

	var row subscriberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return subscriber.Subscriber{}, false, nil
		}
		return subscriber.Subscriber{}, false, fmt.Errorf("select subscriber: %w", err)
	}
	return subscriberFromRow(row), true, nil
}

func (r *SubscriberRepository) Register(ctx context.Context, phone, displayName string, at time.Time) (subscriber.Subscriber, error) {
	at = at.UTC()
	query, args, err := qb.InsertModel("subscribers", subscriberInsertModel{
		PhoneNumber:    strings.TrimSpace(phone),
		DisplayName:    strings.TrimSpace(displayName),
		Tier:           string(subscriber.TierFree),
		CreatedAt:      at,
		LastActivityAt: at,
	}, `ON CONFLICT (phone_number)
DO UPDATE SET
    display_name = COALESCE(NULLIF(EXCLUDED.display_name, ''), subscribers.display_name),
    last_activity_at = EXCLUDED.last_activity_at
RETURNING `+strings.Join(subscriberColumns, ", "))
	if err != nil {
		return subscriber.Subscriber{}, fmt.Errorf("build register subscriber query: %w", err)
	}

	var row subscriberTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		return subscriber.Subscriber{}, fmt.Errorf("register subscriber: %w", err)
	}
	return subscriberFromRow(row), nil
}

func subscriberFromRow(row subscriberTableModel) subscriber.Subscriber {
	tier, ok := subscriber.ParseTier(row.Tier)
	if !ok {
		tier = subscriber.TierFree
	}
	return subscriber.Subscriber{
		ID:             row.ID,
		PhoneNumber:    row.PhoneNumber,
		DisplayName:    row.DisplayName,
		Tier:           tier,
		SubscriptionTo: nullTimePtr(row.SubscriptionTo),
		CreatedAt:      row.CreatedAt.UTC(),
		LastActivityAt: nullTimePtr(row.LastActivityAt),
	}
}
