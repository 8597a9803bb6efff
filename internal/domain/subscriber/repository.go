package subscriber

import (
	"context"
	"time"
)

type Repository interface {
	GetByPhone(ctx context.Context, phone string) (Subscriber, bool, error)
	// Register upserts by phone number, refreshing display name and last activity.
	Register(ctx context.Context, phone, displayName string, at time.Time) (Subscriber, error)
}
