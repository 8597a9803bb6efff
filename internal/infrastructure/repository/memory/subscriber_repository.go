package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jcamiloaa/deep90-app/internal/domain/subscriber"
)

type SubscriberRepository struct {
	mu      sync.RWMutex
	nextID  int64
	byPhone map[string]subscriber.Subscriber
}

func NewSubscriberRepository() *SubscriberRepository {
	return &SubscriberRepository{byPhone: make(map[string]subscriber.Subscriber)}
}

func (r *SubscriberRepository) GetByPhone(_ context.Context, phone string) (subscriber.Subscriber, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.byPhone[strings.TrimSpace(phone)]
	return item, ok, nil
}

func (r *SubscriberRepository) Register(_ context.Context, phone, displayName string, at time.Time) (subscriber.Subscriber, error) {
	phone = strings.TrimSpace(phone)
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byPhone[phone]
	if !ok {
		r.nextID++
		item = subscriber.Subscriber{
			ID:          r.nextID,
			PhoneNumber: phone,
			Tier:        subscriber.TierFree,
			CreatedAt:   at,
		}
	}
	if name := strings.TrimSpace(displayName); name != "" {
		item.DisplayName = name
	}
	item.LastActivityAt = &at
	r.byPhone[phone] = item
	return item, nil
}

// SetTier changes the plan of an existing subscriber. Used by seeds and tests.
func (r *SubscriberRepository) SetTier(phone string, tier subscriber.Tier, until *time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.byPhone[phone]
	if !ok {
		return
	}
	item.Tier = tier
	item.SubscriptionTo = until
	r.byPhone[phone] = item
}
