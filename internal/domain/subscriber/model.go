package subscriber

import (
	"strings"
	"time"
)

type Tier string

const (
	TierFree    Tier = "free"
	TierPremium Tier = "premium"
	TierPro     Tier = "pro"
)

func ParseTier(value string) (Tier, bool) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(value))); tier {
	case TierFree, TierPremium, TierPro:
		return tier, true
	default:
		return "", false
	}
}

// Subscriber is a WhatsApp user of the chat channel.
type Subscriber struct {
	ID             int64
	PhoneNumber    string
	DisplayName    string
	Tier           Tier
	SubscriptionTo *time.Time
	CreatedAt      time.Time
	LastActivityAt *time.Time
}

// EffectiveTier downgrades an expired paid subscription to free.
func (s Subscriber) EffectiveTier(now time.Time) Tier {
	if s.Tier == "" || s.Tier == TierFree {
		return TierFree
	}
	if s.SubscriptionTo != nil && s.SubscriptionTo.Before(now) {
		return TierFree
	}
	return s.Tier
}
