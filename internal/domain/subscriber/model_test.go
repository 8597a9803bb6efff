package subscriber

import (
	"testing"
	"time"
)

func TestSubscriber_EffectiveTier(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expired := now.Add(-time.Hour)
	valid := now.Add(time.Hour)

	cases := []struct {
		name string
		sub  Subscriber
		want Tier
	}{
		{name: "empty", sub: Subscriber{}, want: TierFree},
		{name: "premium no expiry", sub: Subscriber{Tier: TierPremium}, want: TierPremium},
		{name: "pro valid", sub: Subscriber{Tier: TierPro, SubscriptionTo: &valid}, want: TierPro},
		{name: "premium expired", sub: Subscriber{Tier: TierPremium, SubscriptionTo: &expired}, want: TierFree},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.sub.EffectiveTier(now); got != tc.want {
				t.Fatalf("unexpected tier: got=%s want=%s", got, tc.want)
			}
		})
	}
}
