package source

import (
	"testing"
	"time"
)

func TestBackoffDelay_MonotonicAndCapped(t *testing.T) {
	t.Parallel()

	interval := 60 * time.Second
	prev := time.Duration(0)
	for errorCount := 0; errorCount <= 12; errorCount++ {
		got := BackoffDelay(interval, errorCount)
		if got < prev {
			t.Fatalf("delay decreased at error_count=%d: got=%s prev=%s", errorCount, got, prev)
		}
		if got > 6*interval {
			t.Fatalf("delay above cap at error_count=%d: got=%s", errorCount, got)
		}
		prev = got
	}

	if got := BackoffDelay(interval, 1); got != 2*interval {
		t.Fatalf("unexpected first failure delay: got=%s want=%s", got, 2*interval)
	}
	if got := BackoffDelay(interval, 5); got != 6*interval {
		t.Fatalf("unexpected capped delay: got=%s want=%s", got, 6*interval)
	}
}

func TestSource_IsDue(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	cases := []struct {
		name string
		src  Source
		want bool
	}{
		{name: "never run", src: Source{Enabled: true, Status: StatusIdle}, want: true},
		{name: "past", src: Source{Enabled: true, Status: StatusFailed, NextRunAt: &past}, want: true},
		{name: "exactly now", src: Source{Enabled: true, Status: StatusIdle, NextRunAt: &now}, want: true},
		{name: "future", src: Source{Enabled: true, Status: StatusIdle, NextRunAt: &future}, want: false},
		{name: "running", src: Source{Enabled: true, Status: StatusRunning, NextRunAt: &past}, want: false},
		{name: "disabled", src: Source{Enabled: false, Status: StatusIdle, NextRunAt: &past}, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.src.IsDue(now); got != tc.want {
				t.Fatalf("unexpected due: got=%v want=%v", got, tc.want)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	t.Parallel()

	kind, ok := ParseKind(" LIVE_ODDS ")
	if !ok || kind != KindLiveOdds {
		t.Fatalf("unexpected kind: got=%q ok=%v", kind, ok)
	}
	if _, ok := ParseKind("standings"); ok {
		t.Fatalf("unknown kind must not parse")
	}

	spec, ok := KindLiveFixtures.Spec()
	if !ok || spec.DefaultParams["live"] != "all" {
		t.Fatalf("unexpected fixtures spec: %+v", spec)
	}
	spec.DefaultParams["live"] = "mutated"
	again, _ := KindLiveFixtures.Spec()
	if again.DefaultParams["live"] != "all" {
		t.Fatalf("spec params must be copied")
	}
}
