package usecase

import (
	"strings"
	"testing"
	"time"
)

func TestDedupKey_UsesQStashSafeFormat(t *testing.T) {
	t.Parallel()

	at := time.Date(2026, time.February, 25, 4, 25, 42, 0, time.UTC)
	got := dedupKey("reconcile:live odds", 42, at, time.Minute)

	if strings.ContainsAny(got, ": ") {
		t.Fatalf("dedup key must not contain colon or space, got=%q", got)
	}

	want := "reconcile-live-odds-42-20260225T042500Z"
	if got != want {
		t.Fatalf("unexpected dedup key: got=%q want=%q", got, want)
	}
}

func TestDedupKey_SameBucketCollapses(t *testing.T) {
	t.Parallel()

	base := time.Date(2026, time.February, 25, 4, 0, 5, 0, time.UTC)
	first := dedupKey("reconcile", 1, base, 60*time.Second)
	second := dedupKey("reconcile", 1, base.Add(40*time.Second), 60*time.Second)
	third := dedupKey("reconcile", 1, base.Add(70*time.Second), 60*time.Second)

	if first != second {
		t.Fatalf("expected same bucket: %q vs %q", first, second)
	}
	if first == third {
		t.Fatalf("expected next bucket to differ: %q", third)
	}
}

func TestSanitizeDedupSegment_EmptyFallback(t *testing.T) {
	t.Parallel()

	if got := sanitizeDedupSegment(" \t "); got != "unknown" {
		t.Fatalf("unexpected sanitize fallback: got=%q want=%q", got, "unknown")
	}
}
