package reddit

import (
	"context"
	"errors"
	"testing"
	"time"

	"redbird/internal/model"
)

func postAged(id string, age time.Duration, now time.Time) model.RawPost {
	return model.RawPost{ID: id, CreatedUTC: float64(now.Add(-age).Unix())}
}

func TestFirstWindowWithResultsWins(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	canned := []model.RawPost{
		postAged("fresh", 2*time.Hour, now),
		postAged("old", 40*time.Hour, now),
	}
	calls := 0
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) {
		calls++
		return canned, nil
	}
	got, err := SlidingWindowFetch(context.Background(), fetch, "https://example.com/r/go", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single fetch for the first window, got %d", calls)
	}
	if len(got) != 1 || got[0].ID != "fresh" {
		t.Fatalf("expected only the fresh post, got %v", got)
	}
}

func TestWidensOnEmptyWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	canned := []model.RawPost{postAged("day-old", 20*time.Hour, now)}
	calls := 0
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) {
		calls++
		return canned, nil
	}
	got, err := SlidingWindowFetch(context.Background(), fetch, "u", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 10h window to come up empty then 24h to hit, calls = %d", calls)
	}
	if len(got) != 1 || got[0].ID != "day-old" {
		t.Fatalf("unexpected result: %v", got)
	}
}

func TestAllWindowsEmpty(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	calls := 0
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) {
		calls++
		return nil, nil
	}
	got, err := SlidingWindowFetch(context.Background(), fetch, "u", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty result, got %v", got)
	}
	if calls != len(Windows) {
		t.Fatalf("expected every window tried, calls = %d", calls)
	}
}

func TestHardFailureAbortsWithoutWidening(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	boom := errors.New("listing down")
	calls := 0
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) {
		calls++
		if calls == 2 {
			return nil, boom
		}
		return nil, nil // first window: successful but empty
	}
	_, err := SlidingWindowFetch(context.Background(), fetch, "u", now)
	if !errors.Is(err, boom) {
		t.Fatalf("expected the fetch error to propagate, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("a hard failure must not advance to the next window, calls = %d", calls)
	}
}

func TestOrderPreservedWithinWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	canned := []model.RawPost{
		postAged("a", time.Hour, now),
		postAged("b", 2*time.Hour, now),
		postAged("c", 3*time.Hour, now),
	}
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) { return canned, nil }
	got, err := SlidingWindowFetch(context.Background(), fetch, "u", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []string{"a", "b", "c"} {
		if got[i].ID != want {
			t.Fatalf("order not preserved at %d: %s", i, got[i].ID)
		}
	}
}

func TestPostsWithoutTimestampSkipped(t *testing.T) {
	now := time.Unix(1_700_000_000, 0).UTC()
	canned := []model.RawPost{{ID: "no-ts"}, postAged("ok", time.Hour, now)}
	fetch := func(ctx context.Context, url string) ([]model.RawPost, error) { return canned, nil }
	got, err := SlidingWindowFetch(context.Background(), fetch, "u", now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].ID != "ok" {
		t.Fatalf("expected timestampless post skipped, got %v", got)
	}
}
