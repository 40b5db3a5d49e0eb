package reddit

import (
	"context"
	"log/slog"
	"time"

	"redbird/internal/model"
)

// Windows are the successive lookback durations tried when selecting
// candidates: prefer the freshest window, widen on low-traffic sources.
var Windows = []time.Duration{10 * time.Hour, 24 * time.Hour, 48 * time.Hour}

// ListingFunc fetches one raw listing for a source URL.
type ListingFunc func(ctx context.Context, sourceURL string) ([]model.RawPost, error)

// filterByAge keeps posts created at or after the cutoff, preserving
// listing order.
func filterByAge(posts []model.RawPost, cutoff time.Time) []model.RawPost {
	out := make([]model.RawPost, 0, len(posts))
	for _, p := range posts {
		if p.CreatedUTC == 0 {
			continue
		}
		if !p.CreatedAt().Before(cutoff) {
			out = append(out, p)
		}
	}
	return out
}

// SlidingWindowFetch tries each window in order against the same listing
// fetch and returns the first window's non-empty result. All windows empty
// returns an empty slice. A hard fetch failure on any window propagates
// immediately; only a successful but empty fetch advances to the next
// window.
func SlidingWindowFetch(ctx context.Context, fetch ListingFunc, sourceURL string, now time.Time) ([]model.RawPost, error) {
	for _, w := range Windows {
		posts, err := fetch(ctx, sourceURL)
		if err != nil {
			return nil, err
		}
		inWindow := filterByAge(posts, now.Add(-w))
		slog.Info("fetcher: window complete",
			"source", sourceURL,
			"window", w.String(),
			"posts_total", len(posts),
			"posts_in_window", len(inWindow),
		)
		if len(inWindow) > 0 {
			return inWindow, nil
		}
	}
	return nil, nil
}

// SlidingWindowFetch is the method form bound to the client's Listing call.
func (c *Client) SlidingWindowFetch(ctx context.Context, sourceURL string, now time.Time) ([]model.RawPost, error) {
	return SlidingWindowFetch(ctx, c.Listing, sourceURL, now)
}
