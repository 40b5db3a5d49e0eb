package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"redbird/internal/model"
	"redbird/internal/ratelimit"
)

const userAgent = "Mozilla/5.0 (redbird)"

// ErrFetchFailed marks a listing fetch that exhausted its retries. A fetch
// failure aborts the whole source for the cycle; it is never treated as an
// empty window.
var ErrFetchFailed = errors.New("reddit: fetch failed")

// Client fetches public listing JSON for a community. Every attempt is
// gated by the shared reddit rate-limit bucket.
type Client struct {
	http       *http.Client
	limiter    *ratelimit.Limiter
	maxRetries uint64
	backoff    time.Duration
}

// NewClient creates a listing client. limiter must have the reddit endpoint
// configured.
func NewClient(limiter *ratelimit.Limiter) *Client {
	return &Client{
		http:       &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
		maxRetries: 2, // 3 attempts total
		backoff:    time.Second,
	}
}

type listing struct {
	Data struct {
		Children []struct {
			Data model.RawPost `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Listing GETs <sourceURL>/new.json?limit=100 and decodes its children in
// source order. Transport errors and non-200 responses are retried a small
// bounded number of times with a short constant backoff; exhaustion returns
// an error wrapping ErrFetchFailed.
func (c *Client) Listing(ctx context.Context, sourceURL string) ([]model.RawPost, error) {
	url := strings.TrimRight(sourceURL, "/") + "/new.json?limit=100"

	var posts []model.RawPost
	attempt := 0
	op := func() error {
		attempt++
		if err := c.limiter.Acquire(ctx, ratelimit.EndpointReddit); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("User-Agent", userAgent)
		resp, err := c.http.Do(req)
		if err != nil {
			slog.Error("fetcher: request failed", "url", url, "attempt", attempt, "error", err)
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			slog.Error("fetcher: http error", "url", url, "status", resp.StatusCode, "attempt", attempt)
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		var l listing
		if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
			return fmt.Errorf("decode listing: %w", err)
		}
		posts = make([]model.RawPost, 0, len(l.Data.Children))
		for _, ch := range l.Data.Children {
			posts = append(posts, ch.Data)
		}
		return nil
	}

	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), c.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFetchFailed, url, err)
	}
	return posts, nil
}
