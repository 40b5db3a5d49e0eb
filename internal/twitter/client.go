// Package twitter is a minimal X API v1.1 client covering the three calls
// the bot needs: media upload, status update, and the emergency fallback
// retweet. Requests are signed with OAuth 1.0a and individually retried and
// rate-limited.
package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/oauth1"

	"redbird/internal/ratelimit"
)

// Credentials are the OAuth 1.0a consumer and access pair.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// Client talks to the X API. Construct with NewClient and Close exactly
// once when the process is done publishing.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.Limiter
	apiBase   string
	uploadURL string

	maxRetries uint64
	backoff    time.Duration

	closeOnce sync.Once
}

// NewClient builds an OAuth1-signed client. Credentials must be complete;
// attempting to publish without them is a configuration defect surfaced
// here.
func NewClient(creds Credentials, limiter *ratelimit.Limiter) (*Client, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, errors.New("twitter: incomplete credentials")
	}
	cfg := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	httpClient := cfg.Client(oauth1.NoContext, token)
	httpClient.Timeout = 15 * time.Second
	return &Client{
		http:       httpClient,
		limiter:    limiter,
		apiBase:    "https://api.twitter.com/1.1",
		uploadURL:  "https://upload.twitter.com/1.1/media/upload.json",
		maxRetries: 2,
		backoff:    time.Second,
	}, nil
}

// do performs one rate-limited, retried request built by build. The builder
// runs once per attempt so request bodies are fresh.
func (c *Client) do(ctx context.Context, endpoint string, build func() (*http.Request, error)) ([]byte, error) {
	var body []byte
	op := func() error {
		if err := c.limiter.Acquire(ctx, endpoint); err != nil {
			return backoff.Permanent(err)
		}
		req, err := build()
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := c.http.Do(req.WithContext(ctx))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("status=%d body=%s", resp.StatusCode, string(b))
		}
		body = b
		return nil
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(c.backoff), c.maxRetries), ctx)
	if err := backoff.Retry(op, b); err != nil {
		return nil, err
	}
	return body, nil
}

// UploadMedia uploads one image file and returns its media id, or "" when
// the upload fails. A failed upload is not fatal; the tweet goes out
// without media.
func (c *Client) UploadMedia(ctx context.Context, path string) string {
	build := func() (*http.Request, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		var buf strings.Builder
		writer := multipart.NewWriter(&buf)
		part, err := writer.CreateFormFile("media", filepath.Base(path))
		if err != nil {
			return nil, err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, err
		}
		if err := writer.Close(); err != nil {
			return nil, err
		}
		req, err := http.NewRequest(http.MethodPost, c.uploadURL, strings.NewReader(buf.String()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	}

	body, err := c.do(ctx, ratelimit.EndpointTwitterMedia, build)
	if err != nil {
		slog.Error("twitter: media upload failed", "file", path, "error", err)
		return ""
	}
	var out struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(body, &out); err != nil || out.MediaIDString == "" {
		slog.Error("twitter: media upload response missing id", "body", string(body))
		return ""
	}
	slog.Info("twitter: media uploaded", "media_id", out.MediaIDString)
	return out.MediaIDString
}

// PostTweet publishes text with an optional media id and returns the new
// status id.
func (c *Client) PostTweet(ctx context.Context, text, mediaID string) (string, error) {
	build := func() (*http.Request, error) {
		form := url.Values{"status": {text}}
		if mediaID != "" {
			form.Set("media_ids", mediaID)
		}
		req, err := http.NewRequest(http.MethodPost, c.apiBase+"/statuses/update.json", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	}

	body, err := c.do(ctx, ratelimit.EndpointTwitterAPI, build)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	id, err := statusID(body)
	if err != nil {
		return "", fmt.Errorf("post tweet: %w", err)
	}
	slog.Info("twitter: tweet posted", "tweet_id", id)
	return id, nil
}

// RetweetLatest fetches the newest status of the fallback account and
// retweets it. This is the emergency path when a normal publish fails; its
// own failure is terminal for the cycle.
func (c *Client) RetweetLatest(ctx context.Context, screenName string) (string, error) {
	timelineURL := c.apiBase + "/statuses/user_timeline.json?" + url.Values{
		"screen_name": {screenName},
		"count":       {"1"},
	}.Encode()
	body, err := c.do(ctx, ratelimit.EndpointTwitterAPI, func() (*http.Request, error) {
		return http.NewRequest(http.MethodGet, timelineURL, nil)
	})
	if err != nil {
		return "", fmt.Errorf("fetch timeline for %s: %w", screenName, err)
	}
	var timeline []json.RawMessage
	if err := json.Unmarshal(body, &timeline); err != nil || len(timeline) == 0 {
		return "", fmt.Errorf("timeline for %s is empty", screenName)
	}
	latestID, err := statusID(timeline[0])
	if err != nil {
		return "", fmt.Errorf("timeline for %s: %w", screenName, err)
	}

	retweetURL := fmt.Sprintf("%s/statuses/retweet/%s.json", c.apiBase, latestID)
	if _, err := c.do(ctx, ratelimit.EndpointTwitterAPI, func() (*http.Request, error) {
		return http.NewRequest(http.MethodPost, retweetURL, nil)
	}); err != nil {
		return "", fmt.Errorf("retweet %s: %w", latestID, err)
	}
	slog.Info("twitter: emergency retweet posted", "retweeted_id", latestID)
	return latestID, nil
}

// statusID extracts a tweet id from a status payload, preferring the string
// form.
func statusID(body []byte) (string, error) {
	var out struct {
		ID    int64  `json:"id"`
		IDStr string `json:"id_str"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode status: %w", err)
	}
	if out.IDStr != "" {
		return out.IDStr, nil
	}
	if out.ID != 0 {
		return fmt.Sprintf("%d", out.ID), nil
	}
	return "", errors.New("status response missing id")
}

// Close releases held connections. Safe to call exactly once on every exit
// path; duplicate calls are no-ops.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.http.CloseIdleConnections()
		slog.Debug("twitter: client closed")
	})
}
