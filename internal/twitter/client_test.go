package twitter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"redbird/internal/ratelimit"
)

func testCreds() Credentials {
	return Credentials{APIKey: "k", APISecret: "s", AccessToken: "t", AccessSecret: "ts"}
}

func testLimiter() *ratelimit.Limiter {
	return ratelimit.New(map[string]ratelimit.BucketConfig{
		ratelimit.EndpointTwitterAPI:   {Capacity: 100, PerSecond: 100},
		ratelimit.EndpointTwitterMedia: {Capacity: 100, PerSecond: 100},
	})
}

func testClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(testCreds(), testLimiter())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.apiBase = srv.URL
	c.uploadURL = srv.URL + "/media/upload.json"
	c.backoff = 0
	return c
}

func TestNewClientRejectsIncompleteCredentials(t *testing.T) {
	_, err := NewClient(Credentials{APIKey: "only"}, testLimiter())
	if err == nil {
		t.Fatalf("expected error for missing credentials")
	}
}

func TestPostTweetSendsStatusAndMedia(t *testing.T) {
	var gotStatus, gotMedia string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/statuses/update.json" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") == "" {
			t.Errorf("request not signed")
		}
		r.ParseForm()
		gotStatus = r.PostForm.Get("status")
		gotMedia = r.PostForm.Get("media_ids")
		w.Write([]byte(`{"id": 7, "id_str": "7"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	id, err := c.PostTweet(context.Background(), "Hello #A #B", "m123")
	if err != nil {
		t.Fatalf("PostTweet: %v", err)
	}
	if id != "7" {
		t.Fatalf("id = %q, want 7", id)
	}
	if gotStatus != "Hello #A #B" || gotMedia != "m123" {
		t.Fatalf("form = (%q, %q)", gotStatus, gotMedia)
	}
}

func TestPostTweetRetriesBoundedThenFails(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.PostTweet(context.Background(), "x", ""); err == nil {
		t.Fatalf("expected failure")
	}
	if hits != 3 {
		t.Fatalf("hits = %d, want 3 bounded attempts", hits)
	}
}

func TestUploadMediaReturnsID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("content type = %s", r.Header.Get("Content-Type"))
		}
		w.Write([]byte(`{"media_id_string": "m987"}`))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.jpg")
	if err := os.WriteFile(path, []byte("bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	c := testClient(t, srv)
	if id := c.UploadMedia(context.Background(), path); id != "m987" {
		t.Fatalf("media id = %q, want m987", id)
	}
}

func TestUploadMediaFailureIsNonFatal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "img.jpg")
	os.WriteFile(path, []byte("bytes"), 0o644)

	c := testClient(t, srv)
	if id := c.UploadMedia(context.Background(), path); id != "" {
		t.Fatalf("expected empty id on failure, got %q", id)
	}
}

func TestRetweetLatest(t *testing.T) {
	var retweeted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/statuses/user_timeline.json":
			if r.URL.Query().Get("screen_name") != "fallback_acct" {
				t.Errorf("screen_name = %s", r.URL.Query().Get("screen_name"))
			}
			w.Write([]byte(`[{"id_str": "555"}]`))
		case strings.HasPrefix(r.URL.Path, "/statuses/retweet/"):
			retweeted = strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/statuses/retweet/"), ".json")
			w.Write([]byte(`{"id_str": "556", "retweeted": true}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	c := testClient(t, srv)
	id, err := c.RetweetLatest(context.Background(), "fallback_acct")
	if err != nil {
		t.Fatalf("RetweetLatest: %v", err)
	}
	if id != "555" || retweeted != "555" {
		t.Fatalf("retweeted id = %q (server saw %q), want 555", id, retweeted)
	}
}

func TestRetweetLatestEmptyTimeline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := testClient(t, srv)
	if _, err := c.RetweetLatest(context.Background(), "nobody"); err == nil {
		t.Fatalf("expected error on empty timeline")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	c, err := NewClient(testCreds(), testLimiter())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	c.Close()
	c.Close() // second call must be a no-op
}
