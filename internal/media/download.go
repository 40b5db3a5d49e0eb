// Package media downloads and normalizes the single image attached to a
// selected post. Absence of media is always a valid outcome: every failure
// here degrades to "post without image", never to a failed cycle.
package media

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"redbird/internal/model"
	"redbird/internal/ratelimit"
)

var supportedExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

// Downloader fetches the first image of an image or gallery post into a
// local directory.
type Downloader struct {
	http       *http.Client
	limiter    *ratelimit.Limiter
	dir        string
	maxRetries uint64
	backoff    time.Duration
}

// NewDownloader creates a downloader writing into dir (created on demand).
func NewDownloader(limiter *ratelimit.Limiter, dir string) *Downloader {
	if dir == "" {
		dir = "downloads"
	}
	return &Downloader{
		http:       &http.Client{Timeout: 15 * time.Second},
		limiter:    limiter,
		dir:        dir,
		maxRetries: 2,
		backoff:    time.Second,
	}
}

// firstImageURL resolves the direct image URL for a post: the resolved URL
// for single-image posts, the first gallery entry's source (or first
// preview) for galleries.
func firstImageURL(p model.ClassifiedPost) string {
	switch p.Kind {
	case model.KindImage:
		return p.Raw.ResolvedURL()
	case model.KindGallery:
		if p.Raw.Gallery == nil || len(p.Raw.Gallery.Items) == 0 {
			return ""
		}
		id := p.Raw.Gallery.Items[0].MediaID
		if id == "" {
			return ""
		}
		meta, ok := p.Raw.MediaMeta[id]
		if !ok {
			return ""
		}
		if meta.Source != nil && meta.Source.URL != "" {
			return meta.Source.URL
		}
		if len(meta.Previews) > 0 {
			return meta.Previews[0].URL
		}
	}
	return ""
}

// validExt reports whether the URL (query string stripped) ends in a
// supported still-image extension.
func validExt(url string) bool {
	lower := strings.ToLower(url)
	if i := strings.IndexByte(lower, '?'); i >= 0 {
		lower = lower[:i]
	}
	return supportedExts[filepath.Ext(lower)]
}

// FirstImage downloads the post's first image and returns its local path,
// or "" when the post has no usable image or the download fails. Only image
// and gallery posts are considered.
func (d *Downloader) FirstImage(ctx context.Context, p model.ClassifiedPost) string {
	if p.Kind != model.KindImage && p.Kind != model.KindGallery {
		return ""
	}
	url := firstImageURL(p)
	if url == "" {
		slog.Warn("media: no image url", "id", p.Raw.ID, "title", p.Raw.Title)
		return ""
	}
	if !validExt(url) {
		slog.Warn("media: unsupported image extension", "url", url)
		return ""
	}

	clean := strings.ToLower(url)
	if i := strings.IndexByte(clean, '?'); i >= 0 {
		clean = clean[:i]
	}
	dest := filepath.Join(d.dir, fmt.Sprintf("img_%s%s", p.Raw.ID, filepath.Ext(clean)))
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		slog.Error("media: create download dir", "dir", d.dir, "error", err)
		return ""
	}

	if err := d.download(ctx, url, dest); err != nil {
		slog.Error("media: download failed", "url", url, "error", err)
		return ""
	}
	slog.Info("media: download complete", "file", dest)
	return dest
}

func (d *Downloader) download(ctx context.Context, url, dest string) error {
	op := func() error {
		if err := d.limiter.Acquire(ctx, ratelimit.EndpointReddit); err != nil {
			return backoff.Permanent(err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		resp, err := d.http.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return os.WriteFile(dest, data, 0o644)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(backoff.NewConstantBackOff(d.backoff), d.maxRetries), ctx)
	return backoff.Retry(op, b)
}
