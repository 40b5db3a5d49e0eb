// Package bot drives the per-slot pipeline: due-source computation, one
// concurrent pipeline instance per due source, and unconditional cleanup of
// shared outbound clients. A failure in one source's pipeline never blocks
// or aborts another's.
package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"redbird/internal/compose"
	"redbird/internal/config"
	"redbird/internal/filter"
	"redbird/internal/model"
	"redbird/internal/notify"
	"redbird/internal/rank"
)

// Fetcher retrieves recent candidates for a source.
type Fetcher interface {
	SlidingWindowFetch(ctx context.Context, sourceURL string, now time.Time) ([]model.RawPost, error)
}

// MediaFetcher resolves and downloads a post's first image, returning a
// local path or "" when the post has none.
type MediaFetcher interface {
	FirstImage(ctx context.Context, p model.ClassifiedPost) string
}

// Publisher is the outbound side of the pipeline.
type Publisher interface {
	UploadMedia(ctx context.Context, path string) string
	PostTweet(ctx context.Context, text, mediaID string) (string, error)
	RetweetLatest(ctx context.Context, screenName string) (string, error)
	Close()
}

// Bot wires the pipeline stages to a schedule. Construct it once per
// process; Run closes the Publisher when it returns, RunOnce leaves it open
// for the caller.
type Bot struct {
	Schedule        []config.ScheduleEntry
	Location        *time.Location
	Fetcher         Fetcher
	Media           MediaFetcher
	Normalize       func(path string) string
	Publisher       Publisher
	Alerts          notify.Notifier
	FallbackAccount string
}

// Run executes one scheduled invocation and then closes the publisher,
// unconditionally: whether zero, some, or all pipelines were launched, and
// however they ended. This is the entry point for the one-shot run command;
// serve mode calls RunOnce per tick and owns the close itself.
func (b *Bot) Run(ctx context.Context, now time.Time) {
	defer b.Publisher.Close()
	b.RunOnce(ctx, now)
}

// RunOnce executes one scheduled invocation at time now: every source whose
// slot matches now runs its pipeline concurrently. Pipelines are
// independent; one source's failure never blocks or corrupts another's.
func (b *Bot) RunOnce(ctx context.Context, now time.Time) {
	slog.Info("bot: run start", "sources", len(b.Schedule), "at", now.In(b.Location).Format("15:04"))

	var due []config.ScheduleEntry
	for _, e := range b.Schedule {
		if e.IsDue(now, b.Location) {
			due = append(due, e)
		}
	}
	if len(due) == 0 {
		slog.Info("bot: no sources scheduled")
		return
	}

	var wg sync.WaitGroup
	for _, e := range due {
		wg.Add(1)
		go func(entry config.ScheduleEntry) {
			defer wg.Done()
			b.runSource(ctx, entry, now)
		}(e)
	}
	wg.Wait()
	slog.Info("bot: run complete", "due", len(due))
}

// runSource runs the full pipeline for one source. Every terminal outcome
// is logged and alerted; nothing escalates past this function.
func (b *Bot) runSource(ctx context.Context, entry config.ScheduleEntry, now time.Time) {
	source := entry.Name
	b.Alerts.SortingStarted(ctx, source)
	slog.Info("bot: sorting started", "source", source)

	posts, err := b.Fetcher.SlidingWindowFetch(ctx, entry.URL, now)
	if err != nil {
		slog.Error("bot: fetch failed", "source", source, "error", err)
		b.Alerts.Error(ctx, "fetcher", "fetch_failed", map[string]any{"source": source, "error": err.Error()})
		return
	}
	if len(posts) == 0 {
		slog.Info("bot: no posts in window", "source", source)
		b.Alerts.NoPostSelected(ctx, source)
		return
	}

	survivors := make([]model.ClassifiedPost, 0, len(posts))
	for i := range posts {
		cp, reason, ok := filter.Classify(&posts[i])
		if !ok {
			slog.Info("bot: post rejected", "source", source, "id", posts[i].ID, "reason", string(reason))
			continue
		}
		survivors = append(survivors, cp)
	}
	if len(survivors) == 0 {
		slog.Info("bot: no survivors", "source", source)
		b.Alerts.NoPostSelected(ctx, source)
		return
	}

	ranked := rank.Rank(survivors, now)
	if len(ranked) == 0 {
		b.Alerts.NoPostSelected(ctx, source)
		return
	}
	top := ranked[0]
	slog.Info("bot: post selected",
		"source", source,
		"id", top.Raw.ID,
		"kind", top.Kind.String(),
		"priority", top.Priority,
		"score", top.Score,
	)
	b.Alerts.PostSelected(ctx, source, top.Raw.Title, top.Raw.ID)

	tweet := compose.Build(top.ClassifiedPost, entry.Hashtags)
	if !tweet.Accepted {
		b.Alerts.TweetBuilderFailed(ctx, source, "empty_base_text")
		return
	}

	var mediaID string
	if top.Kind == model.KindImage || top.Kind == model.KindGallery {
		if path := b.Media.FirstImage(ctx, top.ClassifiedPost); path != "" {
			if b.Normalize != nil {
				path = b.Normalize(path)
			}
			mediaID = b.Publisher.UploadMedia(ctx, path)
		}
	}

	tweetID, err := b.Publisher.PostTweet(ctx, tweet.Text, mediaID)
	if err != nil {
		slog.Error("bot: tweet failed", "source", source, "error", err)
		b.Alerts.Error(ctx, "twitter", "tweet_failed", map[string]any{"source": source, "error": err.Error()})
		b.emergencyFallback(ctx, source)
		return
	}
	slog.Info("bot: tweet posted", "source", source, "tweet_id", tweetID)
}

// emergencyFallback makes exactly one retweet attempt against the fallback
// account. Its failure is terminal for the cycle: logged, no further retry.
func (b *Bot) emergencyFallback(ctx context.Context, source string) {
	retweetedID, err := b.Publisher.RetweetLatest(ctx, b.FallbackAccount)
	if err != nil {
		slog.Error("bot: emergency retweet failed", "source", source, "account", b.FallbackAccount, "error", err)
		return
	}
	b.Alerts.EmergencyBackoff(ctx, retweetedID)
}
