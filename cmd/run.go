package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"redbird/internal/bot"
	"redbird/internal/config"
	"redbird/internal/media"
	"redbird/internal/notify"
	"redbird/internal/ratelimit"
	"redbird/internal/reddit"
	"redbird/internal/twitter"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one scheduled invocation (intended for cron)",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBot(GetConfig())
		if err != nil {
			return err
		}
		// One-shot invocation: all failures inside the run are handled via
		// logging and alerts, and the process always exits zero so one
		// source's failure cannot mask another's.
		b.Run(context.Background(), time.Now())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}

// newBot wires the shared process-wide state: rate-limit buckets, outbound
// clients, notifier, and the schedule. Constructed once and threaded
// explicitly so pipelines stay independently testable.
func newBot(cfg config.Config) (*bot.Bot, error) {
	schedule, err := cfg.Schedule()
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("resolve timezone %q: %w", cfg.App.Timezone, err)
	}

	limiter := ratelimit.New(map[string]ratelimit.BucketConfig{
		ratelimit.EndpointReddit: {
			Capacity:  cfg.RateLimits.Reddit.Capacity,
			PerSecond: cfg.RateLimits.Reddit.PerSecond(),
		},
		ratelimit.EndpointTwitterAPI: {
			Capacity:  cfg.RateLimits.TwitterAPI.Capacity,
			PerSecond: cfg.RateLimits.TwitterAPI.PerSecond(),
		},
		ratelimit.EndpointTwitterMedia: {
			Capacity:  cfg.RateLimits.TwitterMedia.Capacity,
			PerSecond: cfg.RateLimits.TwitterMedia.PerSecond(),
		},
	})

	tw, err := twitter.NewClient(twitter.Credentials{
		APIKey:       cfg.Twitter.APIKey,
		APISecret:    cfg.Twitter.APISecret,
		AccessToken:  cfg.Twitter.AccessToken,
		AccessSecret: cfg.Twitter.AccessSecret,
	}, limiter)
	if err != nil {
		return nil, err
	}

	var alerts notify.Notifier
	if tg, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.AdminChatID); err != nil {
		slog.Warn("telegram alerts disabled", "reason", err)
		alerts = notify.Noop{}
	} else {
		alerts = tg
	}

	return &bot.Bot{
		Schedule:        schedule,
		Location:        loc,
		Fetcher:         reddit.NewClient(limiter),
		Media:           media.NewDownloader(limiter, cfg.Media.DownloadDir),
		Normalize:       media.Normalize,
		Publisher:       tw,
		Alerts:          alerts,
		FallbackAccount: cfg.Twitter.FallbackAccount,
	}, nil
}
