package cmd

import (
	"context"
	"fmt"
	"time"

	"redbird/internal/compose"
	"redbird/internal/config"
	"redbird/internal/filter"
	"redbird/internal/model"
	"redbird/internal/rank"
	"redbird/internal/ratelimit"
	"redbird/internal/reddit"

	"github.com/spf13/cobra"
)

var previewCmd = &cobra.Command{
	Use:   "preview <source_name>",
	Short: "Debug: run selection and composition for one source, publish nothing",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		schedule, err := cfg.Schedule()
		if err != nil {
			return err
		}
		var entry *config.ScheduleEntry
		for i := range schedule {
			if schedule[i].Name == args[0] {
				entry = &schedule[i]
				break
			}
		}
		if entry == nil {
			return fmt.Errorf("source %q not in schedule", args[0])
		}

		limiter := ratelimit.New(map[string]ratelimit.BucketConfig{
			ratelimit.EndpointReddit: {
				Capacity:  cfg.RateLimits.Reddit.Capacity,
				PerSecond: cfg.RateLimits.Reddit.PerSecond(),
			},
		})
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		now := time.Now()
		posts, err := reddit.NewClient(limiter).SlidingWindowFetch(ctx, entry.URL, now)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "candidates: %d\n", len(posts))

		survivors := make([]model.ClassifiedPost, 0, len(posts))
		for i := range posts {
			cp, reason, ok := filter.Classify(&posts[i])
			if !ok {
				fmt.Fprintf(out, "  rejected %s: %s\n", posts[i].ID, reason)
				continue
			}
			survivors = append(survivors, cp)
		}
		fmt.Fprintf(out, "survivors: %d\n", len(survivors))
		if len(survivors) == 0 {
			return nil
		}

		ranked := rank.Rank(survivors, now)
		top := ranked[0]
		fmt.Fprintf(out, "selected: %s (kind=%s priority=%d score=%.3f)\n",
			top.Raw.ID, top.Kind, top.Priority, top.Score)

		tweet := compose.Build(top.ClassifiedPost, entry.Hashtags)
		if !tweet.Accepted {
			fmt.Fprintln(out, "composer rejected: empty base text")
			return nil
		}
		fmt.Fprintf(out, "tweet (%d chars):\n%s\n", len([]rune(tweet.Text)), tweet.Text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
}
