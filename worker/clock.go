package worker

import (
	"context"
	"log/slog"
	"time"
)

// Runner is one scheduled invocation of the pipeline at a given time.
type Runner interface {
	RunOnce(ctx context.Context, now time.Time)
}

// Clock drives a Runner once per minute, aligned to minute boundaries so a
// scheduled HH:MM slot fires exactly once. It is the serve-mode counterpart
// of the one-shot run command.
type Clock struct {
	Runner Runner
}

func (c *Clock) Start(ctx context.Context) error {
	// Align to the next minute boundary before the first tick.
	now := time.Now()
	wait := now.Truncate(time.Minute).Add(time.Minute).Sub(now)
	select {
	case <-ctx.Done():
		return nil
	case <-time.After(wait):
	}

	t := time.NewTicker(time.Minute)
	defer t.Stop()

	c.tick(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			return nil
		case at := <-t.C:
			c.tick(ctx, at)
		}
	}
}

func (c *Clock) tick(ctx context.Context, at time.Time) {
	slog.Debug("clock: tick", "at", at.Format("15:04"))
	c.Runner.RunOnce(ctx, at)
}
