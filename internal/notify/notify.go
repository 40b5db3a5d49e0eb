// Package notify delivers operator alerts to Telegram. Alerts are
// fire-and-forget: delivery failures are logged and swallowed, never
// surfaced to the pipeline.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	tele "gopkg.in/telebot.v4"
)

// Notifier is the alert channel the pipeline reports its lifecycle events
// on. Implementations must never block the pipeline on delivery problems.
type Notifier interface {
	SortingStarted(ctx context.Context, source string)
	PostSelected(ctx context.Context, source, title, postID string)
	NoPostSelected(ctx context.Context, source string)
	TweetBuilderFailed(ctx context.Context, source, reason string)
	Error(ctx context.Context, component, reason string, details map[string]any)
	EmergencyBackoff(ctx context.Context, retweetedID string)
}

// Telegram sends alerts with the Bot API through telebot.
type Telegram struct {
	bot  *tele.Bot
	chat *tele.Chat
}

// NewTelegram connects a Telegram alerter. An empty token or chat id means
// alerting is unconfigured; callers should fall back to Noop.
func NewTelegram(token string, chatID int64) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("notify: telegram not configured")
	}
	// Send-only: no poller, the bot never reads updates.
	bot, err := tele.NewBot(tele.Settings{Token: token})
	if err != nil {
		return nil, fmt.Errorf("notify: telegram init: %w", err)
	}
	return &Telegram{bot: bot, chat: &tele.Chat{ID: chatID}}, nil
}

// send formats the short line plus a JSON detail block and fires it off.
func (t *Telegram) send(ctx context.Context, short string, details map[string]any) {
	payload, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		payload = []byte("{}")
	}
	text := fmt.Sprintf("%s\n```json\n%s\n```", short, payload)

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(t.chat, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
		done <- err
	}()
	select {
	case err := <-done:
		if err != nil {
			slog.Error("notify: telegram send failed", "event", short, "error", err)
		}
	case <-ctx.Done():
		slog.Warn("notify: telegram send abandoned", "event", short)
	case <-time.After(10 * time.Second):
		slog.Warn("notify: telegram send timed out", "event", short)
	}
}

func (t *Telegram) SortingStarted(ctx context.Context, source string) {
	t.send(ctx, "Sorting started", map[string]any{"source": source})
}

func (t *Telegram) PostSelected(ctx context.Context, source, title, postID string) {
	t.send(ctx, "Selected post", map[string]any{"source": source, "title": title, "post_id": postID})
}

func (t *Telegram) NoPostSelected(ctx context.Context, source string) {
	t.send(ctx, "No qualifying post found", map[string]any{"source": source})
}

func (t *Telegram) TweetBuilderFailed(ctx context.Context, source, reason string) {
	t.send(ctx, "Tweet builder failed", map[string]any{"source": source, "reason": reason})
}

func (t *Telegram) Error(ctx context.Context, component, reason string, details map[string]any) {
	if details == nil {
		details = map[string]any{}
	}
	details["reason"] = reason
	t.send(ctx, fmt.Sprintf("Error in %s", component), details)
}

func (t *Telegram) EmergencyBackoff(ctx context.Context, retweetedID string) {
	t.send(ctx, "Emergency fallback triggered", map[string]any{"retweeted_id": retweetedID})
}

// Noop is the alerter used when Telegram is not configured.
type Noop struct{}

func (Noop) SortingStarted(context.Context, string)                {}
func (Noop) PostSelected(context.Context, string, string, string)  {}
func (Noop) NoPostSelected(context.Context, string)                {}
func (Noop) TweetBuilderFailed(context.Context, string, string)    {}
func (Noop) Error(context.Context, string, string, map[string]any) {}
func (Noop) EmergencyBackoff(context.Context, string)              {}
