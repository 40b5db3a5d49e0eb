// Package compose builds the final tweet text for a selected post within a
// hard character budget. Composition is deterministic: base-text selection,
// hashtag append, then a hybrid trim (hashtags from the end first, base text
// truncation last).
package compose

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"redbird/internal/model"
)

// MaxTweetLen is the hard character budget for an outgoing tweet. Lengths
// count runes, not bytes, since the publish target counts characters.
const MaxTweetLen = 280

// Result is the composed tweet. When Accepted is false nothing downstream
// may run; the only rejection path is an empty base text.
type Result struct {
	Text     string
	Accepted bool
}

// baseText picks the text the tweet is built from. Visual posts always
// caption with the title, even when a body exists.
func baseText(p model.ClassifiedPost) string {
	title := strings.TrimSpace(p.Raw.Title)
	body := p.Raw.Body()

	if p.Kind == model.KindImage || p.Kind == model.KindGallery {
		return title
	}
	if body == "" {
		return title
	}
	return body
}

func join(base string, hashtags []string) string {
	if len(hashtags) == 0 {
		return base
	}
	return base + " " + strings.Join(hashtags, " ")
}

func fits(s string) bool {
	return utf8.RuneCountInString(s) <= MaxTweetLen
}

// trimHashtags drops hashtags from the end of the list until the tweet fits
// or none remain, returning the surviving tags.
func trimHashtags(base string, hashtags []string) []string {
	tags := hashtags
	for len(tags) > 0 {
		if fits(join(base, tags)) {
			return tags
		}
		tags = tags[:len(tags)-1]
	}
	return nil
}

// truncate hard-cuts s to the budget, no ellipsis.
func truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= MaxTweetLen {
		return s
	}
	return string(runes[:MaxTweetLen])
}

// Build composes the tweet for a post with its source's hashtag list. Any
// non-empty base text always yields an accepted result: the final fallback
// is the base truncated to exactly the budget.
func Build(p model.ClassifiedPost, hashtags []string) Result {
	base := baseText(p)
	if base == "" {
		slog.Warn("compose: empty base text", "id", p.Raw.ID, "title", p.Raw.Title)
		return Result{}
	}

	tweet := join(base, hashtags)
	if fits(tweet) {
		return Result{Text: tweet, Accepted: true}
	}

	tags := trimHashtags(base, hashtags)
	tweet = join(base, tags)
	if fits(tweet) {
		return Result{Text: tweet, Accepted: true}
	}

	// Base alone still overflows: hard cut to the budget, then see whether
	// the surviving hashtags fit back on.
	truncated := truncate(base)
	if final := join(truncated, tags); fits(final) {
		return Result{Text: final, Accepted: true}
	}
	return Result{Text: truncated, Accepted: true}
}
