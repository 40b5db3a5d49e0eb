// Package filter implements the hard accept/reject gate applied to raw posts
// before any ranking. Classification is pure and deterministic: the rules
// below are evaluated in order and the first match wins.
package filter

import (
	"strings"
	"unicode/utf8"

	"redbird/internal/model"
)

// Reason is a rejection reason code, stable for logs and alerts.
type Reason string

const (
	ReasonCrosspost   Reason = "crosspost"
	ReasonPoll        Reason = "poll"
	ReasonBlocked     Reason = "blocked"
	ReasonGif         Reason = "gif"
	ReasonVideo       Reason = "video"
	ReasonTextTooLong Reason = "text_too_long"
)

// MaxBodyLen is the hard cap on trimmed self-text length; anything longer
// is rejected regardless of kind.
const MaxBodyLen = 200

var videoDomains = []string{
	"v.redd.it",
	"youtube.com",
	"youtu.be",
	"tiktok.com",
	"instagram.com",
	"fb.watch",
}

var gifExtensions = []string{".gif", ".gifv"}

// Classify applies the hard filters to a raw post. It returns the tagged
// post when it survives, or a rejection reason when it does not. Rule order
// is load-bearing: an adult-flagged crosspost rejects as crosspost, not
// blocked.
func Classify(p *model.RawPost) (model.ClassifiedPost, Reason, bool) {
	if p.CrosspostParent != "" || len(p.CrosspostList) > 0 {
		return model.ClassifiedPost{}, ReasonCrosspost, false
	}
	if p.PollData != nil {
		return model.ClassifiedPost{}, ReasonPoll, false
	}
	if p.Over18 || p.Spoiler {
		return model.ClassifiedPost{}, ReasonBlocked, false
	}
	if p.RemovedBy != "" || p.Locked {
		return model.ClassifiedPost{}, ReasonBlocked, false
	}
	if p.CreatedFromAds || p.IsGalleryAd {
		return model.ClassifiedPost{}, ReasonBlocked, false
	}
	if p.Distinguished != "" || p.Stickied {
		return model.ClassifiedPost{}, ReasonBlocked, false
	}

	lowerURL := strings.ToLower(p.ResolvedURL())
	for _, ext := range gifExtensions {
		if strings.HasSuffix(lowerURL, ext) {
			return model.ClassifiedPost{}, ReasonGif, false
		}
	}
	for _, domain := range videoDomains {
		if strings.Contains(lowerURL, domain) {
			return model.ClassifiedPost{}, ReasonVideo, false
		}
	}
	if p.IsVideo {
		return model.ClassifiedPost{}, ReasonVideo, false
	}

	kind := model.KindLink
	switch {
	case p.IsGallery:
		kind = model.KindGallery
	case p.PostHint == "image":
		kind = model.KindImage
	case p.IsSelf:
		kind = model.KindText
	}

	if utf8.RuneCountInString(p.Body()) > MaxBodyLen {
		return model.ClassifiedPost{}, ReasonTextTooLong, false
	}

	return model.ClassifiedPost{Raw: p, Kind: kind}, "", true
}
