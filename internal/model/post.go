package model

import (
	"strings"
	"time"
)

// Kind classifies a post after hard filtering.
type Kind int

const (
	KindUnknown Kind = iota
	KindImage
	KindGallery
	KindText
	KindLink
	KindGif
	KindVideo
	KindCrosspost
	KindPoll
	KindBlocked
)

func (k Kind) String() string {
	switch k {
	case KindImage:
		return "image"
	case KindGallery:
		return "gallery"
	case KindText:
		return "text"
	case KindLink:
		return "link"
	case KindGif:
		return "gif"
	case KindVideo:
		return "video"
	case KindCrosspost:
		return "crosspost"
	case KindPoll:
		return "poll"
	case KindBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// GalleryItem is one entry of a gallery post, in display order.
type GalleryItem struct {
	MediaID string `json:"media_id"`
}

// GalleryData holds ordered gallery entries.
type GalleryData struct {
	Items []GalleryItem `json:"items"`
}

// MediaSource is a single rendition of a gallery image.
type MediaSource struct {
	URL string `json:"u"`
}

// MediaMeta describes one gallery image: "s" is the source rendition,
// "p" the preview renditions.
type MediaMeta struct {
	Source   *MediaSource  `json:"s"`
	Previews []MediaSource `json:"p"`
}

// RawPost is one item of a Reddit listing as returned by the public JSON
// endpoint. Immutable once fetched; downstream stages only read it.
type RawPost struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	SelfText string `json:"selftext"`

	URL             string `json:"url"`
	URLOverridden   string `json:"url_overridden_by_dest"`
	PostHint        string `json:"post_hint"`
	IsSelf          bool   `json:"is_self"`
	IsVideo         bool   `json:"is_video"`
	IsGallery       bool   `json:"is_gallery"`
	Over18          bool   `json:"over_18"`
	Spoiler         bool   `json:"spoiler"`
	Locked          bool   `json:"locked"`
	Stickied        bool   `json:"stickied"`
	Distinguished   string `json:"distinguished"`
	RemovedBy       string `json:"removed_by_category"`
	CreatedFromAds  bool   `json:"is_created_from_ads_ui"`
	IsGalleryAd     bool   `json:"is_gallery_ad"`
	CrosspostParent string `json:"crosspost_parent"`
	CrosspostList   []any  `json:"crosspost_parent_list"`
	PollData        any    `json:"poll_data"`

	Ups         int      `json:"ups"`
	NumComments int      `json:"num_comments"`
	UpvoteRatio *float64 `json:"upvote_ratio"`
	CreatedUTC  float64  `json:"created_utc"`

	Gallery   *GalleryData         `json:"gallery_data"`
	MediaMeta map[string]MediaMeta `json:"media_metadata"`
}

// ResolvedURL prefers the destination-resolved URL over the plain one.
func (p *RawPost) ResolvedURL() string {
	if p.URLOverridden != "" {
		return p.URLOverridden
	}
	return p.URL
}

// Body returns the trimmed self text.
func (p *RawPost) Body() string {
	return strings.TrimSpace(p.SelfText)
}

// CreatedAt converts the epoch creation stamp to a time.
func (p *RawPost) CreatedAt() time.Time {
	sec := int64(p.CreatedUTC)
	nsec := int64((p.CreatedUTC - float64(sec)) * 1e9)
	return time.Unix(sec, nsec).UTC()
}

// ClassifiedPost is a post that survived the hard filter, tagged with its kind.
type ClassifiedPost struct {
	Raw  *RawPost
	Kind Kind
}

// RankedPost decorates a classified post with its priority group and
// engagement score. Lower priority ranks first; within a group, higher
// score ranks first.
type RankedPost struct {
	ClassifiedPost
	Priority int
	Score    float64
}
