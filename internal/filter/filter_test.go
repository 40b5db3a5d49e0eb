package filter

import (
	"strings"
	"testing"

	"redbird/internal/model"
)

func TestRejectionRuleOrder(t *testing.T) {
	longBody := strings.Repeat("x", MaxBodyLen+1)

	cases := []struct {
		name string
		post model.RawPost
		want Reason
	}{
		{
			// Adult-flagged crosspost must reject as crosspost, not blocked.
			name: "crosspost wins over adult flag",
			post: model.RawPost{CrosspostParent: "t3_abc", Over18: true},
			want: ReasonCrosspost,
		},
		{
			name: "crosspost via parent list",
			post: model.RawPost{CrosspostList: []any{map[string]any{}}},
			want: ReasonCrosspost,
		},
		{
			name: "poll wins over spoiler",
			post: model.RawPost{PollData: map[string]any{}, Spoiler: true},
			want: ReasonPoll,
		},
		{
			name: "adult",
			post: model.RawPost{Over18: true},
			want: ReasonBlocked,
		},
		{
			name: "spoiler",
			post: model.RawPost{Spoiler: true},
			want: ReasonBlocked,
		},
		{
			name: "removed",
			post: model.RawPost{RemovedBy: "moderator"},
			want: ReasonBlocked,
		},
		{
			name: "locked",
			post: model.RawPost{Locked: true},
			want: ReasonBlocked,
		},
		{
			name: "promoted",
			post: model.RawPost{CreatedFromAds: true},
			want: ReasonBlocked,
		},
		{
			name: "distinguished",
			post: model.RawPost{Distinguished: "moderator"},
			want: ReasonBlocked,
		},
		{
			name: "stickied",
			post: model.RawPost{Stickied: true},
			want: ReasonBlocked,
		},
		{
			name: "gif extension",
			post: model.RawPost{URL: "https://i.imgur.com/thing.GIF"},
			want: ReasonGif,
		},
		{
			name: "gifv extension on overridden url",
			post: model.RawPost{URLOverridden: "https://i.imgur.com/thing.gifv"},
			want: ReasonGif,
		},
		{
			name: "video domain",
			post: model.RawPost{URL: "https://youtu.be/xyz"},
			want: ReasonVideo,
		},
		{
			name: "native video flag",
			post: model.RawPost{URL: "https://i.redd.it/a.png", IsVideo: true},
			want: ReasonVideo,
		},
		{
			name: "long body on self post",
			post: model.RawPost{IsSelf: true, SelfText: longBody},
			want: ReasonTextTooLong,
		},
		{
			name: "long body on image post",
			post: model.RawPost{PostHint: "image", URL: "https://i.redd.it/a.png", SelfText: longBody},
			want: ReasonTextTooLong,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, reason, ok := Classify(&tc.post)
			if ok {
				t.Fatalf("expected rejection %q, post survived", tc.want)
			}
			if reason != tc.want {
				t.Fatalf("reason = %q, want %q", reason, tc.want)
			}
		})
	}
}

func TestKindAssignment(t *testing.T) {
	cases := []struct {
		name string
		post model.RawPost
		want model.Kind
	}{
		{"gallery", model.RawPost{IsGallery: true}, model.KindGallery},
		{"image", model.RawPost{PostHint: "image", URL: "https://i.redd.it/a.jpg"}, model.KindImage},
		{"self text", model.RawPost{IsSelf: true, SelfText: "short"}, model.KindText},
		{"link", model.RawPost{URL: "https://example.com/article"}, model.KindLink},
		{"gallery wins over image hint", model.RawPost{IsGallery: true, PostHint: "image"}, model.KindGallery},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cp, reason, ok := Classify(&tc.post)
			if !ok {
				t.Fatalf("unexpected rejection: %q", reason)
			}
			if cp.Kind != tc.want {
				t.Fatalf("kind = %v, want %v", cp.Kind, tc.want)
			}
			if cp.Raw != &tc.post {
				t.Fatalf("classified post should reference the raw post")
			}
		})
	}
}

func TestBodyTrimmedBeforeLengthCheck(t *testing.T) {
	// Padding whitespace around a body at the cap must not reject it.
	body := "  " + strings.Repeat("y", MaxBodyLen) + "  "
	p := model.RawPost{IsSelf: true, SelfText: body}
	if _, reason, ok := Classify(&p); !ok {
		t.Fatalf("body at cap after trim should survive, got %q", reason)
	}
}
