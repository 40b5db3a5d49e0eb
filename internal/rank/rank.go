// Package rank orders filter survivors by priority group and engagement
// score. Ranking is a total order: ascending priority group, then descending
// score, stable on input order for exact ties.
package rank

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"redbird/internal/model"
)

// Priority groups, lower ranks first. Group 1 is a captionable visual with
// no body text, group 2 a visual with body, group 3 plain text or link.
// fallbackPriority should be unreachable given the hard filter; hitting it
// is a soft invariant violation that is logged but still ranked last.
const (
	priorityBareVisual = 1
	priorityVisual     = 2
	priorityTextLink   = 3
	fallbackPriority   = 99
)

// Engagement score weights.
const (
	upvoteWeight  = 0.65
	commentWeight = 0.35
	ratioWeight   = 10.0
	agePenalty    = 0.3
)

// PriorityGroup assigns the coarse preference tier from kind and
// body-emptiness alone.
func PriorityGroup(p model.ClassifiedPost) int {
	visual := p.Kind == model.KindImage || p.Kind == model.KindGallery
	switch {
	case visual && p.Raw.Body() == "":
		return priorityBareVisual
	case visual:
		return priorityVisual
	case p.Kind == model.KindText || p.Kind == model.KindLink:
		return priorityTextLink
	default:
		slog.Warn("rank: unexpected kind reached ranking", "kind", p.Kind.String(), "id", p.Raw.ID)
		return fallbackPriority
	}
}

// Score computes the engagement score at time now. Missing counters default
// to zero, a missing upvote ratio to 1.0; age never scores negative.
func Score(p model.ClassifiedPost, now time.Time) float64 {
	ratio := 1.0
	if p.Raw.UpvoteRatio != nil {
		ratio = *p.Raw.UpvoteRatio
	}
	ageHours := now.Sub(p.Raw.CreatedAt()).Hours()
	if ageHours < 0 {
		ageHours = 0
	}
	score := float64(p.Raw.Ups)*upvoteWeight +
		float64(p.Raw.NumComments)*commentWeight +
		ratio*ratioWeight -
		ageHours*agePenalty
	// Round to 3 decimals so logged scores stay readable.
	return math.Round(score*1000) / 1000
}

// Rank produces the stably sorted ranking of survivors. Empty input yields
// empty output.
func Rank(posts []model.ClassifiedPost, now time.Time) []model.RankedPost {
	ranked := make([]model.RankedPost, 0, len(posts))
	for _, p := range posts {
		ranked = append(ranked, model.RankedPost{
			ClassifiedPost: p,
			Priority:       PriorityGroup(p),
			Score:          Score(p, now),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Priority != ranked[j].Priority {
			return ranked[i].Priority < ranked[j].Priority
		}
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}
