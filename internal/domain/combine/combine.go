// Package combine merges an instructor's active per-provider links into the
// single published composite rating.
package combine

import (
	"sort"

	"github.com/okian/proflink/internal/domain/model"
)

// Combine derives the composite rating from the active links of one
// instructor. Zero links yields ok=false (absent, not zero). One link
// passes that provider's rating and count through verbatim. Two links blend
// by volume:
//
//	score = (rmpAvg*rmpCount + bbAvg*bbCount) / (rmpCount + bbCount)
//
// with total responses the sum of both counts. The blend is deterministic
// and volume-weighted so the published score stays consistent with the
// displayed response total. Confidence is true when at least one
// contributing link is independently confident; both providers always
// appear in PerProvider when present — neither contribution is dropped.
func Combine(links []model.InstructorLink) (model.CompositeRating, bool) {
	if len(links) == 0 {
		return model.CompositeRating{}, false
	}

	// At most one link per provider; sort for a stable PerProvider order.
	sorted := make([]model.InstructorLink, len(links))
	copy(sorted, links)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Provider < sorted[j].Provider })

	var (
		weightedSum float64
		total       int
		confident   bool
		perProvider = make([]model.ProviderRating, 0, len(sorted))
		hasRMP      bool
		hasBB       bool
	)
	for _, l := range sorted {
		weightedSum += l.AvgRating * float64(l.RatingCount)
		total += l.RatingCount
		confident = confident || l.Breakdown.Confident
		perProvider = append(perProvider, model.ProviderRating{
			Provider:  l.Provider,
			AvgRating: l.AvgRating,
			Count:     l.RatingCount,
			Confident: l.Breakdown.Confident,
		})
		switch l.Provider {
		case model.ProviderRMP:
			hasRMP = true
		case model.ProviderBluebook:
			hasBB = true
		}
	}

	rating := model.CompositeRating{
		TotalResponses: total,
		Confident:      confident,
		PerProvider:    perProvider,
	}

	switch {
	case hasRMP && hasBB:
		rating.Mode = model.ModeBoth
	case hasRMP:
		rating.Mode = model.ModeRMPOnly
	default:
		rating.Mode = model.ModeBBOnly
	}

	if total > 0 {
		rating.Score = weightedSum / float64(total)
	} else if len(sorted) == 1 {
		// Zero-count link: pass the average through rather than divide by
		// zero; the volume signal already keeps such links rare.
		rating.Score = sorted[0].AvgRating
	}
	return rating, true
}
