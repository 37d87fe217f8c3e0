package scoring

import (
	"context"
	"math"
	"strings"

	"pubmarket/internal/models"
	"pubmarket/internal/validation"
)

// Heuristic is the default deterministic strategy. It derives a trust score
// from declared SEO metrics, traffic magnitude and social presence. Follower
// counts are unknown without an external service and are reported as zero.
type Heuristic struct{}

// Analyze implements Strategy.
func (Heuristic) Analyze(_ context.Context, in Input) (Signals, error) {
	traffic := MonthlyTraffic(in.AhrefsTraffic, in.AudienceSize)

	social := make(map[string]models.SocialProfile)
	for platform, link := range in.SocialLinks {
		link = strings.TrimSpace(link)
		if link == "" {
			continue
		}
		social[strings.ToLower(platform)] = models.SocialProfile{URL: link}
	}

	score := HeuristicTrustScore(in.DomainAuthority, in.PageAuthority, traffic, len(social))

	title := "Website"
	if host := validation.WebsiteHost(in.Website); host != "" {
		title = host
	}

	return Signals{
		Title:        title + " - Official Site",
		TrustScore:   score,
		Social:       social,
		HasAnalytics: traffic > 0,
		Source:       models.AnalysisAutomatic,
	}, nil
}

// HeuristicTrustScore weighs domain authority 50%, page authority 20%,
// traffic up to 25 points (5 per order of magnitude) and 1 point per social
// profile up to 5.
func HeuristicTrustScore(da, pa int, traffic int64, socialProfiles int) int {
	score := 0.5*float64(clamp(da, 0, 100)) + 0.2*float64(clamp(pa, 0, 100))
	if traffic > 0 {
		score += math.Min(25, 5*math.Log10(float64(traffic)))
	}
	score += float64(clamp(socialProfiles, 0, 5))
	return clamp(int(math.Round(score)), 0, 100)
}
