// Package scoring derives website analytics (trust score, audience, traffic)
// from the metrics a publisher declares. Signal gathering is delegated to a
// pluggable Strategy; the Engine turns signals into a bounded, consistent
// models.WebsiteAnalysis.
package scoring

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"pubmarket/internal/models"
)

// Input is everything a strategy may use to analyse a listing.
type Input struct {
	Website           string
	Category          string
	DomainAuthority   int
	PageAuthority     int
	AhrefsTraffic     int64
	AudienceSize      int64
	TopTrafficCountry string
	// Platform name -> profile URL.
	SocialLinks map[string]string
}

// InputFromRequest builds scoring input from a stored listing.
func InputFromRequest(r *models.PublisherRequest, social map[string]string) Input {
	return Input{
		Website:           r.Website,
		Category:          r.Category,
		DomainAuthority:   r.DomainAuthority,
		PageAuthority:     r.PageAuthority,
		AhrefsTraffic:     r.MonthlyTrafficAhrefs,
		AudienceSize:      r.AudienceSize,
		TopTrafficCountry: r.TopTrafficCountry,
		SocialLinks:       social,
	}
}

// SocialLinksOf recovers the platform -> URL map from a previous analysis.
func SocialLinksOf(a *models.WebsiteAnalysis) map[string]string {
	if a == nil || len(a.SocialMedia) == 0 {
		return nil
	}
	links := make(map[string]string, len(a.SocialMedia))
	for platform, p := range a.SocialMedia {
		links[platform] = p.URL
	}
	return links
}

// Signals is the raw output of a strategy, before clamping and aggregation.
type Signals struct {
	Title        string
	Description  string
	TrustScore   int
	Social       map[string]models.SocialProfile
	HasAnalytics bool
	Source       string
	Errors       []string
}

// Strategy produces analysis signals for a listing.
type Strategy interface {
	Analyze(ctx context.Context, in Input) (Signals, error)
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, in Input) (Signals, error)

// Analyze calls f.
func (f StrategyFunc) Analyze(ctx context.Context, in Input) (Signals, error) {
	return f(ctx, in)
}

// Engine computes derived analytics with a configured strategy.
type Engine struct {
	strategy Strategy
	fallback Strategy
	now      func() time.Time
}

// NewEngine creates an engine. A nil strategy selects the heuristic strategy.
func NewEngine(strategy Strategy) *Engine {
	if strategy == nil {
		strategy = Heuristic{}
	}
	return &Engine{strategy: strategy, fallback: Heuristic{}, now: time.Now}
}

// WithClock returns a copy of the engine that stamps analyses with now().
func (e *Engine) WithClock(now func() time.Time) *Engine {
	c := *e
	c.now = now
	return &c
}

// Score analyses the input. A failing strategy does not fail scoring: the
// heuristic fallback is used and the failure is recorded in Errors.
func (e *Engine) Score(ctx context.Context, in Input) models.WebsiteAnalysis {
	sig, err := e.strategy.Analyze(ctx, in)
	if err != nil {
		slog.Warn("website analysis failed, using heuristic fallback", "website", in.Website, "error", err)
		fb, _ := e.fallback.Analyze(ctx, in)
		fb.Errors = append(fb.Errors, err.Error())
		sig = fb
	}
	return e.build(in, sig)
}

func (e *Engine) build(in Input, sig Signals) models.WebsiteAnalysis {
	traffic := MonthlyTraffic(in.AhrefsTraffic, in.AudienceSize)

	var social map[string]models.SocialProfile
	var followers int64
	if len(sig.Social) > 0 {
		social = make(map[string]models.SocialProfile, len(sig.Social))
		for platform, p := range sig.Social {
			social[platform] = p
			followers += p.Audience()
		}
	}

	country := strings.TrimSpace(in.TopTrafficCountry)
	if country == "" {
		country = "Unknown"
	}
	source := sig.Source
	if source == "" {
		source = models.AnalysisAutomatic
	}

	return models.WebsiteAnalysis{
		Title:             sig.Title,
		Description:       sig.Description,
		MonthlyTraffic:    traffic,
		EstimatedAudience: traffic + followers + nonNegative(in.AudienceSize),
		TrustScore:        clamp(sig.TrustScore, 0, 100),
		DomainAuthority:   clamp(in.DomainAuthority, 0, 100),
		PageAuthority:     clamp(in.PageAuthority, 0, 100),
		AhrefsTraffic:     nonNegative(in.AhrefsTraffic),
		TopTrafficCountry: country,
		SocialMedia:       social,
		HasAnalytics:      sig.HasAnalytics,
		LastAnalyzed:      e.now().UTC(),
		AnalysisSource:    source,
		Errors:            sig.Errors,
	}
}

// MonthlyTraffic prefers measured Ahrefs traffic and falls back to the
// declared audience size.
func MonthlyTraffic(ahrefs, audience int64) int64 {
	if ahrefs > 0 {
		return ahrefs
	}
	return nonNegative(audience)
}

// TotalAudience is website traffic plus social followers plus declared audience.
// A listing without an analysis block contributes only its declared audience.
func TotalAudience(r *models.PublisherRequest) int64 {
	total := nonNegative(r.AudienceSize)
	if a := r.WebsiteAnalysis; a != nil {
		total += a.MonthlyTraffic
		for _, p := range a.SocialMedia {
			total += p.Audience()
		}
	}
	return total
}

// Trust levels
const (
	TrustHigh   = "High"
	TrustMedium = "Medium"
	TrustLow    = "Low"
)

// TrustLevel buckets a trust score.
func TrustLevel(score int) string {
	switch {
	case score >= 70:
		return TrustHigh
	case score >= 40:
		return TrustMedium
	default:
		return TrustLow
	}
}

// EffectiveGrayNichePrice returns the gray niche price, defaulting to the
// standard price when unset.
func EffectiveGrayNichePrice(p models.Pricing) float64 {
	if p.GrayNichePrice > 0 {
		return p.GrayNichePrice
	}
	return p.StandardPostPrice
}

// PriceRange renders pricing as "$50" or "$50 - $80".
func PriceRange(p models.Pricing) string {
	standard := p.StandardPostPrice
	gray := EffectiveGrayNichePrice(p)
	if standard == gray {
		return "$" + formatPrice(standard)
	}
	return "$" + formatPrice(standard) + " - $" + formatPrice(gray)
}

// Summary is the read-time digest attached to listings in API responses.
type Summary struct {
	TotalAudience   int64  `json:"total_audience"`
	TrustLevel      string `json:"trust_level"`
	HasVerifiedData bool   `json:"has_verified_data"`
	PriceRange      string `json:"price_range"`
}

// Summarize computes the read-time digest of a listing.
func Summarize(r *models.PublisherRequest) Summary {
	s := Summary{
		TotalAudience: TotalAudience(r),
		TrustLevel:    TrustLow,
		PriceRange:    PriceRange(r.Pricing),
	}
	if r.WebsiteAnalysis != nil {
		s.TrustLevel = TrustLevel(r.WebsiteAnalysis.TrustScore)
		s.HasVerifiedData = r.WebsiteAnalysis.HasAnalytics
	}
	return s
}

func formatPrice(v float64) string {
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}
