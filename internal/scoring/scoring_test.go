package scoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"pubmarket/internal/models"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func fixed(sig Signals) Strategy {
	return StrategyFunc(func(context.Context, Input) (Signals, error) {
		return sig, nil
	})
}

func TestEngine_Score(t *testing.T) {
	tests := []struct {
		name         string
		in           Input
		sig          Signals
		wantTraffic  int64
		wantAudience int64
		wantTrust    int
		wantCountry  string
	}{
		{
			name:         "ahrefs traffic preferred",
			in:           Input{AhrefsTraffic: 20000, AudienceSize: 500, TopTrafficCountry: "US"},
			sig:          Signals{TrustScore: 80},
			wantTraffic:  20000,
			wantAudience: 20500,
			wantTrust:    80,
			wantCountry:  "US",
		},
		{
			name:         "falls back to audience size",
			in:           Input{AudienceSize: 3000},
			sig:          Signals{TrustScore: 40},
			wantTraffic:  3000,
			wantAudience: 6000,
			wantTrust:    40,
			wantCountry:  "Unknown",
		},
		{
			name: "social followers and subscribers summed",
			in:   Input{AhrefsTraffic: 1000},
			sig: Signals{TrustScore: 50, Social: map[string]models.SocialProfile{
				"twitter": {Followers: 200},
				"youtube": {Subscribers: 300},
			}},
			wantTraffic:  1000,
			wantAudience: 1500,
			wantTrust:    50,
			wantCountry:  "Unknown",
		},
		{
			name:        "trust score clamped high",
			in:          Input{},
			sig:         Signals{TrustScore: 180},
			wantTrust:   100,
			wantCountry: "Unknown",
		},
		{
			name:        "trust score clamped low",
			in:          Input{AudienceSize: -5},
			sig:         Signals{TrustScore: -3},
			wantTrust:   0,
			wantCountry: "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := NewEngine(fixed(tt.sig)).WithClock(func() time.Time { return fixedNow })
			got := e.Score(context.Background(), tt.in)

			if got.MonthlyTraffic != tt.wantTraffic {
				t.Errorf("MonthlyTraffic = %d, want %d", got.MonthlyTraffic, tt.wantTraffic)
			}
			if got.EstimatedAudience != tt.wantAudience {
				t.Errorf("EstimatedAudience = %d, want %d", got.EstimatedAudience, tt.wantAudience)
			}
			if got.TrustScore != tt.wantTrust {
				t.Errorf("TrustScore = %d, want %d", got.TrustScore, tt.wantTrust)
			}
			if got.TopTrafficCountry != tt.wantCountry {
				t.Errorf("TopTrafficCountry = %q, want %q", got.TopTrafficCountry, tt.wantCountry)
			}
			if !got.LastAnalyzed.Equal(fixedNow) {
				t.Errorf("LastAnalyzed = %v, want %v", got.LastAnalyzed, fixedNow)
			}
			if got.AnalysisSource != models.AnalysisAutomatic {
				t.Errorf("AnalysisSource = %q, want automatic", got.AnalysisSource)
			}
		})
	}
}

func TestEngine_ScoreFallsBackOnStrategyError(t *testing.T) {
	failing := StrategyFunc(func(context.Context, Input) (Signals, error) {
		return Signals{}, errors.New("timeout during analysis")
	})
	e := NewEngine(failing)

	got := e.Score(context.Background(), Input{DomainAuthority: 60, AhrefsTraffic: 10000})

	if got.TrustScore == 0 {
		t.Error("fallback heuristic should produce a trust score")
	}
	if len(got.Errors) != 1 || got.Errors[0] != "timeout during analysis" {
		t.Errorf("Errors = %v, want the strategy error recorded", got.Errors)
	}
}

func TestEngine_ScoreIsDeterministic(t *testing.T) {
	e := NewEngine(nil).WithClock(func() time.Time { return fixedNow })
	in := Input{
		Website:         "https://example.com",
		DomainAuthority: 40,
		PageAuthority:   30,
		AhrefsTraffic:   15000,
		SocialLinks:     map[string]string{"twitter": "https://twitter.com/example"},
	}

	a := e.Score(context.Background(), in)
	b := e.Score(context.Background(), in)
	if a.TrustScore != b.TrustScore || a.EstimatedAudience != b.EstimatedAudience {
		t.Errorf("Score not deterministic: %+v vs %+v", a, b)
	}
	if a.Title != "example.com - Official Site" {
		t.Errorf("Title = %q", a.Title)
	}
}

func TestHeuristicTrustScore(t *testing.T) {
	tests := []struct {
		name    string
		da, pa  int
		traffic int64
		social  int
		want    int
	}{
		{"nothing declared", 0, 0, 0, 0, 0},
		{"authority only", 40, 30, 0, 0, 26},
		{"ten thousand visits", 0, 0, 10000, 0, 20},
		{"traffic capped", 0, 0, 10_000_000_000, 0, 25},
		{"social capped at five", 0, 0, 0, 9, 5},
		{"everything maxed", 100, 100, 10_000_000_000, 5, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeuristicTrustScore(tt.da, tt.pa, tt.traffic, tt.social); got != tt.want {
				t.Errorf("HeuristicTrustScore() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTotalAudience(t *testing.T) {
	r := &models.PublisherRequest{AudienceSize: 100}
	if got := TotalAudience(r); got != 100 {
		t.Errorf("TotalAudience(no analysis) = %d, want 100", got)
	}

	r.WebsiteAnalysis = &models.WebsiteAnalysis{
		MonthlyTraffic: 5000,
		SocialMedia: map[string]models.SocialProfile{
			"instagram": {Followers: 250},
			"youtube":   {Subscribers: 50},
		},
	}
	if got := TotalAudience(r); got != 5400 {
		t.Errorf("TotalAudience() = %d, want 5400", got)
	}
}

func TestPriceRange(t *testing.T) {
	tests := []struct {
		name    string
		pricing models.Pricing
		want    string
	}{
		{"gray defaults to standard", models.Pricing{StandardPostPrice: 50}, "$50"},
		{"same prices", models.Pricing{StandardPostPrice: 50, GrayNichePrice: 50}, "$50"},
		{"range", models.Pricing{StandardPostPrice: 50, GrayNichePrice: 80}, "$50 - $80"},
		{"cents", models.Pricing{StandardPostPrice: 49.5}, "$49.50"},
		{"free", models.Pricing{}, "$0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PriceRange(tt.pricing); got != tt.want {
				t.Errorf("PriceRange() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTrustLevel(t *testing.T) {
	tests := []struct {
		score int
		want  string
	}{
		{100, TrustHigh},
		{70, TrustHigh},
		{69, TrustMedium},
		{40, TrustMedium},
		{39, TrustLow},
		{0, TrustLow},
	}

	for _, tt := range tests {
		if got := TrustLevel(tt.score); got != tt.want {
			t.Errorf("TrustLevel(%d) = %q, want %q", tt.score, got, tt.want)
		}
	}
}

func TestParseRemoteSignals(t *testing.T) {
	body := []byte(`{
		"website": {"title": "Example", "description": "A site", "has_analytics": true},
		"analysis": {"trust_score": 72},
		"social": {
			"twitter": {"url": "https://twitter.com/ex", "followers": 1200, "verified": true},
			"youtube": {"url": "https://youtube.com/ex", "subscribers": 300}
		},
		"errors": ["partial data"]
	}`)

	sig := parseRemoteSignals(body)

	if sig.Title != "Example" || sig.Description != "A site" || !sig.HasAnalytics {
		t.Errorf("website fields = %+v", sig)
	}
	if sig.TrustScore != 72 {
		t.Errorf("TrustScore = %d, want 72", sig.TrustScore)
	}
	if got := sig.Social["twitter"]; got.Followers != 1200 || !got.Verified {
		t.Errorf("twitter = %+v", got)
	}
	if got := sig.Social["youtube"]; got.Subscribers != 300 {
		t.Errorf("youtube = %+v", got)
	}
	if len(sig.Errors) != 1 {
		t.Errorf("Errors = %v", sig.Errors)
	}
}
