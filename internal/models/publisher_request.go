package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the review state of a publisher request.
type Status string

// Status constants
const (
	StatusPending     Status = "pending"
	StatusUnderReview Status = "under_review"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusPending, StatusUnderReview, StatusApproved, StatusRejected}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUnderReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Active reports whether a request in this status blocks another submission
// for the same owner and website.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusUnderReview
}

// OwnerEditable reports whether the owner may still change the request.
func (s Status) OwnerEditable() bool {
	return s == StatusPending || s == StatusRejected
}

// Analysis sources
const (
	AnalysisManual    = "manual"
	AnalysisAutomatic = "automatic"
)

// Pricing holds the commercial terms of a listing.
type Pricing struct {
	StandardPostPrice float64 `json:"standard_post_price"`
	GrayNichePrice    float64 `json:"gray_niche_price"`
}

// LinkDetails describes which link types a publisher allows.
type LinkDetails struct {
	DofollowAllowed bool `json:"dofollow_allowed"`
	NofollowAllowed bool `json:"nofollow_allowed"`
}

// ContentDetails holds optional content guidance supplied by the publisher.
type ContentDetails struct {
	PostSampleURL     string `json:"post_sample_url,omitempty"`
	ContentGuidelines string `json:"content_guidelines,omitempty"`
	AdditionalNotes   string `json:"additional_notes,omitempty"`
}

// SocialProfile is the analysed state of one social media account.
// YouTube reports subscribers, every other platform followers.
type SocialProfile struct {
	URL         string `json:"url"`
	Followers   int64  `json:"followers,omitempty"`
	Subscribers int64  `json:"subscribers,omitempty"`
	Verified    bool   `json:"verified"`
}

// Audience returns the follower or subscriber count, whichever is set.
func (p SocialProfile) Audience() int64 {
	if p.Followers > 0 {
		return p.Followers
	}
	return p.Subscribers
}

// WebsiteAnalysis is the derived analytics block of a listing.
type WebsiteAnalysis struct {
	Title             string                   `json:"title,omitempty"`
	Description       string                   `json:"description,omitempty"`
	MonthlyTraffic    int64                    `json:"monthly_traffic"`
	EstimatedAudience int64                    `json:"estimated_audience"`
	TrustScore        int                      `json:"trust_score"`
	DomainAuthority   int                      `json:"domain_authority"`
	PageAuthority     int                      `json:"page_authority"`
	AhrefsTraffic     int64                    `json:"ahrefs_traffic"`
	TopTrafficCountry string                   `json:"top_traffic_country"`
	SocialMedia       map[string]SocialProfile `json:"social_media,omitempty"`
	HasAnalytics      bool                     `json:"has_analytics"`
	LastAnalyzed      time.Time                `json:"last_analyzed"`
	AnalysisSource    string                   `json:"analysis_source"`
	Errors            []string                 `json:"errors,omitempty"`
}

// PublisherRequest is a publisher's listing submission.
type PublisherRequest struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email"`
	CompanyName string    `json:"company_name"`
	Website     string    `json:"website"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`

	Category   string   `json:"category"`
	GrayNiches []string `json:"gray_niches"`

	AudienceSize         int64  `json:"audience_size"`
	DomainAuthority      int    `json:"domain_authority"`
	PageAuthority        int    `json:"page_authority"`
	MonthlyTrafficAhrefs int64  `json:"monthly_traffic_ahrefs"`
	TopTrafficCountry    string `json:"top_traffic_country,omitempty"`

	Pricing        Pricing        `json:"pricing"`
	LinkDetails    LinkDetails    `json:"link_details"`
	ContentDetails ContentDetails `json:"content_details"`

	BusinessType         string   `json:"business_type"`
	MonthlyPageViews     int64    `json:"monthly_page_views"`
	PrimaryTrafficSource string   `json:"primary_traffic_source"`
	ContentLanguages     []string `json:"content_languages"`

	Status          Status           `json:"status"`
	WebsiteAnalysis *WebsiteAnalysis `json:"website_analysis"`

	AdminNotes      *string    `json:"admin_notes"`
	RejectionReason *string    `json:"rejection_reason"`
	ReviewedBy      *uuid.UUID `json:"reviewed_by"`
	ReviewedAt      *time.Time `json:"reviewed_at"`
	ApprovedBy      *uuid.UUID `json:"approved_by"`
	ApprovalDate    *time.Time `json:"approval_date"`

	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AcceptsGrayNiche reports whether the listing accepts the given gray niche.
func (r *PublisherRequest) AcceptsGrayNiche(niche string) bool {
	for _, n := range r.GrayNiches {
		if n == niche {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers can mutate without aliasing store state.
func (r *PublisherRequest) Clone() *PublisherRequest {
	c := *r
	c.GrayNiches = append([]string(nil), r.GrayNiches...)
	c.ContentLanguages = append([]string(nil), r.ContentLanguages...)
	if r.WebsiteAnalysis != nil {
		a := *r.WebsiteAnalysis
		if r.WebsiteAnalysis.SocialMedia != nil {
			a.SocialMedia = make(map[string]SocialProfile, len(r.WebsiteAnalysis.SocialMedia))
			for k, v := range r.WebsiteAnalysis.SocialMedia {
				a.SocialMedia[k] = v
			}
		}
		a.Errors = append([]string(nil), r.WebsiteAnalysis.Errors...)
		c.WebsiteAnalysis = &a
	}
	c.AdminNotes = cloneString(r.AdminNotes)
	c.RejectionReason = cloneString(r.RejectionReason)
	c.ReviewedBy = cloneUUID(r.ReviewedBy)
	c.ApprovedBy = cloneUUID(r.ApprovedBy)
	c.ReviewedAt = cloneTime(r.ReviewedAt)
	c.ApprovalDate = cloneTime(r.ApprovalDate)
	return &c
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneUUID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
