package models

// ListingInput is the submission payload for a new publisher request.
type ListingInput struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Website     string `json:"website"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`

	Category   string   `json:"category"`
	GrayNiches []string `json:"gray_niches"`

	AudienceSize         int64  `json:"audience_size"`
	DomainAuthority      int    `json:"domain_authority"`
	PageAuthority        int    `json:"page_authority"`
	MonthlyTrafficAhrefs int64  `json:"monthly_traffic_ahrefs"`
	TopTrafficCountry    string `json:"top_traffic_country"`

	StandardPostPrice float64 `json:"standard_post_price"`
	GrayNichePrice    float64 `json:"gray_niche_price"`

	// Nil means allowed.
	DofollowAllowed *bool `json:"dofollow_allowed"`
	NofollowAllowed *bool `json:"nofollow_allowed"`

	ContentDetails ContentDetails `json:"content_details"`

	BusinessType         string   `json:"business_type"`
	MonthlyPageViews     int64    `json:"monthly_page_views"`
	PrimaryTrafficSource string   `json:"primary_traffic_source"`
	ContentLanguages     []string `json:"content_languages"`

	// Platform name -> profile URL, passed to the scoring strategy.
	SocialMedia map[string]string `json:"social_media"`
}

// ListingPatch is the owner-editable subset of a publisher request.
// Nil fields are left unchanged. Status, review audit and ownership
// fields are intentionally absent.
type ListingPatch struct {
	FullName    *string `json:"full_name"`
	Email       *string `json:"email"`
	CompanyName *string `json:"company_name"`
	Website     *string `json:"website"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`

	Category   *string   `json:"category"`
	GrayNiches *[]string `json:"gray_niches"`

	AudienceSize         *int64  `json:"audience_size"`
	DomainAuthority      *int    `json:"domain_authority"`
	PageAuthority        *int    `json:"page_authority"`
	MonthlyTrafficAhrefs *int64  `json:"monthly_traffic_ahrefs"`
	TopTrafficCountry    *string `json:"top_traffic_country"`

	StandardPostPrice *float64 `json:"standard_post_price"`
	GrayNichePrice    *float64 `json:"gray_niche_price"`

	DofollowAllowed *bool `json:"dofollow_allowed"`
	NofollowAllowed *bool `json:"nofollow_allowed"`

	ContentDetails *ContentDetails `json:"content_details"`

	BusinessType         *string   `json:"business_type"`
	MonthlyPageViews     *int64    `json:"monthly_page_views"`
	PrimaryTrafficSource *string   `json:"primary_traffic_source"`
	ContentLanguages     *[]string `json:"content_languages"`
}

// AffectsAnalysis reports whether the patch touches inputs of the scoring engine.
func (p ListingPatch) AffectsAnalysis() bool {
	return p.Website != nil || p.Category != nil || p.AudienceSize != nil ||
		p.DomainAuthority != nil || p.PageAuthority != nil ||
		p.MonthlyTrafficAhrefs != nil || p.TopTrafficCountry != nil
}

// ReviewInput carries the admin's reasoning for a status change.
type ReviewInput struct {
	RejectionReason string `json:"rejection_reason"`
	AdminNotes      string `json:"admin_notes"`
}
